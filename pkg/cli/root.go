// Package cli implements the supasaas command line: auth, db and storage
// subcommands over the facades, with the session persisted between runs.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/DeBrosOfficial/supasaas/pkg/auth"
	"github.com/DeBrosOfficial/supasaas/pkg/client"
	"github.com/DeBrosOfficial/supasaas/pkg/config"
	"github.com/DeBrosOfficial/supasaas/pkg/database"
	"github.com/DeBrosOfficial/supasaas/pkg/logging"
	"github.com/DeBrosOfficial/supasaas/pkg/storage"
)

// BuildInfo is version metadata populated via -ldflags at build time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// App carries what the subcommands share. It is populated by the root
// command's PersistentPreRunE.
type App struct {
	configPath  string
	serviceRole bool
	quiet       bool

	cfg    *config.Config
	logger *logging.ColoredLogger
	client *client.Client
	store  *auth.CredentialStore
}

// NewRootCmd builds the command tree.
func NewRootCmd(info BuildInfo) *cobra.Command {
	app := &App{}

	root := &cobra.Command{
		Use:           "supasaas",
		Short:         "Auth, table and storage operations against a Supabase project",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return app.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			app.close()
		},
	}

	root.PersistentFlags().StringVarP(&app.configPath, "config", "c", "", "path to a YAML config file")
	root.PersistentFlags().BoolVar(&app.serviceRole, "service-role", false, "use the service-role key (bypasses row level security)")
	root.PersistentFlags().BoolVarP(&app.quiet, "quiet", "q", false, "only log warnings and errors")

	root.AddCommand(newAuthCmd(app))
	root.AddCommand(newDBCmd(app))
	root.AddCommand(newStorageCmd(app))
	root.AddCommand(newVersionCmd(info))
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute(info BuildInfo) {
	root := NewRootCmd(info)
	if err := root.Execute(); err != nil {
		printFailure(os.Stderr, "%s", formatFailure(err))
		os.Exit(1)
	}
}

func (a *App) setup() error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	a.cfg = cfg

	logger, err := newLogger(cfg.Logging, a.quiet)
	if err != nil {
		return err
	}
	a.logger = logger
	logging.SetDefault(logger)

	opts := append(client.FromConfig(cfg), client.WithLogger(logger.Logger))
	c, err := client.NewClient(cfg.Login(), opts...)
	if err != nil {
		return err
	}
	a.client = c

	a.store, err = auth.LoadCredentials()
	if err != nil {
		return err
	}
	if creds, ok := a.store.Get(cfg.Supabase.URL); ok {
		c.SetSession(creds.Session)
	}
	return nil
}

func (a *App) close() {
	if a.client != nil {
		a.client.Close()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

func newLogger(lc config.LoggingConfig, quiet bool) (*logging.ColoredLogger, error) {
	level := logging.ParseLevel(lc.Level)
	if quiet && level < zapcore.WarnLevel {
		level = zapcore.WarnLevel
	}
	switch {
	case lc.OutputFile != "":
		return logging.NewFileLogger(lc.OutputFile, level, logging.FileOptions{
			MaxSizeMB:  lc.MaxSizeMB,
			MaxBackups: lc.MaxBackups,
		})
	case lc.Format == "json":
		return logging.NewJSONLogger(level), nil
	default:
		return logging.NewColoredLogger(level, lc.Colors), nil
	}
}

func (a *App) auth() *auth.Auth {
	return auth.NewAuth(a.client)
}

func (a *App) db() *database.DB {
	return database.NewDB(a.client)
}

func (a *App) storage() *storage.Storage {
	return storage.NewStorage(a.client, storage.WithSignedURLExpiry(a.cfg.Storage.SignedURLExpiry))
}

func (a *App) callOptions(cmd *cobra.Command) []database.CallOption {
	var opts []database.CallOption
	if a.serviceRole {
		opts = append(opts, database.WithServiceRole())
	}
	if cols, _ := cmd.Flags().GetStringSlice("columns"); len(cols) > 0 {
		opts = append(opts, database.WithColumns(cols...))
	}
	return opts
}

func newVersionCmd(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			writeVersion(cmd.OutOrStdout(), info)
		},
	}
}

func writeVersion(w io.Writer, info BuildInfo) {
	v := info.Version
	if v == "" {
		v = "dev"
	}
	fmt.Fprintf(w, "supasaas %s", v)
	if info.Commit != "" {
		fmt.Fprintf(w, " (commit %s)", info.Commit)
	}
	if info.Date != "" {
		fmt.Fprintf(w, " built %s", info.Date)
	}
	fmt.Fprintln(w)
}
