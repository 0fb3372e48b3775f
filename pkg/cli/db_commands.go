package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DeBrosOfficial/supasaas/pkg/database"
	"github.com/DeBrosOfficial/supasaas/pkg/validate"
)

func newDBCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Row operations on project tables",
	}
	cmd.AddCommand(
		newInsertCmd(app),
		newSelectCmd(app),
		newSelectManyCmd(app),
		newUpdateCmd(app),
		newDeleteCmd(app),
		newFindCmd(app),
	)
	return cmd
}

// matchFlags are shared by the commands that filter on one column.
type matchFlags struct {
	kind string
}

func (f *matchFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.kind, "kind", "any", "type the filter value must have: any, string, number, bool")
}

func (f *matchFlags) match(column, raw string) (database.Match, error) {
	kind, err := parseKind(f.kind)
	if err != nil {
		return database.Match{}, err
	}
	value, err := parseValue(raw, kind)
	if err != nil {
		return database.Match{}, err
	}
	return database.Eq(column, value, kind), nil
}

func addColumnsFlag(cmd *cobra.Command) {
	cmd.Flags().StringSlice("columns", nil, "columns to return (default all)")
}

func newInsertCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "insert <table> <json>",
		Short: "Insert one row",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			row, err := parseObject("row", args[1])
			if err != nil {
				return err
			}
			if !app.db().InsertRow(cmd.Context(), args[0], row, app.callOptions(cmd)...) {
				return fmt.Errorf("insert into %s failed", args[0])
			}
			printSuccess(cmd.OutOrStdout(), "Inserted row into %s", args[0])
			return nil
		},
	}
}

func newSelectCmd(app *App) *cobra.Command {
	var mf matchFlags
	cmd := &cobra.Command{
		Use:   "select <table> <column> <value>",
		Short: "Select the rows where column equals value",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			match, err := mf.match(args[1], args[2])
			if err != nil {
				return err
			}
			rows := app.db().SelectRow(cmd.Context(), args[0], match, app.callOptions(cmd)...)
			return writeRows(cmd, args[0], rows)
		},
	}
	mf.register(cmd)
	addColumnsFlag(cmd)
	return cmd
}

func newSelectManyCmd(app *App) *cobra.Command {
	var filters []string
	cmd := &cobra.Command{
		Use:   "select-many <table> --in column=v1,v2 [--in column=v3]",
		Short: "Select the rows whose columns take any of the listed values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			matches, err := parseInFilters(filters)
			if err != nil {
				return err
			}
			rows := app.db().SelectRows(cmd.Context(), args[0], matches, app.callOptions(cmd)...)
			return writeRows(cmd, args[0], rows)
		},
	}
	cmd.Flags().StringArrayVar(&filters, "in", nil, "column=v1,v2 filter (repeatable)")
	addColumnsFlag(cmd)
	return cmd
}

func newUpdateCmd(app *App) *cobra.Command {
	var mf matchFlags
	cmd := &cobra.Command{
		Use:   "update <table> <column> <value> <json>",
		Short: "Apply json to the rows where column equals value",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			match, err := mf.match(args[1], args[2])
			if err != nil {
				return err
			}
			updates, err := parseObject("updates", args[3])
			if err != nil {
				return err
			}
			if !app.db().UpdateRow(cmd.Context(), args[0], updates, match, app.callOptions(cmd)...) {
				return fmt.Errorf("update of %s failed", args[0])
			}
			printSuccess(cmd.OutOrStdout(), "Updated %s where %s = %s", args[0], args[1], args[2])
			return nil
		},
	}
	mf.register(cmd)
	return cmd
}

func newDeleteCmd(app *App) *cobra.Command {
	var mf matchFlags
	cmd := &cobra.Command{
		Use:   "delete <table> <column> <value>",
		Short: "Delete the rows where column equals value",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			match, err := mf.match(args[1], args[2])
			if err != nil {
				return err
			}
			if !app.db().DeleteRow(cmd.Context(), args[0], match, app.callOptions(cmd)...) {
				return fmt.Errorf("delete from %s failed", args[0])
			}
			printSuccess(cmd.OutOrStdout(), "Deleted from %s where %s = %s", args[0], args[1], args[2])
			return nil
		},
	}
	mf.register(cmd)
	return cmd
}

func newFindCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "find <table> <column> <max>",
		Short: "Select the rows where column is at most max",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			within, err := strconv.ParseInt(args[2], 10, 64)
			if err != nil {
				return fmt.Errorf("max %q is not an integer", args[2])
			}
			rows := app.db().FindRow(cmd.Context(), args[0], args[1], within, app.callOptions(cmd)...)
			return writeRows(cmd, args[0], rows)
		},
	}
	addColumnsFlag(cmd)
	return cmd
}

// parseInFilters turns ["age=30,40"] into {"age": ["30", "40"]}. Values
// that parse as numbers are sent as numbers.
func parseInFilters(filters []string) (map[string][]any, error) {
	matches := make(map[string][]any, len(filters))
	for _, f := range filters {
		column, list, ok := strings.Cut(f, "=")
		if !ok || column == "" {
			return nil, fmt.Errorf("filter %q must be column=v1,v2", f)
		}
		for _, raw := range strings.Split(list, ",") {
			if raw == "" {
				continue
			}
			v, err := parseValue(raw, validate.Number)
			if err != nil {
				v = raw
			}
			matches[column] = append(matches[column], v)
		}
	}
	return matches, nil
}

// writeRows prints rows, treating the facade's empty value as a failure.
func writeRows(cmd *cobra.Command, table string, rows []database.Row) error {
	if len(rows) == 0 || (len(rows) == 1 && len(rows[0]) == 0) {
		return fmt.Errorf("no rows returned from %s", table)
	}
	return writeJSON(cmd.OutOrStdout(), rows)
}
