package cli

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newStorageCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "storage",
		Short: "Object operations on storage buckets",
	}

	var uploadPath, contentType string
	upload := &cobra.Command{
		Use:   "upload <bucket> <file>",
		Short: "Upload a local file; existing objects are not overwritten",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			dest := uploadPath
			if dest == "" {
				dest = filepath.Base(args[1])
			}
			ct := contentType
			if ct == "" {
				ct = detectContentType(args[1], content)
			}
			if !app.storage().UploadFile(cmd.Context(), args[0], dest, content, ct) {
				return fmt.Errorf("upload of %s to %s failed", args[1], args[0])
			}
			printSuccess(cmd.OutOrStdout(), "Uploaded %s/%s", args[0], dest)
			return nil
		},
	}
	upload.Flags().StringVar(&uploadPath, "path", "", "object path in the bucket (default the file name)")
	upload.Flags().StringVar(&contentType, "content-type", "", "mimetype (default detected from the file)")

	download := &cobra.Command{
		Use:   "download <bucket> <path> <destination>",
		Short: "Download an object to a local file",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.storage().DownloadFile(cmd.Context(), args[0], args[1], args[2]) {
				return fmt.Errorf("download of %s/%s failed", args[0], args[1])
			}
			printSuccess(cmd.OutOrStdout(), "Saved %s/%s to %s", args[0], args[1], args[2])
			return nil
		},
	}

	remove := &cobra.Command{
		Use:   "delete <bucket> <path>",
		Short: "Delete an object",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.storage().DeleteFile(cmd.Context(), args[0], args[1]) {
				return fmt.Errorf("delete of %s/%s failed", args[0], args[1])
			}
			printSuccess(cmd.OutOrStdout(), "Deleted %s/%s", args[0], args[1])
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list <bucket> [folder]",
		Short: "List the objects directly under folder",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			folder := ""
			if len(args) == 2 {
				folder = args[1]
			}
			files := app.storage().ListFiles(cmd.Context(), args[0], folder)
			if len(files) == 1 && len(files[0]) == 0 {
				return fmt.Errorf("no objects listed in %s/%s", args[0], folder)
			}
			return writeJSON(cmd.OutOrStdout(), files)
		},
	}

	var expires int
	sign := &cobra.Command{
		Use:   "sign <bucket> <path>",
		Short: "Create a time-limited download URL",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			u := app.storage().CreateSignedURL(cmd.Context(), args[0], args[1], expires)
			if u == "" {
				return fmt.Errorf("signing %s/%s failed", args[0], args[1])
			}
			fmt.Fprintln(cmd.OutOrStdout(), u)
			return nil
		},
	}
	sign.Flags().IntVar(&expires, "expires", 0, "lifetime in seconds (default storage.signed_url_expiry)")

	cmd.AddCommand(upload, download, remove, list, sign)
	return cmd
}

func detectContentType(name string, content []byte) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return http.DetectContentType(content)
}
