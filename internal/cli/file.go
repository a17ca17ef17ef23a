package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

const timeFormat = "2006-01-02 15:04:05"

func newFileCommand(st *state) *cobra.Command {
	file := &cobra.Command{
		Use:   "file",
		Short: "Sign, verify and retrieve stored files",
	}
	file.AddCommand(
		newFileSignCommand(st),
		newFileVerifyCommand(st),
		newFileGetCommand(st),
		newFileListCommand(st),
		newFilePendingCommand(st),
	)
	return file
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid signature id %q", arg)
	}
	return id, nil
}

func newFileSignCommand(st *state) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "sign <path>",
		Short: "Sign a local file and store it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := st.authenticate(cmd, false)
			if err != nil {
				return err
			}

			content, err := afero.ReadFile(st.app.Files, args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			if name == "" {
				name = filepath.Base(args[0])
			}

			record, err := st.app.File.SignAndStore(ctx, content, name, st.current(ctx))
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed %s as signature %d.\n", record.FileName, record.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "stored file name (defaults to the base name of path)")
	return cmd
}

func newFileVerifyCommand(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <signature-id>",
		Short: "Check a stored file against its signature",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx, err := st.authenticate(cmd, false)
			if err != nil {
				return err
			}

			verdict, err := st.app.File.Verify(ctx, id, st.current(ctx))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signature %d: %s\n", id, verdict)
			if !verdict.Valid() {
				return fmt.Errorf("%w: %s", ErrVerificationFailed, verdict)
			}
			return nil
		},
	}
}

func newFileGetCommand(st *state) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "get <signature-id>",
		Short: "Retrieve a stored file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx, err := st.authenticate(cmd, false)
			if err != nil {
				return err
			}

			rc, record, err := st.app.File.Open(ctx, id, st.current(ctx))
			if err != nil {
				return err
			}
			defer rc.Close()

			if output == "" {
				_, err = io.Copy(cmd.OutOrStdout(), rc)
				return err
			}
			if err := afero.WriteReader(st.app.Files, output, rc); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s to %s.\n", record.FileName, output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (defaults to stdout)")
	return cmd
}

func newFileListCommand(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List signature records, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, err := st.authenticate(cmd, false)
			if err != nil {
				return err
			}

			listings, err := st.app.File.List(ctx)
			if err != nil {
				return err
			}
			if len(listings) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No signed files.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tFILE\tSIGNER\tSTATUS\tCREATED")
			for _, l := range listings {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
					l.ID, l.FileName, l.SignerUsername, l.Status, l.CreatedAt.Local().Format(timeFormat))
			}
			return w.Flush()
		},
	}
}

func newFilePendingCommand(st *state) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List uploads that never completed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, err := st.authenticate(cmd, false)
			if err != nil {
				return err
			}

			records, err := st.app.File.Pending(ctx, olderThan)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No pending uploads.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tFILE\tSIGNER ID\tOPERATION\tCREATED")
			for _, r := range records {
				fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\n",
					r.ID, r.FileName, r.SignerID, r.OperationID, r.CreatedAt.Local().Format(timeFormat))
			}
			return w.Flush()
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 15*time.Minute, "only list records older than this")
	return cmd
}
