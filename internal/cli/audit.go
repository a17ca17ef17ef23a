package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newAuditCommand(st *state) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show the audit history of the current identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, err := st.authenticate(cmd, false)
			if err != nil {
				return err
			}

			if all {
				events, err := st.app.Identity.AuditLog(ctx, st.current(ctx))
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "TIME\tIDENTITY\tACTION\tDETAILS")
				for _, e := range events {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.CreatedAt.Local().Format(timeFormat), actor(e.IdentityID), e.Action, e.Details)
				}
				return w.Flush()
			}

			events, err := st.app.Identity.History(ctx, st.current(ctx).ID)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tACTION\tDETAILS")
			for _, e := range events {
				fmt.Fprintf(w, "%s\t%s\t%s\n", e.CreatedAt.Local().Format(timeFormat), e.Action, e.Details)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "show every identity's events, including failed logins for unknown users (admin only)")
	return cmd
}

func actor(id *int64) string {
	if id == nil {
		return "-"
	}
	return strconv.FormatInt(*id, 10)
}
