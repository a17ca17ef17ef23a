package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dtroode/signvault/internal/model"
)

func newAccountCommand(st *state) *cobra.Command {
	account := &cobra.Command{
		Use:   "account",
		Short: "Manage accounts",
	}

	var (
		params       model.CreateAccountParams
		confirmAdmin bool
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an account that must change its password on first login",
		Long: `Create a new account. Without a session token the account is self-registered.
An administrator creating an account must pass --confirm-admin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if st.sessionToken() != "" {
				var err error
				if ctx, err = st.authenticate(cmd, false); err != nil {
					return err
				}
				performer := st.current(ctx).ID
				params.PerformedBy = &performer
			}
			params.AdminDoubleConfirmed = confirmAdmin

			var err error
			if params.Password, err = promptPassword(cmd, "Password: "); err != nil {
				return err
			}
			if params.ConfirmPassword, err = promptPassword(cmd, "Confirm password: "); err != nil {
				return err
			}

			identity, err := st.app.Identity.CreateAccount(ctx, params)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created account %s (id %d).\n", identity.Username, identity.ID)
			return nil
		},
	}
	create.Flags().StringVarP(&params.Username, "username", "u", "", "username of the new account")
	create.Flags().StringVar(&params.FirstName, "first", "", "first name")
	create.Flags().StringVar(&params.LastName, "last", "", "last name")
	create.Flags().BoolVar(&confirmAdmin, "confirm-admin", false, "confirm account creation as administrator")
	_ = create.MarkFlagRequired("username")

	account.AddCommand(create)
	return account
}
