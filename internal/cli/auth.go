package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errInvalidCredentials = errors.New("invalid username or password")

func newLoginCommand(st *state) *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate and print a session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := promptPassword(cmd, "Password: ")
			if err != nil {
				return err
			}

			identity, err := st.app.Auth.Authenticate(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			if identity == nil {
				return errInvalidCredentials
			}

			token, err := st.app.Session.Issue(*identity)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			if identity.MustChangePassword {
				fmt.Fprintln(cmd.ErrOrStderr(), "You must change your password before continuing: signvault password change")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "account username")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func newLogoutCommand(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Record the end of the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, err := st.authenticate(cmd, false)
			if err != nil {
				return err
			}
			if err := st.app.Auth.Logout(ctx, st.current(ctx).ID); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func newPasswordCommand(st *state) *cobra.Command {
	password := &cobra.Command{
		Use:   "password",
		Short: "Manage your password",
	}

	password.AddCommand(&cobra.Command{
		Use:   "change",
		Short: "Replace the initial password on first login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, err := st.authenticate(cmd, true)
			if err != nil {
				return err
			}

			newPassword, err := promptPassword(cmd, "New password: ")
			if err != nil {
				return err
			}
			confirm, err := promptPassword(cmd, "Confirm new password: ")
			if err != nil {
				return err
			}
			if newPassword != confirm {
				return errors.New("passwords do not match")
			}

			if err := st.app.Identity.ChangePasswordFirstLogin(ctx, st.current(ctx).ID, newPassword); err != nil {
				return describe(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Password changed.")
			return nil
		},
	})
	return password
}
