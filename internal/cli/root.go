// Package cli implements the signvault command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dtroode/signvault/internal/logger"
	"github.com/dtroode/signvault/internal/model"
	"github.com/dtroode/signvault/internal/service"
)

// TokenEnv names the environment variable read when --token is not given.
const TokenEnv = "SIGNVAULT_TOKEN"

// ErrPasswordChangeRequired is returned when a flagged identity runs anything
// other than password change.
var ErrPasswordChangeRequired = errors.New("password change required: run 'signvault password change' first")

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// App holds the services a command runs against.
type App struct {
	Identity *service.Identity
	Auth     *service.Auth
	File     *service.File
	Session  *service.Session
	Contexts model.ContextManager
	// Files is where local input and output files are read and written.
	Files  afero.Fs
	Logger *logger.Logger

	close func() error
}

// Close releases the record store.
func (a *App) Close() error {
	if a.close == nil {
		return nil
	}
	return a.close()
}

// Builder assembles an App for one invocation.
type Builder func(ctx context.Context) (*App, error)

type state struct {
	build Builder
	app   *App
	token string
}

// Execute runs the signvault command tree with the process arguments and
// closes the App afterwards, whether or not the command failed.
func Execute(ctx context.Context, build Builder, version string) error {
	st := &state{build: build}
	return st.execute(ctx, newRootCommand(st, version))
}

func (st *state) execute(ctx context.Context, root *cobra.Command) error {
	err := root.ExecuteContext(ctx)
	if st.app == nil {
		return err
	}
	if cerr := st.app.Close(); cerr != nil {
		return errors.Join(err, fmt.Errorf("failed to close record store: %w", cerr))
	}
	return err
}

// newRootCommand returns the command tree. The App is built before any
// subcommand runs.
func newRootCommand(st *state, version string) *cobra.Command {
	root := &cobra.Command{
		Use:           "signvault",
		Short:         "Sign uploaded files and verify their integrity",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			app, err := st.build(cmd.Context())
			if err != nil {
				return err
			}
			st.app = app
			app.Logger.Debug("command started", "command", cmd.CommandPath())
			return nil
		},
	}
	root.PersistentFlags().StringVar(&st.token, "token", "", "session token (defaults to $"+TokenEnv+")")

	root.AddCommand(
		newLoginCommand(st),
		newLogoutCommand(st),
		newPasswordCommand(st),
		newAccountCommand(st),
		newFileCommand(st),
		newAuditCommand(st),
	)
	return root
}

func (st *state) sessionToken() string {
	if st.token != "" {
		return st.token
	}
	return os.Getenv(TokenEnv)
}

// authenticate resolves the session token and returns a context carrying the
// identity. Unless allowPending is set, identities that must change their
// password are refused.
func (st *state) authenticate(cmd *cobra.Command, allowPending bool) (context.Context, error) {
	identity, err := st.app.Session.Resolve(cmd.Context(), st.sessionToken())
	if err != nil {
		return nil, fmt.Errorf("not logged in: %w", err)
	}
	if identity.MustChangePassword && !allowPending {
		return nil, ErrPasswordChangeRequired
	}
	return st.app.Contexts.SetIdentityToContext(cmd.Context(), identity), nil
}

func (st *state) current(ctx context.Context) model.Identity {
	identity, _ := st.app.Contexts.GetIdentityFromContext(ctx)
	return identity
}

func promptPassword(cmd *cobra.Command, prompt string) (string, error) {
	w := cmd.ErrOrStderr()
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return "", err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(pw), nil
}

// rejection renders a validation failure as the list of its reasons.
type rejection struct {
	*model.ValidationError
}

func (r rejection) Error() string {
	return "rejected: " + strings.Join(r.Reasons, "; ")
}

func (r rejection) Unwrap() error {
	return r.ValidationError
}

func describe(err error) error {
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		return rejection{verr}
	}
	return err
}
