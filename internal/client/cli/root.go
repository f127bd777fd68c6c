package cli

import (
	"context"
	"io"
	"os"

	"github.com/dmitrijs2005/carefollow/internal/buildinfo"
	"github.com/dmitrijs2005/carefollow/internal/client/config"
	"github.com/dmitrijs2005/carefollow/internal/logging"
	"github.com/spf13/cobra"
)

// newAppFn builds the App for a command run. Tests swap it.
var newAppFn = NewApp

// Shell opens the current screen and runs the interactive loop.
func (a *App) Shell(ctx context.Context) error {
	a.println("Welcome to CareFollow (type 'help' for commands)")
	_ = a.render(ctx)
	runREPL(ctx, a, a.getStatus, a.reader)
	return nil
}

type runner struct {
	args   []string
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	app *App
}

// Execute runs the carefollow command line. args excludes the program name.
func Execute(ctx context.Context, args []string) error {
	return execute(ctx, args, os.Stdin, os.Stdout, os.Stderr)
}

func execute(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	r := &runner{args: args, in: in, out: out, errOut: errOut}
	defer r.close()

	root := r.command()
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)
	return root.ExecuteContext(ctx)
}

func (r *runner) command() *cobra.Command {
	root := &cobra.Command{
		Use:               "carefollow",
		Short:             "CareFollow terminal client",
		Long:              "Sign in to CareFollow and browse the screens your role allows.",
		SilenceUsage:      true,
		PersistentPreRunE: r.setup,
		RunE:              r.run((*App).Shell),
	}

	pf := root.PersistentFlags()
	pf.StringP("server", "a", "", "backend base URL")
	pf.StringP("config", "c", "", "path to a JSON config file")
	pf.DurationP("timeout", "t", 0, "default request timeout, e.g. 30s")

	root.AddCommand(
		&cobra.Command{
			Use:   "shell",
			Short: "Start the interactive shell",
			Args:  cobra.NoArgs,
			RunE:  r.run((*App).Shell),
		},
		&cobra.Command{
			Use:   "login",
			Short: "Sign in with email and password",
			Args:  cobra.NoArgs,
			RunE:  r.run((*App).Login),
		},
		&cobra.Command{
			Use:   "register",
			Short: "Create an account",
			Args:  cobra.NoArgs,
			RunE:  r.run((*App).Register),
		},
		&cobra.Command{
			Use:   "google",
			Short: "Sign in through the external identity provider",
			Args:  cobra.NoArgs,
			RunE:  r.run((*App).Google),
		},
		&cobra.Command{
			Use:   "callback <url>",
			Short: "Finish an external sign-in from the redirect URL",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return r.app.Callback(cmd.Context(), args[0])
			},
		},
		&cobra.Command{
			Use:   "open <path>",
			Short: "Show a screen, e.g. /dashboard or /patients/<id>",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return r.app.Open(cmd.Context(), args[0])
			},
		},
		&cobra.Command{
			Use:   "whoami",
			Short: "Show the signed-in user",
			Args:  cobra.NoArgs,
			RunE:  r.run((*App).Whoami),
		},
		&cobra.Command{
			Use:   "logout",
			Short: "Sign out",
			Args:  cobra.NoArgs,
			RunE:  r.run((*App).Logout),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print build information",
			Args:  cobra.NoArgs,
			// no session needed
			PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
			Run: func(cmd *cobra.Command, _ []string) {
				buildinfo.PrintBuildData(cmd.OutOrStdout())
			},
		},
	)
	return root
}

// setup loads the configuration and restores the stored session before any
// subcommand runs.
func (r *runner) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(r.args)
	if err != nil {
		return err
	}
	log := logging.NewTextLogger(r.errOut, cfg.LogLevel)

	app, err := newAppFn(cmd.Context(), cfg, log, r.in, r.out)
	if err != nil {
		return err
	}
	r.app = app
	app.Start(cmd.Context())
	return nil
}

func (r *runner) run(fn func(*App, context.Context) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		return fn(r.app, cmd.Context())
	}
}

func (r *runner) close() {
	if r.app != nil {
		_ = r.app.Close()
	}
}
