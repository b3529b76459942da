package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/marcus/vcpull/internal/apiclient"
	"github.com/marcus/vcpull/internal/envfile"
	"github.com/marcus/vcpull/internal/globalconfig"
	"github.com/marcus/vcpull/internal/output"
	"github.com/marcus/vcpull/internal/projectlink"
	"github.com/marcus/vcpull/internal/pull"
	"github.com/marcus/vcpull/internal/setup"
	"github.com/marcus/vcpull/internal/suggest"
	"github.com/marcus/vcpull/internal/workdir"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var version string

var errNotLoggedIn = errors.New("not logged in: run 'vcpull auth login' or set VCPULL_TOKEN")

// SetVersion sets the version string
func SetVersion(v string) {
	version = v
}

// ExitError makes a command exit with Code instead of the default 1.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

func exitCode(code int) error {
	if code == 0 {
		return nil
	}
	return &ExitError{Code: code}
}

// app carries the writers every command prints to.
type app struct {
	stdout io.Writer
	stderr io.Writer
	out    *output.Printer
	errOut *output.Printer
	debug  bool
}

// pullFlags are shared by the root pull command and link.
type pullFlags struct {
	yes bool
	env string
}

func (f *pullFlags) register(fs *pflag.FlagSet, withEnv bool) {
	fs.BoolVarP(&f.yes, "yes", "y", false, "skip questions and use defaults when linking")
	if withEnv {
		fs.StringVar(&f.env, "env", pull.DefaultEnvFileRoot, "base name of the environment files to write")
	}
}

func newRootCmd(a *app) *cobra.Command {
	var flags pullFlags

	root := &cobra.Command{
		Use:   "vcpull [path]",
		Short: "Pull project settings and environment variables",
		Long: `vcpull links a directory to a project and downloads its environment variables
for every target into .env and .vercel/.env.<target>.local, then caches the
project settings in .vercel/project.json.`,
		Args:          cobra.MaximumNArgs(1),
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(a.stderr, a.debug || globalconfig.GetDebug())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPull(cmd.Context(), args, flags)
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.SetFlagErrorFunc(flagError)

	flags.register(root.Flags(), true)
	root.PersistentFlags().BoolVarP(&a.debug, "debug", "d", false, "print debug logs to stderr")

	root.AddCommand(
		newAuthCmd(a),
		newLinkCmd(a),
		newUnlinkCmd(a),
		newSwitchCmd(a),
		newVersionCmd(a),
	)
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	return run(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr, out: output.New(stdout), errOut: output.New(stderr)}
	root := newRootCmd(a)
	root.SetArgs(args)

	helpShown := false
	defaultHelp := root.HelpFunc()
	root.SetHelpFunc(func(c *cobra.Command, args []string) {
		helpShown = true
		defaultHelp(c, args)
	})

	err := root.ExecuteContext(ctx)
	if helpShown {
		return 2
	}
	if err == nil {
		return 0
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	a.errOut.Error("%v", err)
	return 1
}

// flagError adds "did you mean" suggestions and usage advice to flag errors.
func flagError(c *cobra.Command, err error) error {
	msg := err.Error()
	name, ok := strings.CutPrefix(msg, "unknown flag: ")
	if !ok {
		return fmt.Errorf("%w\nRun '%s --help' for usage.", err, c.CommandPath())
	}

	if hint := suggest.Hint(name); hint != "" {
		return fmt.Errorf("%w\nHint: %s", err, hint)
	}
	var valid []string
	c.Flags().VisitAll(func(f *pflag.Flag) {
		if !f.Hidden {
			valid = append(valid, "--"+f.Name)
		}
	})
	if matches := suggest.Flag(name, valid); len(matches) > 0 {
		return fmt.Errorf("%w\nDid you mean %s?", err, strings.Join(matches, " or "))
	}
	return fmt.Errorf("%w\nRun '%s --help' for usage.", err, c.CommandPath())
}

func setupLogging(w io.Writer, debug bool) {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// resolveDir turns the optional path argument into an absolute directory.
func resolveDir(args []string) (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("cannot determine working directory: %w", err)
	}
	var arg string
	if len(args) > 0 {
		arg = args[0]
	}
	return workdir.Resolve(cwd, arg)
}

// checkEnvFileRoot rejects --env values that cannot name a file in the
// project directory.
func checkEnvFileRoot(name string) error {
	if strings.TrimSpace(name) == "" || filepath.Base(name) != name || name == "." || name == ".." {
		return fmt.Errorf("invalid --env %q: must be a file name", name)
	}
	return nil
}

// authedClient returns an API client for the stored or environment token.
func (a *app) authedClient() (*apiclient.Client, error) {
	if !globalconfig.IsAuthenticated() {
		return nil, errNotLoggedIn
	}
	return apiclient.New(globalconfig.GetAPIURL(), globalconfig.GetToken()), nil
}

func (a *app) resolver(client *apiclient.Client) *pull.Resolver {
	orgID, projectID := globalconfig.LinkOverride()
	return &pull.Resolver{
		Lookup: &projectlink.Lookup{
			Client:       client,
			Out:          a.out,
			EnvOrgID:     orgID,
			EnvProjectID: projectID,
		},
		Setup: &setup.Flow{
			Client:      client,
			Out:         a.out,
			Prompt:      setup.HuhPrompter{},
			DefaultTeam: globalconfig.GetCurrentTeam(),
		},
		SuccessEmoji: output.EmojiLink,
		SetupMsg:     "Linked to",
	}
}

func (a *app) runPull(ctx context.Context, args []string, flags pullFlags) error {
	dir, err := resolveDir(args)
	if err != nil {
		return err
	}
	if err := checkEnvFileRoot(flags.env); err != nil {
		return err
	}

	client, err := a.authedClient()
	if err != nil {
		return err
	}

	p := &pull.Puller{
		Resolver:   a.resolver(client),
		Downloader: envfile.NewDownloader(client, a.out, dir),
		Persister:  projectlink.Persister{},
		Out:        a.out,
	}
	return exitCode(p.Run(ctx, pull.Options{
		Dir:         dir,
		EnvFileRoot: flags.env,
		AutoConfirm: flags.yes,
		Args:        args,
	}))
}
