package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/alekspetrov/robota/internal/command"
	"github.com/alekspetrov/robota/internal/config"
	"github.com/alekspetrov/robota/internal/logging"
	"github.com/alekspetrov/robota/internal/repl"
	"github.com/alekspetrov/robota/internal/ui"
)

var version = "0.1.0"

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes robota with args and returns the process exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	code := command.ExitOK
	root := newRootCmd(stdin, stdout, stderr, &code)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return command.ExitUnexpected
	}
	return code
}

type rootOptions struct {
	envFile    string
	configPath string
	logLevel   string
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer, code *int) *cobra.Command {
	var opts rootOptions

	cmd := &cobra.Command{
		Use:   "robota [command] [args...]",
		Short: "Ticket-driven developer workflow",
		Long: `robota starts work on a Jira story (clones the repositories, creates the
branch, opens the editor) and closes the loop (commits, pushes, opens the pull
request and moves the story along).

Without a command, or with "repl", an interactive prompt is started.
Run "robota help" for the list of commands.`,
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if err := logging.Init(cfg.Preferences.Logging); err != nil {
				return fmt.Errorf("failed to initialize logging: %w", err)
			}
			defer func() { _ = logging.Close() }()

			logging.Debug("configuration loaded", "checkout_dir", cfg.Env.CheckoutDir, "branch_prefix", cfg.Preferences.BranchPrefix)

			console := ui.NewConsole(stdin, stdout, stderr)
			a, err := newApp(cfg, console)
			if err != nil {
				return err
			}
			logging.Info("robota started",
				"version", version,
				"args", args,
				"interactive", console.Interactive(),
				"color", console.Color(),
				"state", a.store.Path(),
			)

			if len(args) == 0 || (len(args) == 1 && args[0] == "repl") {
				loop := repl.New(a.dispatcher, console.In, console.Out)
				if err := loop.Run(cmd.Context()); err != nil {
					logging.Error("prompt stopped", "error", err)
					*code = command.ExitUnexpected
				}
				return nil
			}

			if dir := os.Getenv("ROBOTA_CODE_DIR"); dir != "" {
				if err := os.Chdir(dir); err != nil {
					logging.Warn("cannot change to ROBOTA_CODE_DIR", "dir", dir, "error", err)
					console.Warnf("cannot change to ROBOTA_CODE_DIR: %v", err)
				}
			}
			*code = a.dispatcher.Run(cmd.Context(), args[0], args[1:])
			return nil
		},
	}

	// everything after the command name belongs to the dispatcher
	cmd.Flags().SetInterspersed(false)
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "path of the .env file (default $ROBOTA_CODE_DIR/.env or ./.env)")
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path of the preferences file (default ~/.robota/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")

	return cmd
}

func loadConfig(opts rootOptions) (*config.Config, error) {
	envFile := opts.envFile
	if envFile == "" {
		envFile = config.DefaultEnvFile()
	}
	prefsPath := opts.configPath
	if prefsPath == "" {
		prefsPath = config.DefaultPreferencesPath()
	}

	cfg, err := config.Load(envFile, prefsPath)
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		if cfg.Preferences.Logging == nil {
			cfg.Preferences.Logging = logging.DefaultConfig()
		}
		cfg.Preferences.Logging.Level = opts.logLevel
	}
	return cfg, nil
}
