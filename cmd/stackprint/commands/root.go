package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/kavinsood/stackprint/internal/config"
	"github.com/kavinsood/stackprint/internal/logging"
	"github.com/kavinsood/stackprint/internal/render"
	"github.com/kavinsood/stackprint/stackprint"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const cliExecutable = "stackprint"

// runtime is the state shared by every subcommand once flags are parsed.
type runtime struct {
	configFile string
	noColor    bool

	cfg    config.Config
	client *stackprint.Client
}

// exitError carries a process exit code. Reported errors were already
// printed by the command and are not printed again.
type exitError struct {
	code     int
	err      error
	reported bool
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

// NewCommand constructs the top-level stackprint command.
func NewCommand() *cobra.Command {
	rt := &runtime{}

	cmd := &cobra.Command{
		Use:   cliExecutable,
		Short: "Fingerprint the technology stack of web servers",
		Long: `stackprint sends one GET request per URL and reports the backend platform,
JavaScript frameworks and libraries, WordPress theme and security headers it can infer.

Run without a subcommand to start the interactive prompt.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rt.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd, rt)
		},
	}

	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	cmd.PersistentFlags().StringVarP(&rt.configFile, "config", "c", "", "Configuration file path")
	cmd.PersistentFlags().BoolVar(&rt.noColor, "no-color", false, "Disable colored output")
	config.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(newScanCommand(rt))
	cmd.AddCommand(newInteractiveCommand(rt))
	cmd.AddCommand(newServeCommand(rt))
	cmd.AddCommand(newSignaturesCommand(rt))

	return cmd
}

func (rt *runtime) setup(cmd *cobra.Command) error {
	mgr := config.NewManager()
	if err := mgr.Load(cmd.Flags(), rt.configFile); err != nil {
		return &exitError{code: 2, err: fmt.Errorf("load configuration: %w", err)}
	}
	rt.cfg = mgr.Get()

	if err := logging.ConfigureGlobalLogging(rt.cfg.Log.Level, rt.cfg.Log.Format); err != nil {
		return &exitError{code: 2, err: err}
	}

	client, err := rt.newClient(stackprint.NewFetcher(rt.cfg.FetchOptions(), log.Logger))
	if err != nil {
		return &exitError{code: 2, err: err}
	}
	rt.client = client

	log.Debug().
		Str("signatures", rt.cfg.Signatures.File).
		Int("rules", rt.client.Catalog().RuleCount()).
		Dur("timeout", rt.cfg.HTTP.Timeout).
		Bool("dns_preflight", rt.cfg.HTTP.DNSPreflight).
		Msg("configuration loaded")
	return nil
}

// newClient builds a client around fetcher using the configured catalog.
func (rt *runtime) newClient(fetcher *stackprint.Fetcher) (*stackprint.Client, error) {
	opts := []stackprint.Option{
		stackprint.WithLogger(log.Logger),
		stackprint.WithFetcher(fetcher),
	}
	path := rt.cfg.Signatures.File
	if path == "" {
		return stackprint.New(opts...), nil
	}
	client, err := stackprint.NewFromFile(path, opts...)
	if err != nil {
		return nil, fmt.Errorf("load signatures: %w", err)
	}
	return client, nil
}

// printer builds a result printer for the command's stdout. Color is used
// only when writing to a terminal.
func (rt *runtime) printer(cmd *cobra.Command, mode render.Mode) *render.Printer {
	out := cmd.OutOrStdout()
	useColor := !rt.noColor && !color.NoColor && out == io.Writer(os.Stdout)
	return render.New(out, mode, useColor)
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd := NewCommand()
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var ee *exitError
	if errors.As(err, &ee) {
		if !ee.reported {
			fmt.Fprintln(stderr, "Error:", ee.Error())
		}
		return ee.code
	}
	fmt.Fprintln(stderr, "Error:", err)
	return stackprint.ExitCode(err)
}
