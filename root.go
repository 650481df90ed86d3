package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/gdrive-go/internal/config"
)

// version is set at build time via ldflags.
var version = "dev"

// Global persistent flags, bound in newRootCmd().
var (
	flagConfigPath string
	flagEnvFile    string
	flagAllDrives  bool
	flagJSON       bool
	flagVerbose    bool
	flagQuiet      bool
)

// CLIFlags are the output-shaping global flags.
type CLIFlags struct {
	JSON  bool
	Quiet bool
}

// CLIContext is built once by the root pre-run and handed to every
// subcommand through cmd.Context().
type CLIContext struct {
	Cfg    *config.Config
	Logger *slog.Logger
	Flags  CLIFlags
}

type cliContextKey struct{}

func withCLIContext(ctx context.Context, cc *CLIContext) context.Context {
	return context.WithValue(ctx, cliContextKey{}, cc)
}

// mustCLIContext returns the CLIContext stored by the root pre-run. A
// missing context is a programming error.
func mustCLIContext(ctx context.Context) *CLIContext {
	cc, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok {
		panic("gdrive-go: command context missing CLIContext")
	}

	return cc
}

// offlineCommands never touch the network or the OAuth settings, so a
// broken config file must not stop them.
var offlineCommands = map[string]bool{
	"gdrive-go export-info":             true,
	"gdrive-go handshake encode open":   true,
	"gdrive-go handshake encode create": true,
	"gdrive-go handshake decode":        true,
	"gdrive-go whoami":                  true,
	"gdrive-go logout":                  true,
	"gdrive-go config path":             true,
}

// newRootCmd builds and returns the fully-assembled root command with all
// subcommands registered.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "gdrive-go",
		Short:   "Google Drive client",
		Long:    "Sign in, browse, pick, download, export and upload Google Drive files.",
		Version: version,
		// Silence Cobra's default error/usage printing; main handles it.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cc, err := buildCLIContext(cmd)
			if err != nil {
				return err
			}

			cmd.SetContext(withCLIContext(cmd.Context(), cc))

			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", "", "load KEY=VALUE settings from this file (default ./.env)")
	cmd.PersistentFlags().BoolVar(&flagAllDrives, "all-drives", false, "include shared drives")
	cmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output in JSON format")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress informational output")

	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newLogoutCmd())
	cmd.AddCommand(newWhoamiCmd())
	cmd.AddCommand(newLsCmd())
	cmd.AddCommand(newStatCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newCatCmd())
	cmd.AddCommand(newPutCmd())
	cmd.AddCommand(newPickCmd())
	cmd.AddCommand(newExportInfoCmd())
	cmd.AddCommand(newHandshakeCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// buildCLIContext resolves the effective configuration from the override
// chain: defaults -> config file -> .env -> environment -> flags.
func buildCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	flags := CLIFlags{JSON: flagJSON, Quiet: flagQuiet}

	if offlineCommands[cmd.CommandPath()] {
		cfg := config.DefaultConfig()

		return &CLIContext{Cfg: cfg, Logger: buildLogger(cfg), Flags: flags}, nil
	}

	if err := config.LoadDotEnv(flagEnvFile); err != nil {
		return nil, err
	}

	cli := config.CLIOverrides{ConfigPath: flagConfigPath}

	// Only pass --all-drives when explicitly set so the file/env value
	// survives an absent flag.
	if cmd.Flags().Changed("all-drives") {
		v := flagAllDrives
		cli.SupportAllDrives = &v
	}

	cfg, err := config.Resolve(config.ReadEnvOverrides(), cli)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	return &CLIContext{Cfg: cfg, Logger: buildLogger(cfg), Flags: flags}, nil
}

// buildLogger creates an slog.Logger configured by the resolved config and
// CLI flags. Config-file log level provides the baseline; --verbose and
// --quiet override it because CLI flags always win.
func buildLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo

	if cfg != nil {
		switch cfg.Logging.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}

	if flagVerbose {
		level = slog.LevelDebug
	}

	if flagQuiet {
		level = slog.LevelError
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newHTTPClient returns an HTTP client whose requests fail when the server
// sends no response headers within the configured timeout. Bodies are not
// bounded so large downloads can finish.
func newHTTPClient(cfg *config.Config) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = cfg.Network.TimeoutDuration()

	return &http.Client{Transport: transport}
}

// exitOnError prints a user-friendly error message to stderr and exits.
func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
