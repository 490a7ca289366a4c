package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/indieinfra/hydrogen/config"
	"github.com/indieinfra/hydrogen/install"
	"github.com/indieinfra/hydrogen/logging"
	"github.com/indieinfra/hydrogen/server"
	"github.com/indieinfra/hydrogen/storage/media"
)

var version = "dev"

type globalFlags struct {
	configFile string
	envFile    string
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func execute(args []string, in io.Reader, out, errOut io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(errOut, "hydrogen: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "hydrogen",
		Short: "Upload media to a Shopify store and keep their public URLs in sync",
		Long: `hydrogen stores uploaded media files in a Shopify store's file storage and
records them locally. A background job resolves each file's public URL once
the platform has finished processing it.

Examples:
  hydrogen install
  hydrogen serve --config /etc/hydrogen.yml
  hydrogen upload cat.png
  hydrogen sync`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.configFile, "config", "config.yml", "Path to the configuration file (i.e., /etc/hydrogen.yml)")
	root.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "Path to an env file with platform credentials; skipped when missing")

	root.AddCommand(newServeCmd(flags))
	root.AddCommand(newSyncCmd(flags))
	root.AddCommand(newUploadCmd(flags))
	root.AddCommand(newInstallCmd(flags))

	return root
}

// load reads the env file (when present) and the configuration, then builds the logger.
func (f *globalFlags) load() (*config.Config, zerolog.Logger, error) {
	if strings.TrimSpace(f.configFile) == "" {
		return nil, zerolog.Nop(), errors.New("failed to load configuration: --config is required")
	}

	if f.envFile != "" {
		if _, err := os.Stat(f.envFile); err == nil {
			if err := godotenv.Load(f.envFile); err != nil {
				return nil, zerolog.Nop(), fmt.Errorf("failed to load env file %s: %w", f.envFile, err)
			}
		}
	}

	cfg, err := config.LoadConfig(f.configFile)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to configure logging: %w", err)
	}

	if cfg.Debug {
		logger.Warn().Msg("debug mode is enabled")
	}

	return cfg, logger, nil
}

func newServeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and run the scheduled URL sync",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := flags.load()
			if err != nil {
				return err
			}

			logger.Info().Str("version", version).Msg("starting http server")
			return server.StartServer(cfg, logger)
		},
	}
}

func newSyncCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Resolve the public URLs of pending media once and print the report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := flags.load()
			if err != nil {
				return err
			}

			app, err := server.Bootstrap(cfg, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, cfg.Sync.Timeout)
			defer cancel()

			report, err := app.State.Job.Run(ctx)
			if err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
}

func newUploadCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload local files and record them as pending media",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := flags.load()
			if err != nil {
				return err
			}

			app, err := server.Bootstrap(cfg, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			for _, path := range args {
				rec, err := uploadOne(ctx, app, path)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n", rec.ID, rec.Filename, *rec.ExternalID)
			}
			return nil
		},
	}
}

func uploadOne(ctx context.Context, app *server.App, path string) (*media.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	st := app.State
	name := filepath.Base(path)

	handle, err := st.Remote.Write(ctx, name, f)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", path, err)
	}

	rec := &media.Record{
		Filename:    name,
		ContentType: st.Remote.MimeType(name),
		ExternalID:  media.StringPtr(handle.String()),
	}
	if err := st.MediaStore.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("record %s: %w", path, err)
	}

	return rec, nil
}

func newInstallCmd(flags *globalFlags) *cobra.Command {
	var htaccess string

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Interactively write the env file and configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.NewWithWriter(cmd.ErrOrStderr(), "info", "console")
			if err != nil {
				return err
			}

			installer := &install.Installer{
				Prompter:     install.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout()),
				Out:          cmd.OutOrStdout(),
				EnvFile:      flags.envFile,
				ConfigFile:   flags.configFile,
				HtaccessFile: htaccess,
				Logger:       logger,
			}
			return installer.Run()
		},
	}

	cmd.Flags().StringVar(&htaccess, "htaccess", "", "Path to the web server's .htaccess file to add a noindex header to")

	return cmd
}
