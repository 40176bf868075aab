package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"securelink/internal/app"
)

var (
	home       string
	configFile string
	envFile    string
	passphrase string
	relayURL   string
	suite      string
	logLevel   string

	appCtx *app.Wire
)

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := &cobra.Command{
		Use:           "securelink",
		Short:         "Authenticated key exchange and encrypted messaging CLI",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.DefaultConfig()
			if err := cfg.LoadEnv(envFile); err != nil {
				return err
			}
			if home != "" {
				cfg.Home = home
			}
			if err := cfg.Expand(); err != nil {
				return err
			}
			path := configFile
			if path == "" {
				path = filepath.Join(cfg.Home, "config.ini")
			}
			if err := cfg.Load(path); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			// flags win over file and environment
			if home != "" {
				cfg.Home = home
			}
			if relayURL != "" {
				cfg.RelayURL = relayURL
			}
			if suite != "" {
				cfg.Suite = suite
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			if err := cfg.Expand(); err != nil {
				return err
			}
			if err := os.MkdirAll(cfg.Home, 0o700); err != nil {
				return err
			}

			log, err := cfg.Logger(os.Stderr)
			if err != nil {
				return err
			}
			appCtx, err = app.NewWire(cfg, log)
			return err
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "state dir (default ~/.securelink)")
	root.PersistentFlags().StringVar(&configFile, "config", "", "ini config file (default <home>/config.ini)")
	root.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file with SECURELINK_* defaults")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase to protect keys")
	root.PersistentFlags().StringVar(&relayURL, "relay", "", "relay base URL (e.g. http://127.0.0.1:8080)")
	root.PersistentFlags().StringVar(&suite, "suite", "", "key agreement suite (x25519 or x448)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(
		initCmd(),
		fingerprintCmd(),
		registerCmd(),
		sendCmd(),
		chatCmd(),
		listenCmd(),
		inspectCmd(),
	)
	return root.ExecuteContext(ctx)
}

func requirePassphrase() error {
	if passphrase == "" {
		return fmt.Errorf("passphrase required (-p)")
	}
	return nil
}
