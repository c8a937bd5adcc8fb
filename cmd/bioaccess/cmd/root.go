package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/analuiza2102/bioaccess/capture"
	"github.com/analuiza2102/bioaccess/client"
	"github.com/analuiza2102/bioaccess/internal/config"
	"github.com/analuiza2102/bioaccess/internal/logger"
	"github.com/analuiza2102/bioaccess/session"
	bboltstorage "github.com/analuiza2102/bioaccess/storage/bbolt"
)

var (
	cfg      *config.Config
	log      zerolog.Logger
	sessions *session.Store
	api      *client.Client
	store    *bboltstorage.Store
)

var rootCmd = &cobra.Command{
	Use:   "bioaccess",
	Short: "BioAccess is a facial-biometric access client",
	Long: `A client for the BioAccess facial-biometric authority: enroll faces,
verify identity, read clearance-gated data levels and inspect access audits.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cmd.Context())
		if err != nil {
			return err
		}
		log = logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

		if err := os.MkdirAll(filepath.Dir(cfg.StatePath), 0o700); err != nil {
			return fmt.Errorf("creating state directory: %w", err)
		}
		store, err = bboltstorage.Open(cfg.StatePath, nil)
		if err != nil {
			return fmt.Errorf("opening state file: %w", err)
		}

		sessions = session.New(store, log)
		sessions.Initialize()

		api, err = client.New(cfg.APIBaseURL,
			client.WithSessionStore(sessions),
			client.WithLogger(log))
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if store != nil {
			store.Close()
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// cameraDevice returns the configured capture backend. Without a configured
// frame directory there is no camera on this platform.
func cameraDevice() capture.Device {
	if cfg.CameraDir != "" {
		return capture.NewFileDevice(cfg.CameraDir)
	}
	return capture.Unsupported()
}
