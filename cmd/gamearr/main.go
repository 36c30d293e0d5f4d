// Copyright (c) 2025, ForbesGRyan and the gamearr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ForbesGRyan/gamearr-sub004/internal/api"
	"github.com/ForbesGRyan/gamearr-sub004/internal/buildinfo"
	"github.com/ForbesGRyan/gamearr-sub004/internal/config"
	"github.com/ForbesGRyan/gamearr-sub004/internal/database"
	"github.com/ForbesGRyan/gamearr-sub004/internal/domain"
	"github.com/ForbesGRyan/gamearr-sub004/internal/downloads"
	"github.com/ForbesGRyan/gamearr-sub004/internal/indexer"
	"github.com/ForbesGRyan/gamearr-sub004/internal/metadata"
	"github.com/ForbesGRyan/gamearr-sub004/internal/metrics"
	"github.com/ForbesGRyan/gamearr-sub004/internal/models"
	"github.com/ForbesGRyan/gamearr-sub004/internal/scheduler"
	"github.com/ForbesGRyan/gamearr-sub004/internal/services/autograb"
)

func main() {
	config.InitDefaultLogger(buildinfo.Version)

	var rootCmd = &cobra.Command{
		Use:   "gamearr",
		Short: "A self-hosted game library manager",
		Long: `gamearr - A self-hosted release intelligence engine that tracks
wanted game titles, watches Torznab release feeds, and automatically grabs
qualifying releases through qBittorrent.`,
	}

	rootCmd.Version = buildinfo.Version

	rootCmd.AddCommand(RunServeCommand())
	rootCmd.AddCommand(RunVersionCommand(buildinfo.Version))
	rootCmd.AddCommand(RunGenerateConfigCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func RunServeCommand() *cobra.Command {
	var (
		configDir string
		dataDir   string
		logPath   string
		pprofFlag bool
	)

	var command = &cobra.Command{
		Use:   "serve",
		Short: "Start the server",
	}

	command.Flags().StringVar(&configDir, "config-dir", "", "config directory path (default is OS-specific: ~/.config/gamearr/ or %APPDATA%\\gamearr\\). Can also be a direct path to a .toml file")
	command.Flags().StringVar(&dataDir, "data-dir", "", "data directory for database and other files (default is next to config file)")
	command.Flags().StringVar(&logPath, "log-path", "", "log file path (default is stdout)")
	command.Flags().BoolVar(&pprofFlag, "pprof", false, "enable pprof server on :6060")

	command.Run = func(cmd *cobra.Command, args []string) {
		app := NewApplication(configDir, dataDir, logPath, pprofFlag)
		app.runServer()
	}

	return command
}

func RunVersionCommand(version string) *cobra.Command {
	var command = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of gamearr",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}

	return command
}

func RunGenerateConfigCommand() *cobra.Command {
	var configDir string

	command := &cobra.Command{
		Use:   "generate-config",
		Short: "Generate a default configuration file",
		Long: `Generate a default configuration file without starting the server.

If no --config-dir is specified, uses the OS-specific default location:
- Linux/macOS: ~/.config/gamearr/config.toml
- Windows: %APPDATA%\gamearr\config.toml

You can specify either a directory path or a direct file path:
- Directory: gamearr generate-config --config-dir /path/to/config/
- File: gamearr generate-config --config-dir /path/to/myconfig.toml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var configPath string
			if configDir != "" {
				if strings.HasSuffix(strings.ToLower(configDir), ".toml") {
					configPath = configDir
				} else if info, err := os.Stat(configDir); err == nil && !info.IsDir() {
					configPath = configDir
				} else {
					configPath = filepath.Join(configDir, "config.toml")
				}
			} else {
				defaultDir := config.GetDefaultConfigDir()
				configPath = filepath.Join(defaultDir, "config.toml")
			}

			if _, err := os.Stat(configPath); err == nil {
				cmd.Printf("Configuration file already exists at: %s\n", configPath)
				cmd.Println("Skipping generation to avoid overwriting existing configuration.")
				return nil
			}

			if err := config.WriteDefaultConfig(configPath); err != nil {
				return fmt.Errorf("failed to create configuration file: %w", err)
			}

			cmd.Printf("Configuration file created successfully at: %s\n", configPath)
			return nil
		},
	}

	command.Flags().StringVar(&configDir, "config-dir", "",
		"config directory or file path (defaults to OS-specific location)")

	return command
}

type Application struct {
	configDir string
	dataDir   string
	logPath   string
	pprofFlag bool
}

func NewApplication(configDir, dataDir, logPath string, pprofFlag bool) *Application {
	return &Application{
		configDir: configDir,
		dataDir:   dataDir,
		logPath:   logPath,
		pprofFlag: pprofFlag,
	}
}

func (app *Application) runServer() {
	// CLI flags override config and environment, set them before loading
	if app.dataDir != "" {
		os.Setenv("GAMEARR__DATA_DIR", app.dataDir)
	}
	if app.logPath != "" {
		os.Setenv("GAMEARR__LOG_PATH", app.logPath)
	}

	cfg, err := config.New(app.configDir, buildinfo.Version)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize configuration")
	}

	if app.pprofFlag {
		cfg.Config.PprofEnabled = true
	}

	cfg.ApplyLogConfig()

	log.Info().Str("version", buildinfo.Version).Msg("Starting gamearr")

	db, err := database.New(cfg.GetDatabasePath())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	gameStore := models.NewGameStore(db.Conn())
	grabHistory := models.NewGrabHistoryStore(db.Conn())

	feedClient := indexer.NewClient(cfg.Config.IndexerURL, cfg.Config.IndexerAPIKey, cfg.Config.IndexerTimeoutSeconds)
	downloadClient := downloads.NewClient(
		cfg.Config.QbittorrentHost,
		cfg.Config.QbittorrentUsername,
		cfg.Config.QbittorrentPassword,
		cfg.Config.QbittorrentCategory,
	)
	metadataClient := metadata.NewClient(cfg.Config.MetadataURL, cfg.Config.MetadataAPIKey)

	if !feedClient.Configured() {
		log.Warn().Msg("No indexer configured, feed sync and update check will not run")
	}
	if !downloadClient.Configured() {
		log.Warn().Msg("No download client configured, grabs will fail")
	}

	autograbService := autograb.NewService(
		func() domain.Config { return *cfg.Config },
		gameStore,
		grabHistory,
		feedClient,
		downloadClient,
		metadataClient,
	)

	sched := scheduler.New()
	if err := autograbService.Register(sched); err != nil {
		log.Fatal().Err(err).Msg("Failed to register jobs")
	}

	// Config file edits reschedule jobs without a restart
	cfg.RegisterReloadListener(func(conf *domain.Config) {
		autograbService.ApplyConfig(sched, conf)
	})

	sched.Start()
	defer sched.Stop()

	httpServer := api.NewServer(&api.Dependencies{
		Config:      cfg,
		Version:     buildinfo.Version,
		GameStore:   gameStore,
		GrabHistory: grabHistory,
		Scheduler:   sched,
	})

	errorChannel := make(chan error)
	serverReady := make(chan struct{}, 1)
	go func() {
		if err := httpServer.ListenAndServeReady(serverReady); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errorChannel <- err
		}
	}()

	select {
	case <-serverReady:
	case err := <-errorChannel:
		log.Fatal().Err(err).Msg("failed to start HTTP server")
	}

	var metricsServer *metrics.Server
	if cfg.Config.MetricsEnabled {
		metricsServer = metrics.NewServer(cfg.Config.MetricsHost, cfg.Config.MetricsPort)
		metricsServer.Start()
	}

	if cfg.Config.PprofEnabled {
		go func() {
			log.Info().Msg("Starting pprof server on :6060")
			log.Info().Msg("Access profiling at: http://localhost:6060/debug/pprof/")
			if err := http.ListenAndServe(":6060", nil); err != nil {
				log.Error().Err(err).Msg("Profiling server failed")
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Msgf("got signal %v, shutting down server", sig.String())
	case err := <-errorChannel:
		log.Error().Err(err).Msg("got unexpected error from server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if metricsServer != nil {
		if err := metricsServer.Stop(ctx); err != nil {
			log.Error().Err(err).Msg("got error during metrics server shutdown")
		}
	}

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("got error during graceful http shutdown")
		os.Exit(1)
	}
}
