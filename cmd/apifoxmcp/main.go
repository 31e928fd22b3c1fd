package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/localrivet/apifoxmcp"
	"github.com/localrivet/apifoxmcp/internal/config"
	"github.com/localrivet/apifoxmcp/internal/errortypes"
	"github.com/localrivet/apifoxmcp/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "apifoxmcp",
	Short: "MCP tool server for managing an Apifox project",
	Long: `apifoxmcp serves Apifox API-management tools over MCP stdio.

Credentials come from APIFOX_TOKEN and APIFOX_PROJECT_ID, a .env file or
the .apifoxmcpconfig JSON file. Without a subcommand the server is started.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

var configPath string

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "Path to the JSON config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setupLogging configures the application logger from the config. Library
// packages log through slog, so the default slog logger is replaced too.
func setupLogging(cfg *config.Config) *logger.Logger {
	logCfg := logger.DefaultConfig()
	logCfg.Level = logger.ParseLevel(cfg.Logging.Level)
	logCfg.Format = logger.ParseFormat(cfg.Logging.Format)

	appLogger := logger.New(logCfg)
	logger.SetDefaultLogger(appLogger)
	slog.SetDefault(appLogger.Slog())
	return appLogger
}

// newServer loads the configuration and builds the service.
func newServer() (*apifoxmcp.Server, *logger.Logger, error) {
	cfg, err := config.LoadConfigWithPath(configPath)
	if err != nil {
		return nil, nil, errortypes.ConfigError(err, "failed to load configuration")
	}
	appLogger := setupLogging(cfg)

	srv, err := apifoxmcp.NewServer(apifoxmcp.ServerOptions{
		Config: cfg,
		Logger: appLogger.WithContext("service").Slog(),
	})
	if err != nil {
		return nil, appLogger, err
	}
	return srv, appLogger, nil
}

// setupSignalHandler stops the service on SIGINT or SIGTERM
func setupSignalHandler(srv *apifoxmcp.Server, appLogger *logger.Logger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-c
		appLogger.Info("Received signal %s, shutting down", sig)
		if err := srv.Stop(); err != nil {
			errortypes.LogError(nil, err)
		}
		os.Exit(0)
	}()
}
