package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/the-block/block-buster/api"
	"github.com/the-block/block-buster/internal/config"
	"github.com/the-block/block-buster/pkg/datasource"
	"github.com/the-block/block-buster/pkg/simulator"
	"github.com/the-block/block-buster/pkg/theblock"
)

var (
	cfgFile string
	logger  *logrus.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "block-buster",
		Short: "Dashboard data service for The Block",
		Long:  `Serves market and network snapshots for The Block dashboard, polling a live node when one is reachable and synthesizing formula-based data when none is`,
		Run:   runServer,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) {
	// Local .env files carry node credentials in development
	_ = godotenv.Load()

	// Initialize logger
	logger = logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Load configuration
	cfg, err := config.Load(cfgFile)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	// Set log level
	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		logger.WithError(err).Error("Invalid log level, using INFO")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	if cfg.Logging.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{})
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize the node client
	auth, err := buildAuthenticator(cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to build node authenticator")
	}
	nodeClient := theblock.NewClient(cfg.Node.RPCURL, auth)

	// Build the simulator from config
	simCfg := simulator.DefaultConfig()
	if cfg.Simulator.Seed != 0 {
		simCfg.Seed = cfg.Simulator.Seed
	}
	simCfg.MaxSupply = cfg.Simulator.MaxSupply
	simCfg.GenesisEmission = cfg.Simulator.GenesisEmission
	simCfg.EmissionPerTick = cfg.Simulator.EmissionPerTick
	simCfg.PeakHour = cfg.Simulator.PeakHour
	simCfg.InitialMidPrice = cfg.Simulator.InitialMidPrice
	simCfg.TargetSpreadBps = cfg.Simulator.TargetSpreadBps
	simCfg.BookLevels = cfg.Simulator.BookLevels
	simCfg.Symbol = cfg.DataSource.Symbol
	engine := simulator.NewEngine(simCfg)

	// Create the data-source manager
	manager := datasource.NewManager(
		nodeClient.Health,
		nodeClient,
		engine,
		datasource.Options{
			ProbeInterval: cfg.Node.ProbeInterval,
			TickInterval:  cfg.DataSource.TickInterval,
			Symbol:        cfg.DataSource.Symbol,
		},
		logger,
	)

	// Detect the node in the background so the API is up immediately
	go func() {
		if err := manager.DetectNode(ctx, cfg.Node.DetectTimeout); err != nil {
			logger.WithError(err).Warn("Node detection aborted")
			return
		}

		if manager.IsLive() && cfg.Node.WSURL != "" {
			startEventStream(ctx, cfg.Node.WSURL, manager)
		}
	}()

	// Start API server
	apiServer := api.NewServer(manager, logger, fmt.Sprintf("%d", cfg.Server.Port), cfg.Node.DetectTimeout)
	go func() {
		if err := apiServer.Start(); err != nil {
			logger.WithError(err).Fatal("Failed to start API server")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Block-Buster is running. Press Ctrl+C to stop.")

	<-sigChan
	logger.Info("Received shutdown signal")

	// Graceful shutdown
	manager.Stop()
	cancel()

	logger.Info("Block-Buster stopped")
}

func buildAuthenticator(cfg *config.Config) (theblock.Authenticator, error) {
	switch cfg.Node.AuthType {
	case "", "none":
		return nil, nil
	case "token":
		return theblock.NewTokenAuthenticator(cfg.Node.AuthToken), nil
	case "jwt":
		return theblock.NewJWTAuthenticator(cfg.Node.KeyName, cfg.Node.PrivateKeyPEM)
	default:
		return nil, fmt.Errorf("unknown auth type %q", cfg.Node.AuthType)
	}
}

// startEventStream subscribes to the node's push channel so block heights
// advance between polls.
func startEventStream(ctx context.Context, wsURL string, manager *datasource.Manager) {
	stream := theblock.NewEventStream(wsURL, logger)
	if err := stream.Connect(ctx); err != nil {
		logger.WithError(err).Warn("Event stream unavailable, relying on polling")
		return
	}

	stream.RegisterHandler("new_block", func(payload json.RawMessage) error {
		var block struct {
			Height int64 `json:"height"`
		}
		if err := json.Unmarshal(payload, &block); err != nil {
			return err
		}
		manager.ObserveBlock(block.Height)
		return nil
	})

	if err := stream.Subscribe([]string{"new_block"}); err != nil {
		logger.WithError(err).Warn("Failed to subscribe to block events")
	}
}
