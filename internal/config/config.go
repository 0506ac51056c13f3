package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/the-block/block-buster/pkg/secrets"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Node       NodeConfig       `mapstructure:"node"`
	DataSource DataSourceConfig `mapstructure:"datasource"`
	Simulator  SimulatorConfig  `mapstructure:"simulator"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	GCP        GCPConfig        `mapstructure:"gcp"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type NodeConfig struct {
	// RPCURL is The Block node's JSON-RPC endpoint; the /health liveness
	// probe lives on the same host.
	RPCURL string `mapstructure:"rpc_url"`
	WSURL  string `mapstructure:"ws_url"`

	// AuthType is "none", "token" or "jwt".
	AuthType      string `mapstructure:"auth_type"`
	AuthToken     string `mapstructure:"auth_token"`
	KeyName       string `mapstructure:"key_name"`
	PrivateKeyPEM string `mapstructure:"private_key_pem"`

	DetectTimeout time.Duration `mapstructure:"detect_timeout"`
	ProbeInterval time.Duration `mapstructure:"probe_interval"`
}

type DataSourceConfig struct {
	TickInterval time.Duration `mapstructure:"tick_interval"`
	Symbol       string        `mapstructure:"symbol"`
}

type SimulatorConfig struct {
	Seed            int64   `mapstructure:"seed"`
	MaxSupply       float64 `mapstructure:"max_supply"`
	GenesisEmission float64 `mapstructure:"genesis_emission"`
	EmissionPerTick float64 `mapstructure:"emission_per_tick"`
	PeakHour        int     `mapstructure:"peak_hour"`
	InitialMidPrice float64 `mapstructure:"initial_mid_price"`
	TargetSpreadBps float64 `mapstructure:"target_spread_bps"`
	BookLevels      int     `mapstructure:"book_levels"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type GCPConfig struct {
	ProjectID   string              `mapstructure:"project_id"`
	UseSecrets  bool                `mapstructure:"use_secrets"`
	SecretNames secrets.SecretNames `mapstructure:"secret_names"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/block-buster")
	}

	v.SetEnvPrefix("BLOCKBUSTER")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; use defaults and environment
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&config)

	if config.GCP.UseSecrets && config.GCP.ProjectID != "" {
		ctx := context.Background()
		logger := logrus.New()
		if err := loadSecretsFromGCP(ctx, &config, logger); err != nil {
			return nil, fmt.Errorf("error loading secrets from GCP: %w", err)
		}
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)

	v.SetDefault("node.rpc_url", "http://localhost:8545")
	v.SetDefault("node.ws_url", "")
	v.SetDefault("node.auth_type", "none")
	v.SetDefault("node.detect_timeout", "5s")
	v.SetDefault("node.probe_interval", "500ms")

	v.SetDefault("datasource.tick_interval", "3s")
	v.SetDefault("datasource.symbol", "BLOCK-USD")

	v.SetDefault("simulator.seed", 0)
	v.SetDefault("simulator.max_supply", 40_000_000)
	v.SetDefault("simulator.genesis_emission", 3_200_000)
	v.SetDefault("simulator.emission_per_tick", 25)
	v.SetDefault("simulator.peak_hour", 15)
	v.SetDefault("simulator.initial_mid_price", 115_000)
	v.SetDefault("simulator.target_spread_bps", 87)
	v.SetDefault("simulator.book_levels", 12)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("gcp.use_secrets", false)
	v.SetDefault("gcp.project_id", "")

	secretNames := secrets.DefaultSecretNames()
	v.SetDefault("gcp.secret_names.auth_token", secretNames.AuthToken)
	v.SetDefault("gcp.secret_names.rpc_key_name", secretNames.RPCKeyName)
	v.SetDefault("gcp.secret_names.rpc_private_key", secretNames.RPCPrivateKey)
}

func overrideFromEnv(config *Config) {
	if rpcURL := os.Getenv("THEBLOCK_RPC_URL"); rpcURL != "" {
		config.Node.RPCURL = rpcURL
	}
	if wsURL := os.Getenv("THEBLOCK_WS_URL"); wsURL != "" {
		config.Node.WSURL = wsURL
	}
	if authType := os.Getenv("THEBLOCK_AUTH_TYPE"); authType != "" {
		config.Node.AuthType = authType
	}
	if token := os.Getenv("THEBLOCK_AUTH_TOKEN"); token != "" {
		config.Node.AuthToken = token
	}
	if keyName := os.Getenv("THEBLOCK_KEY_NAME"); keyName != "" {
		config.Node.KeyName = keyName
	}
	if privateKey := os.Getenv("THEBLOCK_PRIVATE_KEY"); privateKey != "" {
		config.Node.PrivateKeyPEM = privateKey
	}

	if projectID := os.Getenv("GCP_PROJECT_ID"); projectID != "" {
		config.GCP.ProjectID = projectID
	}
	if useSecrets := os.Getenv("GCP_USE_SECRETS"); useSecrets == "true" {
		config.GCP.UseSecrets = true
	}
}

func loadSecretsFromGCP(ctx context.Context, config *Config, logger *logrus.Logger) error {
	secretManager, err := secrets.NewGCPSecretManager(ctx, config.GCP.ProjectID, logger)
	if err != nil {
		return fmt.Errorf("failed to create secret manager: %w", err)
	}
	defer secretManager.Close()

	// Only load secrets if they're not already set
	if config.Node.AuthToken == "" {
		config.Node.AuthToken = secretManager.GetSecretWithDefault(ctx,
			config.GCP.SecretNames.AuthToken, "")
	}
	if config.Node.KeyName == "" {
		config.Node.KeyName = secretManager.GetSecretWithDefault(ctx,
			config.GCP.SecretNames.RPCKeyName, "")
	}
	if config.Node.PrivateKeyPEM == "" {
		config.Node.PrivateKeyPEM = secretManager.GetSecretWithDefault(ctx,
			config.GCP.SecretNames.RPCPrivateKey, "")
	}

	logger.Info("Successfully loaded secrets from GCP Secret Manager")
	return nil
}
