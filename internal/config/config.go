package config

import (
	"log"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

type SwapConfig struct {
	Env        string `yaml:"env"`
	HTTPServer `yaml:"http_server"`
	SwapDB     `yaml:"swap_db"`
	LogConfig  `yaml:"log_config"`
	KafkaService `yaml:"kafka-service"`
	Platform   `yaml:"platform"`

	// ProviderRoutes maps provider settlement addresses to their remote
	// API base URLs; PostActionRoutes maps hook addresses to webhook URLs.
	ProviderRoutes   map[string]string `yaml:"provider_routes"`
	PostActionRoutes map[string]string `yaml:"post_action_routes"`
}

type HTTPServer struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

type SwapDB struct {
	Dsn string `yaml:"dsn"`
}

type LogConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	LogOutput string `yaml:"log_output"`
}

type KafkaService struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

type Platform struct {
	OrchestratorAddress string `yaml:"orchestrator_address"`
	VaultAddress        string `yaml:"vault_address"`
	MigrationsPath      string `yaml:"migrations_path"`
}

func MustLoad() *SwapConfig {

	// Processing env config variable and file
	configPath := os.Getenv("SWAP_CONFIG_PATH")

	if configPath == "" {
		log.Fatalf("SWAP_CONFIG_PATH was not found\n")
	}

	if _, err := os.Stat(configPath); err != nil {
		log.Fatalf("failed to find config file: %v\n", err)
	}

	// YAML to struct object
	var cfg SwapConfig
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("failed to read config file: %v", err)
	}

	return &cfg
}
