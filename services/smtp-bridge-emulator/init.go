package main

import (
	"os"

	"github.com/clinicflow/clinicflow-backend/pkg/utils"
	"gopkg.in/yaml.v2"
)

// Environment variables
const (
	ENV_CONFIG_FILE_PATH = "CONFIG_FILE_PATH"

	ENV_SMTP_BRIDGE_EMULATOR_API_KEYS = "SMTP_BRIDGE_EMULATOR_API_KEYS"
)

type config struct {
	// Logging configs
	Logging utils.LoggerConfig `json:"logging" yaml:"logging"`

	// Gin configs
	GinConfig struct {
		DebugMode    bool     `json:"debug_mode" yaml:"debug_mode"`
		AllowOrigins []string `json:"allow_origins" yaml:"allow_origins"`
		Port         string   `json:"port" yaml:"port"`
	} `json:"gin_config" yaml:"gin_config"`

	APIKeys []string `json:"api_keys" yaml:"api_keys"`

	// Directory where received emails are stored as HTML files
	EmailsDir string `json:"emails_dir" yaml:"emails_dir"`
}

var conf config

func init() {
	// Read config from file
	yamlFile, err := os.ReadFile(os.Getenv(ENV_CONFIG_FILE_PATH))
	if err != nil {
		panic(err)
	}

	err = yaml.UnmarshalStrict(yamlFile, &conf)
	if err != nil {
		panic(err)
	}

	// Init logger:
	utils.InitLogger(conf.Logging)

	if apiKeys := os.Getenv(ENV_SMTP_BRIDGE_EMULATOR_API_KEYS); apiKeys != "" {
		conf.APIKeys = []string{apiKeys}
	}

	if conf.EmailsDir == "" {
		conf.EmailsDir = "emails"
	}
}
