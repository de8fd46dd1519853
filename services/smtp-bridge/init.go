package main

import (
	"os"

	"github.com/clinicflow/clinicflow-backend/pkg/utils"
	"gopkg.in/yaml.v2"

	sc "github.com/clinicflow/clinicflow-backend/pkg/smtp-client"
)

// Environment variables
const (
	ENV_CONFIG_FILE_PATH = "CONFIG_FILE_PATH"

	// Variables to override "secrets" in the config file
	ENV_SMTP_BRIDGE_API_KEYS = "SMTP_BRIDGE_API_KEYS"

	ENV_SMTP_USERNAME = "SMTP_USERNAME"
	ENV_SMTP_PASSWORD = "SMTP_PASSWORD"

	ENV_HIGH_PRIO_SMTP_USERNAME = "HIGH_PRIO_SMTP_USERNAME"
	ENV_HIGH_PRIO_SMTP_PASSWORD = "HIGH_PRIO_SMTP_PASSWORD"
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

	SMTPServerConfig struct {
		LowPrio  sc.SmtpServerList `json:"low_prio" yaml:"low_prio"`
		HighPrio sc.SmtpServerList `json:"high_prio" yaml:"high_prio"`
	} `json:"smtp_server_config" yaml:"smtp_server_config"`
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

	// Override secrets from environment variables
	secretsOverride()
}

func secretsOverride() {
	if apiKeys := os.Getenv(ENV_SMTP_BRIDGE_API_KEYS); apiKeys != "" {
		conf.APIKeys = []string{apiKeys}
	}

	if username := os.Getenv(ENV_SMTP_USERNAME); username != "" {
		for i := range conf.SMTPServerConfig.LowPrio.Servers {
			conf.SMTPServerConfig.LowPrio.Servers[i].SetUsername(username)
		}
	}

	if password := os.Getenv(ENV_SMTP_PASSWORD); password != "" {
		for i := range conf.SMTPServerConfig.LowPrio.Servers {
			conf.SMTPServerConfig.LowPrio.Servers[i].SetPassword(password)
		}
	}

	if username := os.Getenv(ENV_HIGH_PRIO_SMTP_USERNAME); username != "" {
		for i := range conf.SMTPServerConfig.HighPrio.Servers {
			conf.SMTPServerConfig.HighPrio.Servers[i].SetUsername(username)
		}
	}

	if password := os.Getenv(ENV_HIGH_PRIO_SMTP_PASSWORD); password != "" {
		for i := range conf.SMTPServerConfig.HighPrio.Servers {
			conf.SMTPServerConfig.HighPrio.Servers[i].SetPassword(password)
		}
	}
}
