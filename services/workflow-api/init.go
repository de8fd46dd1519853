package main

import (
	"log/slog"
	"os"

	"github.com/clinicflow/clinicflow-backend/pkg/apihelpers"
	"github.com/clinicflow/clinicflow-backend/pkg/db"
	"github.com/clinicflow/clinicflow-backend/pkg/utils"
	"gopkg.in/yaml.v2"

	crmDB "github.com/clinicflow/clinicflow-backend/pkg/db/crm"
	workflowDB "github.com/clinicflow/clinicflow-backend/pkg/db/workflow"
)

// Environment variables
const (
	ENV_CONFIG_FILE_PATH = "CONFIG_FILE_PATH"

	// Variables to override "secrets" in the config file
	ENV_WORKFLOW_DB_USERNAME = "WORKFLOW_DB_USERNAME"
	ENV_WORKFLOW_DB_PASSWORD = "WORKFLOW_DB_PASSWORD"
	ENV_CRM_DB_USERNAME      = "CRM_DB_USERNAME"
	ENV_CRM_DB_PASSWORD      = "CRM_DB_PASSWORD"

	ENV_WORKFLOW_API_KEYS = "WORKFLOW_API_KEYS"
)

type config struct {
	// Logging configs
	Logging utils.LoggerConfig `json:"logging" yaml:"logging"`

	// Gin configs
	GinConfig struct {
		DebugMode    bool     `json:"debug_mode" yaml:"debug_mode"`
		AllowOrigins []string `json:"allow_origins" yaml:"allow_origins"`
		Port         string   `json:"port" yaml:"port"`

		MTLS struct {
			Use              bool                        `json:"use" yaml:"use"`
			CertificatePaths apihelpers.CertificatePaths `json:"certificate_paths" yaml:"certificate_paths"`
		} `json:"mtls" yaml:"mtls"`
	} `json:"gin_config" yaml:"gin_config"`

	InstanceIDs []string `json:"instance_ids" yaml:"instance_ids"`

	// API keys accepted from event producers and management tooling
	APIKeys []string `json:"api_keys" yaml:"api_keys"`

	// DB configs
	DBConfigs struct {
		WorkflowDB db.DBConfigYaml `json:"workflow_db" yaml:"workflow_db"`
		CRMDB      db.DBConfigYaml `json:"crm_db" yaml:"crm_db"`
	} `json:"db_configs" yaml:"db_configs"`
}

var conf config

var (
	workflowDBService *workflowDB.WorkflowDBService
	crmDBService      *crmDB.CRMDBService
)

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

	// init db
	initDBs()
}

func secretsOverride() {
	if dbUsername := os.Getenv(ENV_WORKFLOW_DB_USERNAME); dbUsername != "" {
		conf.DBConfigs.WorkflowDB.Username = dbUsername
	}

	if dbPassword := os.Getenv(ENV_WORKFLOW_DB_PASSWORD); dbPassword != "" {
		conf.DBConfigs.WorkflowDB.Password = dbPassword
	}

	if dbUsername := os.Getenv(ENV_CRM_DB_USERNAME); dbUsername != "" {
		conf.DBConfigs.CRMDB.Username = dbUsername
	}

	if dbPassword := os.Getenv(ENV_CRM_DB_PASSWORD); dbPassword != "" {
		conf.DBConfigs.CRMDB.Password = dbPassword
	}

	if apiKeys := os.Getenv(ENV_WORKFLOW_API_KEYS); apiKeys != "" {
		conf.APIKeys = []string{apiKeys}
	}
}

func initDBs() {
	var err error
	workflowDBService, err = workflowDB.NewWorkflowDBService(db.DBConfigFromYamlObj(conf.DBConfigs.WorkflowDB, conf.InstanceIDs))
	if err != nil {
		slog.Error("Error connecting to Workflow DB", slog.String("error", err.Error()))
		panic(err)
	}

	crmDBService, err = crmDB.NewCRMDBService(db.DBConfigFromYamlObj(conf.DBConfigs.CRMDB, conf.InstanceIDs))
	if err != nil {
		slog.Error("Error connecting to CRM DB", slog.String("error", err.Error()))
		panic(err)
	}
}
