package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/clinicflow/clinicflow-backend/pkg/db"
	httpclient "github.com/clinicflow/clinicflow-backend/pkg/http-client"
	"github.com/clinicflow/clinicflow-backend/pkg/utils"
	"gopkg.in/yaml.v2"

	crmDB "github.com/clinicflow/clinicflow-backend/pkg/db/crm"
	workflowDB "github.com/clinicflow/clinicflow-backend/pkg/db/workflow"
	"github.com/clinicflow/clinicflow-backend/pkg/workflow/dispatch"
)

// Environment variables
const (
	ENV_CONFIG_FILE_PATH = "CONFIG_FILE_PATH"

	// Variables to override "secrets" in the config file
	ENV_WORKFLOW_DB_USERNAME = "WORKFLOW_DB_USERNAME"
	ENV_WORKFLOW_DB_PASSWORD = "WORKFLOW_DB_PASSWORD"
	ENV_CRM_DB_USERNAME      = "CRM_DB_USERNAME"
	ENV_CRM_DB_PASSWORD      = "CRM_DB_PASSWORD"

	ENV_SMTP_BRIDGE_API_KEY = "SMTP_BRIDGE_API_KEY"
)

type config struct {
	// Logging configs
	Logging utils.LoggerConfig `json:"logging" yaml:"logging"`

	// DB configs
	DBConfigs struct {
		WorkflowDB db.DBConfigYaml `json:"workflow_db" yaml:"workflow_db"`
		CRMDB      db.DBConfigYaml `json:"crm_db" yaml:"crm_db"`
	} `json:"db_configs" yaml:"db_configs"`

	InstanceIDs []string `json:"instance_ids" yaml:"instance_ids"`

	SmtpBridgeConfig struct {
		URL            string        `json:"url" yaml:"url"`
		APIKey         string        `json:"api_key" yaml:"api_key"`
		RequestTimeout time.Duration `json:"request_timeout" yaml:"request_timeout"`
	} `json:"smtp_bridge_config" yaml:"smtp_bridge_config"`

	// RunOnce processes one pass and exits (cron style), otherwise the
	// runner keeps polling until it is signalled to stop.
	RunOnce bool `json:"run_once" yaml:"run_once"`

	Intervals struct {
		PollInterval      string `json:"poll_interval" yaml:"poll_interval"`
		ClaimLockDuration string `json:"claim_lock_duration" yaml:"claim_lock_duration"`
	} `json:"intervals" yaml:"intervals"`
}

var conf config

var (
	pollInterval      time.Duration
	claimLockDuration time.Duration
)

var (
	workflowDBService *workflowDB.WorkflowDBService
	crmDBService      *crmDB.CRMDBService
	dispatcher        *dispatch.Dispatcher
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

	parseIntervals()

	// init db
	initDBs()

	// init dispatcher
	dispatcher = dispatch.NewDispatcher(
		workflowDBService,
		crmDBService,
		dispatch.BridgeSender{
			Client: &httpclient.ClientConfig{
				RootURL: conf.SmtpBridgeConfig.URL,
				APIKey:  conf.SmtpBridgeConfig.APIKey,
				Timeout: conf.SmtpBridgeConfig.RequestTimeout,
			},
		},
	)
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

	if apiKey := os.Getenv(ENV_SMTP_BRIDGE_API_KEY); apiKey != "" {
		conf.SmtpBridgeConfig.APIKey = apiKey
	}
}

func parseIntervals() {
	var err error
	pollInterval, err = utils.ParseDurationString(conf.Intervals.PollInterval)
	if err != nil {
		slog.Warn("Could not parse poll interval, using default", slog.String("value", conf.Intervals.PollInterval))
		pollInterval = DEFAULT_POLL_INTERVAL
	}

	claimLockDuration, err = utils.ParseDurationString(conf.Intervals.ClaimLockDuration)
	if err != nil {
		slog.Warn("Could not parse claim lock duration, using default", slog.String("value", conf.Intervals.ClaimLockDuration))
		claimLockDuration = DEFAULT_CLAIM_LOCK_DURATION
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
