package workflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/clinicflow/clinicflow-backend/pkg/db"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// collection names
const (
	COLLECTION_NAME_WORKFLOW_RULES       = "workflow-rules"
	COLLECTION_NAME_WORKFLOW_ACTIONS     = "workflow-actions"
	COLLECTION_NAME_WORKFLOW_OCCURRENCES = "workflow-occurrences"
	COLLECTION_NAME_WORKFLOW_DISPATCHES  = "workflow-dispatches"
)

type WorkflowDBService struct {
	DBClient        *mongo.Client
	timeout         int
	noCursorTimeout bool
	DBNamePrefix    string
	InstanceIDs     []string
}

func NewWorkflowDBService(configs db.DBConfig) (*WorkflowDBService, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(configs.Timeout)*time.Second)
	defer cancel()

	dbClient, err := mongo.Connect(ctx,
		options.Client().ApplyURI(configs.URI),
		options.Client().SetMaxConnIdleTime(time.Duration(configs.IdleConnTimeout)*time.Second),
		options.Client().SetMaxPoolSize(configs.MaxPoolSize),
	)

	if err != nil {
		return nil, err
	}

	ctx, conCancel := context.WithTimeout(context.Background(), time.Duration(configs.Timeout)*time.Second)
	err = dbClient.Ping(ctx, nil)
	defer conCancel()

	if err != nil {
		return nil, err
	}

	workflowDBSc := &WorkflowDBService{
		DBClient:        dbClient,
		timeout:         configs.Timeout,
		noCursorTimeout: configs.NoCursorTimeout,
		DBNamePrefix:    configs.DBNamePrefix,
		InstanceIDs:     configs.InstanceIDs,
	}

	if configs.RunIndexCreation {
		if err := workflowDBSc.ensureIndexes(); err != nil {
			slog.Error("Error ensuring indexes for workflow DB: ", slog.String("error", err.Error()))
		}
	}

	return workflowDBSc, nil
}

func (dbService *WorkflowDBService) getDBName(instanceID string) string {
	return dbService.DBNamePrefix + instanceID + "_workflowDB"
}

func (dbService *WorkflowDBService) collectionRules(instanceID string) *mongo.Collection {
	return dbService.DBClient.Database(dbService.getDBName(instanceID)).Collection(COLLECTION_NAME_WORKFLOW_RULES)
}

func (dbService *WorkflowDBService) collectionActions(instanceID string) *mongo.Collection {
	return dbService.DBClient.Database(dbService.getDBName(instanceID)).Collection(COLLECTION_NAME_WORKFLOW_ACTIONS)
}

func (dbService *WorkflowDBService) collectionOccurrences(instanceID string) *mongo.Collection {
	return dbService.DBClient.Database(dbService.getDBName(instanceID)).Collection(COLLECTION_NAME_WORKFLOW_OCCURRENCES)
}

func (dbService *WorkflowDBService) collectionDispatches(instanceID string) *mongo.Collection {
	return dbService.DBClient.Database(dbService.getDBName(instanceID)).Collection(COLLECTION_NAME_WORKFLOW_DISPATCHES)
}

func (dbService *WorkflowDBService) getContext() (ctx context.Context, cancel context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Duration(dbService.timeout)*time.Second)
}

func (dbService *WorkflowDBService) ensureIndexes() error {
	slog.Debug("Ensuring indexes for workflow DB")
	for _, instanceID := range dbService.InstanceIDs {
		ctx, cancel := dbService.getContext()
		defer cancel()

		// Rules
		_, err := dbService.collectionRules(instanceID).Indexes().CreateOne(
			ctx,
			mongo.IndexModel{
				Keys: bson.D{
					{Key: "toStageId", Value: 1},
					{Key: "active", Value: 1},
				},
			},
		)
		if err != nil {
			slog.Error("Error creating index for workflow rules: ", slog.String("instanceID", instanceID), slog.String("error", err.Error()))
		}

		// Actions
		_, err = dbService.collectionActions(instanceID).Indexes().CreateOne(
			ctx,
			mongo.IndexModel{
				Keys: bson.D{
					{Key: "workflowId", Value: 1},
					{Key: "sortOrder", Value: 1},
				},
			},
		)
		if err != nil {
			slog.Error("Error creating index for workflow actions: ", slog.String("instanceID", instanceID), slog.String("error", err.Error()))
		}

		// Occurrences
		_, err = dbService.collectionOccurrences(instanceID).Indexes().CreateOne(
			ctx,
			mongo.IndexModel{
				Keys: bson.D{
					{Key: "status", Value: 1},
					{Key: "notBefore", Value: 1},
				},
			},
		)
		if err != nil {
			slog.Error("Error creating index for workflow occurrences: ", slog.String("instanceID", instanceID), slog.String("error", err.Error()))
		}

		// Dispatches
		// unique dedup key makes a retried dispatch a no-op
		_, err = dbService.collectionDispatches(instanceID).Indexes().CreateOne(
			ctx,
			mongo.IndexModel{
				Keys: bson.D{
					{Key: "dedupKey", Value: 1},
				},
				Options: options.Index().SetUnique(true),
			},
		)
		if err != nil {
			slog.Error("Error creating index for workflow dispatches: ", slog.String("instanceID", instanceID), slog.String("error", err.Error()))
		}
	}

	return nil
}
