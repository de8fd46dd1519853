package workflow

import (
	"errors"
	"time"

	workflowTypes "github.com/clinicflow/clinicflow-backend/pkg/workflow/types"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// AddDispatch records a completed send under its dedup key. The unique
// index on dedupKey turns duplicates into ErrDispatchAlreadyRecorded.
var ErrDispatchAlreadyRecorded = errors.New("dispatch already recorded for dedup key")

func (dbService *WorkflowDBService) AddDispatch(instanceID string, dispatch workflowTypes.WorkflowDispatch) (workflowTypes.WorkflowDispatch, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	if dispatch.SentAt <= 0 {
		dispatch.SentAt = time.Now().Unix()
	}

	res, err := dbService.collectionDispatches(instanceID).InsertOne(ctx, dispatch)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return dispatch, ErrDispatchAlreadyRecorded
		}
		return dispatch, err
	}
	dispatch.ID = res.InsertedID.(primitive.ObjectID)
	return dispatch, nil
}

// GetDispatchByDedupKey returns the recorded dispatch for a dedup key
// or nil if the logical send has not happened yet.
func (dbService *WorkflowDBService) GetDispatchByDedupKey(instanceID string, dedupKey string) (*workflowTypes.WorkflowDispatch, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{"dedupKey": dedupKey}
	var dispatch workflowTypes.WorkflowDispatch
	err := dbService.collectionDispatches(instanceID).FindOne(ctx, filter).Decode(&dispatch)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &dispatch, nil
}
