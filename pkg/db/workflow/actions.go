package workflow

import (
	"time"

	workflowTypes "github.com/clinicflow/clinicflow-backend/pkg/workflow/types"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// get actions of a rule ordered by sort order
func (dbService *WorkflowDBService) GetActionsForRule(instanceID string, workflowID string) ([]workflowTypes.WorkflowAction, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	_workflowID, err := primitive.ObjectIDFromHex(workflowID)
	if err != nil {
		return nil, err
	}

	filter := bson.M{"workflowId": _workflowID}
	opts := options.Find().
		SetSort(bson.D{{Key: "sortOrder", Value: 1}}).
		SetNoCursorTimeout(dbService.noCursorTimeout)

	cursor, err := dbService.collectionActions(instanceID).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	actions := []workflowTypes.WorkflowAction{}
	if err = cursor.All(ctx, &actions); err != nil {
		return nil, err
	}

	return actions, nil
}

// get workflow action by id
func (dbService *WorkflowDBService) GetActionByID(instanceID string, id string) (*workflowTypes.WorkflowAction, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	_id, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}
	filter := bson.M{"_id": _id}
	var action workflowTypes.WorkflowAction
	err = dbService.collectionActions(instanceID).FindOne(ctx, filter).Decode(&action)
	if err != nil {
		return nil, err
	}
	return &action, nil
}

// save workflow action (insert or replace)
func (dbService *WorkflowDBService) SaveAction(instanceID string, action workflowTypes.WorkflowAction) (workflowTypes.WorkflowAction, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	action.UpdatedAt = time.Now().Unix()

	if !action.ID.IsZero() {
		filter := bson.M{"_id": action.ID}

		upsert := false
		rd := options.After
		options := options.FindOneAndReplaceOptions{
			Upsert:         &upsert,
			ReturnDocument: &rd,
		}
		elem := workflowTypes.WorkflowAction{}
		err := dbService.collectionActions(instanceID).FindOneAndReplace(
			ctx, filter, action, &options,
		).Decode(&elem)
		return elem, err
	} else {
		action.ID = primitive.NewObjectID()
		action.CreatedAt = time.Now().Unix()
		res, err := dbService.collectionActions(instanceID).InsertOne(ctx, action)
		if err != nil {
			return action, err
		}
		action.ID = res.InsertedID.(primitive.ObjectID)
		return action, nil
	}
}

// delete workflow action
func (dbService *WorkflowDBService) DeleteAction(instanceID string, id string) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	_id, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	filter := bson.M{"_id": _id}

	_, err = dbService.collectionActions(instanceID).DeleteOne(ctx, filter)
	return err
}

// delete all actions of a rule
func (dbService *WorkflowDBService) DeleteActionsForRule(instanceID string, workflowID string) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	_workflowID, err := primitive.ObjectIDFromHex(workflowID)
	if err != nil {
		return err
	}
	filter := bson.M{"workflowId": _workflowID}

	_, err = dbService.collectionActions(instanceID).DeleteMany(ctx, filter)
	return err
}
