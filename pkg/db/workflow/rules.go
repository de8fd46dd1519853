package workflow

import (
	"time"

	workflowTypes "github.com/clinicflow/clinicflow-backend/pkg/workflow/types"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// get all workflow rules
func (dbService *WorkflowDBService) GetAllRules(instanceID string) ([]workflowTypes.WorkflowRule, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}}).
		SetNoCursorTimeout(dbService.noCursorTimeout)

	cursor, err := dbService.collectionRules(instanceID).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	var rules []workflowTypes.WorkflowRule
	if err = cursor.All(ctx, &rules); err != nil {
		return nil, err
	}

	return rules, nil
}

// get rules that can match events targeting the given stage
func (dbService *WorkflowDBService) GetActiveRulesForTargetStage(instanceID string, toStageID string) ([]workflowTypes.WorkflowRule, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{
		"active":    true,
		"toStageId": toStageID,
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}}).
		SetNoCursorTimeout(dbService.noCursorTimeout)

	cursor, err := dbService.collectionRules(instanceID).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	rules := []workflowTypes.WorkflowRule{}
	if err = cursor.All(ctx, &rules); err != nil {
		return nil, err
	}

	return rules, nil
}

// get workflow rule by id
func (dbService *WorkflowDBService) GetRuleByID(instanceID string, id string) (*workflowTypes.WorkflowRule, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	_id, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}
	filter := bson.M{"_id": _id}
	var rule workflowTypes.WorkflowRule
	err = dbService.collectionRules(instanceID).FindOne(ctx, filter).Decode(&rule)
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

// save workflow rule (insert or replace)
func (dbService *WorkflowDBService) SaveRule(instanceID string, rule workflowTypes.WorkflowRule) (workflowTypes.WorkflowRule, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	rule.UpdatedAt = time.Now().Unix()

	if !rule.ID.IsZero() {
		filter := bson.M{"_id": rule.ID}

		upsert := false
		rd := options.After
		options := options.FindOneAndReplaceOptions{
			Upsert:         &upsert,
			ReturnDocument: &rd,
		}
		elem := workflowTypes.WorkflowRule{}
		err := dbService.collectionRules(instanceID).FindOneAndReplace(
			ctx, filter, rule, &options,
		).Decode(&elem)
		return elem, err
	} else {
		rule.ID = primitive.NewObjectID()
		rule.CreatedAt = time.Now().Unix()
		res, err := dbService.collectionRules(instanceID).InsertOne(ctx, rule)
		if err != nil {
			return rule, err
		}
		rule.ID = res.InsertedID.(primitive.ObjectID)
		return rule, nil
	}
}

// delete workflow rule
func (dbService *WorkflowDBService) DeleteRule(instanceID string, id string) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	_id, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	filter := bson.M{"_id": _id}

	_, err = dbService.collectionRules(instanceID).DeleteOne(ctx, filter)
	return err
}
