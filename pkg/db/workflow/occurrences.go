package workflow

import (
	"errors"
	"time"

	workflowTypes "github.com/clinicflow/clinicflow-backend/pkg/workflow/types"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (dbService *WorkflowDBService) AddOccurrence(instanceID string, occurrence workflowTypes.WorkflowOccurrence) (workflowTypes.WorkflowOccurrence, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	if occurrence.AddedAt <= 0 {
		occurrence.AddedAt = time.Now().Unix()
	}
	if occurrence.Status == "" {
		occurrence.Status = workflowTypes.OCCURRENCE_STATUS_PENDING
	}

	res, err := dbService.collectionOccurrences(instanceID).InsertOne(ctx, occurrence)
	if err != nil {
		return occurrence, err
	}
	occurrence.ID = res.InsertedID.(primitive.ObjectID)
	return occurrence, nil
}

// GetDueOccurrences claims up to batchSize pending occurrences that are
// due now. Claiming sets lastAttempt, so a parallel runner (or a crashed
// one) won't pick the same occurrence up again before lockedSince.
func (dbService *WorkflowDBService) GetDueOccurrences(instanceID string, lockedSince int64, batchSize int) ([]workflowTypes.WorkflowOccurrence, error) {
	occurrences := []workflowTypes.WorkflowOccurrence{}

	for len(occurrences) < batchSize {
		ctx, cancel := dbService.getContext()

		filter := bson.M{
			"status":      workflowTypes.OCCURRENCE_STATUS_PENDING,
			"notBefore":   bson.M{"$lte": time.Now().Unix()},
			"lastAttempt": bson.M{"$lt": lockedSince},
		}
		update := bson.M{"$set": bson.M{"lastAttempt": time.Now().Unix()}}
		opts := options.FindOneAndUpdate().
			SetSort(bson.D{{Key: "notBefore", Value: 1}}).
			SetReturnDocument(options.After)

		var occurrence workflowTypes.WorkflowOccurrence
		err := dbService.collectionOccurrences(instanceID).FindOneAndUpdate(ctx, filter, update, opts).Decode(&occurrence)
		cancel()
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				break
			}
			return occurrences, err
		}
		occurrences = append(occurrences, occurrence)
	}

	return occurrences, nil
}

// ResetLastAttempt releases a claimed occurrence so it can be retried
// by a later run.
func (dbService *WorkflowDBService) ResetLastAttempt(instanceID string, id string) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	_id, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	filter := bson.M{"_id": _id}
	update := bson.M{"$set": bson.M{"lastAttempt": 0}}

	_, err = dbService.collectionOccurrences(instanceID).UpdateOne(ctx, filter, update)
	return err
}

func (dbService *WorkflowDBService) MarkOccurrenceFired(instanceID string, id string) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	_id, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	filter := bson.M{"_id": _id}
	update := bson.M{"$set": bson.M{
		"status":  workflowTypes.OCCURRENCE_STATUS_FIRED,
		"firedAt": time.Now().Unix(),
	}}

	_, err = dbService.collectionOccurrences(instanceID).UpdateOne(ctx, filter, update)
	return err
}

func (dbService *WorkflowDBService) MarkOccurrenceFailed(instanceID string, id string, reason string) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	_id, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	filter := bson.M{"_id": _id}
	update := bson.M{"$set": bson.M{
		"status":        workflowTypes.OCCURRENCE_STATUS_FAILED,
		"failureReason": reason,
	}}

	_, err = dbService.collectionOccurrences(instanceID).UpdateOne(ctx, filter, update)
	return err
}

func (dbService *WorkflowDBService) MarkOccurrenceCancelled(instanceID string, id string, reason string) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	_id, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	filter := bson.M{"_id": _id}
	update := bson.M{"$set": bson.M{
		"status":        workflowTypes.OCCURRENCE_STATUS_CANCELLED,
		"failureReason": reason,
	}}

	_, err = dbService.collectionOccurrences(instanceID).UpdateOne(ctx, filter, update)
	return err
}

// CancelPendingOccurrencesForRule cancels every pending occurrence of a
// rule, used when the rule is deleted.
func (dbService *WorkflowDBService) CancelPendingOccurrencesForRule(instanceID string, ruleID string, reason string) (int64, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	_ruleID, err := primitive.ObjectIDFromHex(ruleID)
	if err != nil {
		return 0, err
	}
	filter := bson.M{
		"ruleId": _ruleID,
		"status": workflowTypes.OCCURRENCE_STATUS_PENDING,
	}
	update := bson.M{"$set": bson.M{
		"status":        workflowTypes.OCCURRENCE_STATUS_CANCELLED,
		"failureReason": reason,
	}}

	res, err := dbService.collectionOccurrences(instanceID).UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// get occurrences of a rule, newest first
func (dbService *WorkflowDBService) GetOccurrencesForRule(instanceID string, ruleID string, page int64, limit int64) ([]workflowTypes.WorkflowOccurrence, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	_ruleID, err := primitive.ObjectIDFromHex(ruleID)
	if err != nil {
		return nil, err
	}
	filter := bson.M{"ruleId": _ruleID}
	opts := options.Find().
		SetSort(bson.D{{Key: "notBefore", Value: -1}}).
		SetNoCursorTimeout(dbService.noCursorTimeout)
	if limit > 0 {
		opts = opts.SetLimit(limit)
		if page > 1 {
			opts = opts.SetSkip((page - 1) * limit)
		}
	}

	cursor, err := dbService.collectionOccurrences(instanceID).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	occurrences := []workflowTypes.WorkflowOccurrence{}
	if err = cursor.All(ctx, &occurrences); err != nil {
		return nil, err
	}

	return occurrences, nil
}
