package types

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// occurrence status values
const (
	OCCURRENCE_STATUS_PENDING   = "pending"
	OCCURRENCE_STATUS_FIRED     = "fired"
	OCCURRENCE_STATUS_FAILED    = "failed"
	OCCURRENCE_STATUS_CANCELLED = "cancelled"
)

// WorkflowOccurrence is one scheduled firing of an action for one
// triggering event. Occurrences are the durable timer state of the
// delivery scheduler: a runner claims due pending occurrences and
// fires them.
//
// For immediate and delay sends the subject and content are rendered
// at scheduling time and stored here. For recurring sends they stay
// empty and are rendered freshly at each firing time.
type WorkflowOccurrence struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	RuleID          primitive.ObjectID `bson:"ruleId" json:"ruleId"`
	ActionID        primitive.ObjectID `bson:"actionId" json:"actionId"`
	OccurrenceIndex int                `bson:"occurrenceIndex" json:"occurrenceIndex"`
	Event           StageChangeEvent   `bson:"event" json:"event"`
	NotBefore       int64              `bson:"notBefore" json:"notBefore"`
	Status          string             `bson:"status" json:"status"`
	RenderAtFiring  bool               `bson:"renderAtFiring" json:"renderAtFiring"`
	Subject         string             `bson:"subject,omitempty" json:"subject,omitempty"`
	Content         string             `bson:"content,omitempty" json:"content,omitempty"`
	AddedAt         int64              `bson:"addedAt" json:"addedAt"`
	LastAttempt     int64              `bson:"lastAttempt" json:"lastAttempt"`
	FiredAt         int64              `bson:"firedAt,omitempty" json:"firedAt,omitempty"`
	FailureReason   string             `bson:"failureReason,omitempty" json:"failureReason,omitempty"`
}

// DedupKey identifies one logical send. A dispatch is recorded under
// this key so a retried dispatch call cannot produce a duplicate send.
func (o WorkflowOccurrence) DedupKey() string {
	return fmt.Sprintf("%s:%s:%d", o.RuleID.Hex(), o.ActionID.Hex(), o.OccurrenceIndex)
}

// WorkflowDispatch records one completed send for idempotency and audit.
type WorkflowDispatch struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	DedupKey        string             `bson:"dedupKey" json:"dedupKey"`
	RuleID          primitive.ObjectID `bson:"ruleId" json:"ruleId"`
	ActionID        primitive.ObjectID `bson:"actionId" json:"actionId"`
	OccurrenceIndex int                `bson:"occurrenceIndex" json:"occurrenceIndex"`
	DealID          string             `bson:"dealId" json:"dealId"`
	To              string             `bson:"to" json:"to"`
	Subject         string             `bson:"subject" json:"subject"`
	SentAt          int64              `bson:"sentAt" json:"sentAt"`
}
