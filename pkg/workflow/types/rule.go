package types

import (
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkflowRule defines a trigger: when a deal moves into ToStageID
// (optionally restricted by origin stage and pipeline), the rule's
// actions are scheduled.
type WorkflowRule struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name           string             `bson:"name" json:"name"`
	Active         bool               `bson:"active" json:"active"`
	FromStageID    string             `bson:"fromStageId,omitempty" json:"fromStageId,omitempty"`
	ToStageID      string             `bson:"toStageId" json:"toStageId"`
	PipelineFilter string             `bson:"pipelineFilter,omitempty" json:"pipelineFilter,omitempty"`
	CreatedAt      int64              `bson:"createdAt" json:"createdAt"`
	UpdatedAt      int64              `bson:"updatedAt" json:"updatedAt"`
}

var ErrRuleMissingToStage = errors.New("workflow rule requires a target stage")

// CheckRule validates a rule before it is persisted. A rule without a
// target stage must never reach the matcher.
func CheckRule(rule WorkflowRule) error {
	if strings.TrimSpace(rule.ToStageID) == "" {
		return ErrRuleMissingToStage
	}
	return nil
}
