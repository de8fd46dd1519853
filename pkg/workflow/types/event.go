package types

import (
	"errors"
	"strings"
)

// StageChangeEvent describes one deal moving between pipeline stages.
// Events are ephemeral; only occurrences derived from them are stored.
type StageChangeEvent struct {
	DealID      string `bson:"dealId" json:"dealId"`
	PatientID   string `bson:"patientId" json:"patientId"`
	FromStageID string `bson:"fromStageId,omitempty" json:"fromStageId,omitempty"`
	ToStageID   string `bson:"toStageId" json:"toStageId"`
	Pipeline    string `bson:"pipeline,omitempty" json:"pipeline,omitempty"`
}

var ErrEventMissingToStage = errors.New("stage change event requires a target stage")

// CheckStageChangeEvent rejects malformed events at ingestion so they
// never reach the matcher.
func CheckStageChangeEvent(event StageChangeEvent) error {
	if strings.TrimSpace(event.ToStageID) == "" {
		return ErrEventMissingToStage
	}
	return nil
}
