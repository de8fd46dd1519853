package types

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCheckRule(t *testing.T) {
	t.Run("missing target stage", func(t *testing.T) {
		err := CheckRule(WorkflowRule{Name: "r1", Active: true})
		if err != ErrRuleMissingToStage {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("whitespace only target stage", func(t *testing.T) {
		err := CheckRule(WorkflowRule{Name: "r1", ToStageID: "  "})
		if err != ErrRuleMissingToStage {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("valid rule", func(t *testing.T) {
		err := CheckRule(WorkflowRule{Name: "r1", ToStageID: "S_processed"})
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestSanitizeAction(t *testing.T) {
	t.Run("recurring times clamped", func(t *testing.T) {
		action := SanitizeAction(WorkflowAction{
			SendMode:       SEND_MODE_RECURRING,
			RecurringTimes: 45,
		})
		if action.RecurringTimes != MAX_RECURRING_TIMES {
			t.Errorf("expected %d, got %d", MAX_RECURRING_TIMES, action.RecurringTimes)
		}
	})

	t.Run("unknown send mode falls back to immediate", func(t *testing.T) {
		action := SanitizeAction(WorkflowAction{SendMode: "sometime"})
		if action.SendMode != SEND_MODE_IMMEDIATE {
			t.Errorf("unexpected send mode: %s", action.SendMode)
		}
	})

	t.Run("valid values untouched", func(t *testing.T) {
		action := SanitizeAction(WorkflowAction{
			SendMode:           SEND_MODE_RECURRING,
			RecurringEveryDays: 7,
			RecurringTimes:     3,
		})
		if action.SendMode != SEND_MODE_RECURRING || action.RecurringTimes != 3 {
			t.Errorf("unexpected action: %v", action)
		}
	})
}

func TestCheckStageChangeEvent(t *testing.T) {
	err := CheckStageChangeEvent(StageChangeEvent{DealID: "d1"})
	if err != ErrEventMissingToStage {
		t.Errorf("unexpected error: %v", err)
	}

	err = CheckStageChangeEvent(StageChangeEvent{DealID: "d1", ToStageID: "S_processed"})
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestDedupKeyStable(t *testing.T) {
	ruleID := primitive.NewObjectID()
	actionID := primitive.NewObjectID()

	a := WorkflowOccurrence{RuleID: ruleID, ActionID: actionID, OccurrenceIndex: 3}
	b := WorkflowOccurrence{RuleID: ruleID, ActionID: actionID, OccurrenceIndex: 3}
	if a.DedupKey() != b.DedupKey() {
		t.Errorf("dedup keys differ: %s vs %s", a.DedupKey(), b.DedupKey())
	}

	c := WorkflowOccurrence{RuleID: ruleID, ActionID: actionID, OccurrenceIndex: 4}
	if a.DedupKey() == c.DedupKey() {
		t.Errorf("dedup key should include occurrence index")
	}
}
