package matcher

import (
	"testing"

	workflowTypes "github.com/clinicflow/clinicflow-backend/pkg/workflow/types"
)

func TestRuleMatches(t *testing.T) {
	rule := workflowTypes.WorkflowRule{
		Name:        "lead processed",
		Active:      true,
		FromStageID: "S_lead",
		ToStageID:   "S_processed",
	}

	t.Run("pipeline filter absent matches any pipeline", func(t *testing.T) {
		event := workflowTypes.StageChangeEvent{
			FromStageID: "S_lead",
			ToStageID:   "S_processed",
			Pipeline:    "Geneva",
		}
		if !RuleMatches(event, rule) {
			t.Error("expected match")
		}
	})

	t.Run("origin stage mismatch", func(t *testing.T) {
		event := workflowTypes.StageChangeEvent{
			FromStageID: "S_other",
			ToStageID:   "S_processed",
			Pipeline:    "Geneva",
		}
		if RuleMatches(event, rule) {
			t.Error("expected no match")
		}
	})

	t.Run("target stage mismatch", func(t *testing.T) {
		event := workflowTypes.StageChangeEvent{
			FromStageID: "S_lead",
			ToStageID:   "S_won",
		}
		if RuleMatches(event, rule) {
			t.Error("expected no match")
		}
	})

	t.Run("unset origin stage matches any origin", func(t *testing.T) {
		anyOrigin := rule
		anyOrigin.FromStageID = ""
		event := workflowTypes.StageChangeEvent{
			FromStageID: "S_other",
			ToStageID:   "S_processed",
		}
		if !RuleMatches(event, anyOrigin) {
			t.Error("expected match")
		}
	})

	t.Run("pipeline filter is case sensitive", func(t *testing.T) {
		filtered := rule
		filtered.PipelineFilter = "Geneva"
		event := workflowTypes.StageChangeEvent{
			FromStageID: "S_lead",
			ToStageID:   "S_processed",
			Pipeline:    "geneva",
		}
		if RuleMatches(event, filtered) {
			t.Error("expected no match")
		}
		event.Pipeline = "Geneva"
		if !RuleMatches(event, filtered) {
			t.Error("expected match")
		}
	})

	t.Run("inactive rule never matches", func(t *testing.T) {
		inactive := rule
		inactive.Active = false
		event := workflowTypes.StageChangeEvent{
			FromStageID: "S_lead",
			ToStageID:   "S_processed",
		}
		if RuleMatches(event, inactive) {
			t.Error("expected no match")
		}
	})

	t.Run("rule without target stage never matches", func(t *testing.T) {
		broken := rule
		broken.ToStageID = ""
		event := workflowTypes.StageChangeEvent{ToStageID: ""}
		if RuleMatches(event, broken) {
			t.Error("expected no match")
		}
	})
}

func TestMatchReturnsAllMatches(t *testing.T) {
	rules := []workflowTypes.WorkflowRule{
		{Name: "a", Active: true, ToStageID: "S_processed"},
		{Name: "b", Active: true, ToStageID: "S_processed", FromStageID: "S_lead"},
		{Name: "c", Active: true, ToStageID: "S_won"},
		{Name: "d", Active: false, ToStageID: "S_processed"},
	}
	event := workflowTypes.StageChangeEvent{
		FromStageID: "S_lead",
		ToStageID:   "S_processed",
	}

	matched := Match(event, rules)
	if len(matched) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matched))
	}
	if matched[0].Name != "a" || matched[1].Name != "b" {
		t.Errorf("unexpected match set: %v", matched)
	}
}
