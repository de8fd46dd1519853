package scheduler

import (
	"testing"
	"time"

	"github.com/clinicflow/clinicflow-backend/pkg/db/crm"
	workflowTypes "github.com/clinicflow/clinicflow-backend/pkg/workflow/types"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestPlanOccurrences(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("immediate", func(t *testing.T) {
		plan := PlanOccurrences(workflowTypes.WorkflowAction{SendMode: workflowTypes.SEND_MODE_IMMEDIATE}, now)
		if len(plan) != 1 || !plan[0].Equal(now) {
			t.Errorf("unexpected plan: %v", plan)
		}
	})

	t.Run("delay", func(t *testing.T) {
		plan := PlanOccurrences(workflowTypes.WorkflowAction{
			SendMode:     workflowTypes.SEND_MODE_DELAY,
			DelayMinutes: 90,
		}, now)
		if len(plan) != 1 || !plan[0].Equal(now.Add(90*time.Minute)) {
			t.Errorf("unexpected plan: %v", plan)
		}
	})

	t.Run("delay without positive minutes behaves as immediate", func(t *testing.T) {
		plan := PlanOccurrences(workflowTypes.WorkflowAction{
			SendMode:     workflowTypes.SEND_MODE_DELAY,
			DelayMinutes: 0,
		}, now)
		if len(plan) != 1 || !plan[0].Equal(now) {
			t.Errorf("unexpected plan: %v", plan)
		}
	})

	t.Run("recurring spacing", func(t *testing.T) {
		plan := PlanOccurrences(workflowTypes.WorkflowAction{
			SendMode:           workflowTypes.SEND_MODE_RECURRING,
			RecurringEveryDays: 7,
			RecurringTimes:     3,
		}, now)
		if len(plan) != 3 {
			t.Fatalf("expected 3 occurrences, got %d", len(plan))
		}
		expected := []time.Time{
			now,
			now.Add(7 * 24 * time.Hour),
			now.Add(14 * 24 * time.Hour),
		}
		for i := range expected {
			if !plan[i].Equal(expected[i]) {
				t.Errorf("occurrence %d at %v, expected %v", i+1, plan[i], expected[i])
			}
		}
	})

	t.Run("recurring cap", func(t *testing.T) {
		plan := PlanOccurrences(workflowTypes.WorkflowAction{
			SendMode:           workflowTypes.SEND_MODE_RECURRING,
			RecurringEveryDays: 1,
			RecurringTimes:     45,
		}, now)
		if len(plan) != workflowTypes.MAX_RECURRING_TIMES {
			t.Errorf("expected %d occurrences, got %d", workflowTypes.MAX_RECURRING_TIMES, len(plan))
		}
	})

	t.Run("recurring without positive interval fires once", func(t *testing.T) {
		plan := PlanOccurrences(workflowTypes.WorkflowAction{
			SendMode:           workflowTypes.SEND_MODE_RECURRING,
			RecurringEveryDays: 0,
			RecurringTimes:     5,
		}, now)
		if len(plan) != 1 || !plan[0].Equal(now) {
			t.Errorf("unexpected plan: %v", plan)
		}
	})

	t.Run("recurring without positive times fires once", func(t *testing.T) {
		plan := PlanOccurrences(workflowTypes.WorkflowAction{
			SendMode:           workflowTypes.SEND_MODE_RECURRING,
			RecurringEveryDays: 2,
			RecurringTimes:     0,
		}, now)
		if len(plan) != 1 {
			t.Errorf("unexpected plan: %v", plan)
		}
	})
}

type fakeStore struct {
	rules       []workflowTypes.WorkflowRule
	actions     map[string][]workflowTypes.WorkflowAction
	occurrences []workflowTypes.WorkflowOccurrence
}

func (s *fakeStore) GetActiveRulesForTargetStage(instanceID string, toStageID string) ([]workflowTypes.WorkflowRule, error) {
	result := []workflowTypes.WorkflowRule{}
	for _, r := range s.rules {
		if r.Active && r.ToStageID == toStageID {
			result = append(result, r)
		}
	}
	return result, nil
}

func (s *fakeStore) GetActionsForRule(instanceID string, workflowID string) ([]workflowTypes.WorkflowAction, error) {
	return s.actions[workflowID], nil
}

func (s *fakeStore) AddOccurrence(instanceID string, occurrence workflowTypes.WorkflowOccurrence) (workflowTypes.WorkflowOccurrence, error) {
	s.occurrences = append(s.occurrences, occurrence)
	return occurrence, nil
}

type fakeLookups struct{}

func (fakeLookups) GetPatientByID(instanceID string, id string) (*crm.Patient, error) {
	return &crm.Patient{ID: id, FirstName: "Amal", Email: "amal@example.com"}, nil
}

func (fakeLookups) GetDealByID(instanceID string, id string) (*crm.Deal, error) {
	return &crm.Deal{ID: id, Title: "Checkup", Pipeline: "Geneva", PatientID: "p1"}, nil
}

func (fakeLookups) GetStageByID(instanceID string, id string) (*crm.Stage, error) {
	return &crm.Stage{ID: id, Name: "Processed", Type: "open"}, nil
}

func TestHandleStageChangeEvent(t *testing.T) {
	ruleID := primitive.NewObjectID()
	actionID := primitive.NewObjectID()

	store := &fakeStore{
		rules: []workflowTypes.WorkflowRule{
			{ID: ruleID, Name: "r", Active: true, FromStageID: "S_lead", ToStageID: "S_processed"},
		},
		actions: map[string][]workflowTypes.WorkflowAction{
			ruleID.Hex(): {
				{
					ID:              actionID,
					WorkflowID:      ruleID,
					SubjectTemplate: "Hi {{patient.first_name}}",
					BodyTemplate:    "Re {{deal.title}}",
					SendMode:        workflowTypes.SEND_MODE_IMMEDIATE,
				},
			},
		},
	}
	s := NewScheduler(store, fakeLookups{})

	t.Run("rejects event without target stage", func(t *testing.T) {
		_, err := s.HandleStageChangeEvent("test-instance", workflowTypes.StageChangeEvent{DealID: "d1"})
		if err != workflowTypes.ErrEventMissingToStage {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("no matching rule schedules nothing", func(t *testing.T) {
		n, err := s.HandleStageChangeEvent("test-instance", workflowTypes.StageChangeEvent{
			DealID:      "d1",
			PatientID:   "p1",
			FromStageID: "S_other",
			ToStageID:   "S_processed",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != 0 {
			t.Errorf("expected 0 scheduled, got %d", n)
		}
	})

	t.Run("immediate action rendered at scheduling time", func(t *testing.T) {
		store.occurrences = nil
		n, err := s.HandleStageChangeEvent("test-instance", workflowTypes.StageChangeEvent{
			DealID:      "d1",
			PatientID:   "p1",
			FromStageID: "S_lead",
			ToStageID:   "S_processed",
			Pipeline:    "Geneva",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != 1 || len(store.occurrences) != 1 {
			t.Fatalf("expected 1 scheduled occurrence, got %d", n)
		}
		occurrence := store.occurrences[0]
		if occurrence.Subject != "Hi Amal" {
			t.Errorf("unexpected subject: %q", occurrence.Subject)
		}
		if occurrence.Content != "Re Checkup" {
			t.Errorf("unexpected content: %q", occurrence.Content)
		}
		if occurrence.RenderAtFiring {
			t.Error("immediate occurrence should not re-render at firing")
		}
		if occurrence.OccurrenceIndex != 1 {
			t.Errorf("unexpected occurrence index: %d", occurrence.OccurrenceIndex)
		}
	})

	t.Run("recurring action leaves rendering to firing time", func(t *testing.T) {
		store.occurrences = nil
		store.actions[ruleID.Hex()] = []workflowTypes.WorkflowAction{
			{
				ID:                 actionID,
				WorkflowID:         ruleID,
				SubjectTemplate:    "Hi {{patient.first_name}}",
				BodyTemplate:       "Re {{deal.title}}",
				SendMode:           workflowTypes.SEND_MODE_RECURRING,
				RecurringEveryDays: 7,
				RecurringTimes:     3,
			},
		}
		n, err := s.HandleStageChangeEvent("test-instance", workflowTypes.StageChangeEvent{
			DealID:      "d1",
			PatientID:   "p1",
			FromStageID: "S_lead",
			ToStageID:   "S_processed",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != 3 {
			t.Fatalf("expected 3 scheduled occurrences, got %d", n)
		}
		for i, occurrence := range store.occurrences {
			if !occurrence.RenderAtFiring {
				t.Error("recurring occurrence must render at firing time")
			}
			if occurrence.Subject != "" || occurrence.Content != "" {
				t.Error("recurring occurrence must not carry prerendered content")
			}
			if occurrence.OccurrenceIndex != i+1 {
				t.Errorf("unexpected occurrence index: %d", occurrence.OccurrenceIndex)
			}
		}
	})
}
