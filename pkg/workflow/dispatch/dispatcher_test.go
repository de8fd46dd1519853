package dispatch

import (
	"errors"
	"testing"

	"github.com/clinicflow/clinicflow-backend/pkg/db/crm"
	workflowTypes "github.com/clinicflow/clinicflow-backend/pkg/workflow/types"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type fakeDispatchStore struct {
	rule       *workflowTypes.WorkflowRule
	action     *workflowTypes.WorkflowAction
	dispatches map[string]workflowTypes.WorkflowDispatch
}

func (s *fakeDispatchStore) GetRuleByID(instanceID string, id string) (*workflowTypes.WorkflowRule, error) {
	if s.rule == nil {
		return nil, mongo.ErrNoDocuments
	}
	return s.rule, nil
}

func (s *fakeDispatchStore) GetActionByID(instanceID string, id string) (*workflowTypes.WorkflowAction, error) {
	if s.action == nil {
		return nil, mongo.ErrNoDocuments
	}
	return s.action, nil
}

func (s *fakeDispatchStore) GetDispatchByDedupKey(instanceID string, dedupKey string) (*workflowTypes.WorkflowDispatch, error) {
	if d, ok := s.dispatches[dedupKey]; ok {
		return &d, nil
	}
	return nil, nil
}

func (s *fakeDispatchStore) AddDispatch(instanceID string, dispatch workflowTypes.WorkflowDispatch) (workflowTypes.WorkflowDispatch, error) {
	if s.dispatches == nil {
		s.dispatches = map[string]workflowTypes.WorkflowDispatch{}
	}
	s.dispatches[dispatch.DedupKey] = dispatch
	return dispatch, nil
}

type fakeLookups struct {
	dealGone bool
	email    string
}

func (l fakeLookups) GetPatientByID(instanceID string, id string) (*crm.Patient, error) {
	return &crm.Patient{ID: id, FirstName: "Amal", Email: l.email}, nil
}

func (l fakeLookups) GetDealByID(instanceID string, id string) (*crm.Deal, error) {
	if l.dealGone {
		return nil, crm.ErrNotFound
	}
	return &crm.Deal{ID: id, Title: "Checkup", PatientID: "p1"}, nil
}

func (l fakeLookups) GetStageByID(instanceID string, id string) (*crm.Stage, error) {
	return &crm.Stage{ID: id, Name: "Processed"}, nil
}

type fakeSender struct {
	sent []SendEmailReq
	fail error
}

func (s *fakeSender) SendEmail(to []string, subject string, content string, highPrio bool) error {
	if s.fail != nil {
		return s.fail
	}
	s.sent = append(s.sent, SendEmailReq{To: to, Subject: subject, Content: content, HighPrio: highPrio})
	return nil
}

func testOccurrence(ruleID, actionID primitive.ObjectID) workflowTypes.WorkflowOccurrence {
	return workflowTypes.WorkflowOccurrence{
		ID:              primitive.NewObjectID(),
		RuleID:          ruleID,
		ActionID:        actionID,
		OccurrenceIndex: 1,
		Event: workflowTypes.StageChangeEvent{
			DealID:      "d1",
			PatientID:   "p1",
			FromStageID: "S_lead",
			ToStageID:   "S_processed",
		},
		Status:  workflowTypes.OCCURRENCE_STATUS_PENDING,
		Subject: "Hello",
		Content: "Body",
	}
}

func TestFire(t *testing.T) {
	ruleID := primitive.NewObjectID()
	actionID := primitive.NewObjectID()

	newStore := func() *fakeDispatchStore {
		return &fakeDispatchStore{
			rule: &workflowTypes.WorkflowRule{ID: ruleID, Active: true, ToStageID: "S_processed"},
			action: &workflowTypes.WorkflowAction{
				ID:              actionID,
				WorkflowID:      ruleID,
				SubjectTemplate: "Hi {{patient.first_name}}",
				BodyTemplate:    "Re {{deal.title}}",
				SendMode:        workflowTypes.SEND_MODE_RECURRING,
			},
		}
	}

	t.Run("prerendered send", func(t *testing.T) {
		store := newStore()
		sender := &fakeSender{}
		d := NewDispatcher(store, fakeLookups{email: "amal@example.com"}, sender)

		outcome, err := d.Fire("test-instance", testOccurrence(ruleID, actionID))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if outcome.Result != DISPATCH_RESULT_SENT {
			t.Fatalf("unexpected outcome: %+v", outcome)
		}
		if len(sender.sent) != 1 || sender.sent[0].Subject != "Hello" {
			t.Errorf("unexpected sends: %+v", sender.sent)
		}
		if sender.sent[0].To[0] != "amal@example.com" {
			t.Errorf("unexpected destination: %v", sender.sent[0].To)
		}
	})

	t.Run("recurring occurrence rendered at firing time", func(t *testing.T) {
		store := newStore()
		sender := &fakeSender{}
		d := NewDispatcher(store, fakeLookups{email: "amal@example.com"}, sender)

		occurrence := testOccurrence(ruleID, actionID)
		occurrence.RenderAtFiring = true
		occurrence.Subject = ""
		occurrence.Content = ""

		outcome, err := d.Fire("test-instance", occurrence)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if outcome.Result != DISPATCH_RESULT_SENT {
			t.Fatalf("unexpected outcome: %+v", outcome)
		}
		if sender.sent[0].Subject != "Hi Amal" {
			t.Errorf("unexpected subject: %q", sender.sent[0].Subject)
		}
		if sender.sent[0].Content != "Re Checkup" {
			t.Errorf("unexpected content: %q", sender.sent[0].Content)
		}
	})

	t.Run("inactive rule cancels", func(t *testing.T) {
		store := newStore()
		store.rule.Active = false
		d := NewDispatcher(store, fakeLookups{email: "amal@example.com"}, &fakeSender{})

		outcome, err := d.Fire("test-instance", testOccurrence(ruleID, actionID))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if outcome.Result != DISPATCH_RESULT_CANCELLED || outcome.Reason != "rule inactive" {
			t.Errorf("unexpected outcome: %+v", outcome)
		}
	})

	t.Run("deleted rule cancels", func(t *testing.T) {
		store := newStore()
		store.rule = nil
		d := NewDispatcher(store, fakeLookups{email: "amal@example.com"}, &fakeSender{})

		outcome, err := d.Fire("test-instance", testOccurrence(ruleID, actionID))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if outcome.Result != DISPATCH_RESULT_CANCELLED {
			t.Errorf("unexpected outcome: %+v", outcome)
		}
	})

	t.Run("deleted deal cancels", func(t *testing.T) {
		store := newStore()
		d := NewDispatcher(store, fakeLookups{dealGone: true}, &fakeSender{})

		outcome, err := d.Fire("test-instance", testOccurrence(ruleID, actionID))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if outcome.Result != DISPATCH_RESULT_CANCELLED || outcome.Reason != "entity deleted" {
			t.Errorf("unexpected outcome: %+v", outcome)
		}
	})

	t.Run("missing recipient fails without send", func(t *testing.T) {
		store := newStore()
		sender := &fakeSender{}
		d := NewDispatcher(store, fakeLookups{email: ""}, sender)

		outcome, err := d.Fire("test-instance", testOccurrence(ruleID, actionID))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if outcome.Result != DISPATCH_RESULT_FAILED {
			t.Errorf("unexpected outcome: %+v", outcome)
		}
		if len(sender.sent) != 0 {
			t.Error("nothing should have been sent")
		}
	})

	t.Run("transport failure reported, not an error", func(t *testing.T) {
		store := newStore()
		d := NewDispatcher(store, fakeLookups{email: "amal@example.com"}, &fakeSender{fail: errors.New("smtp unavailable")})

		outcome, err := d.Fire("test-instance", testOccurrence(ruleID, actionID))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if outcome.Result != DISPATCH_RESULT_FAILED || outcome.Reason != "smtp unavailable" {
			t.Errorf("unexpected outcome: %+v", outcome)
		}
		if len(store.dispatches) != 0 {
			t.Error("failed send must not be recorded")
		}
	})

	t.Run("retried dispatch is idempotent", func(t *testing.T) {
		store := newStore()
		sender := &fakeSender{}
		d := NewDispatcher(store, fakeLookups{email: "amal@example.com"}, sender)

		occurrence := testOccurrence(ruleID, actionID)
		outcome, err := d.Fire("test-instance", occurrence)
		if err != nil || outcome.Result != DISPATCH_RESULT_SENT {
			t.Fatalf("first fire failed: %+v %v", outcome, err)
		}

		outcome, err = d.Fire("test-instance", occurrence)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if outcome.Result != DISPATCH_RESULT_ALREADY_SENT {
			t.Errorf("unexpected outcome: %+v", outcome)
		}
		if len(sender.sent) != 1 {
			t.Errorf("expected exactly one physical send, got %d", len(sender.sent))
		}
	})
}
