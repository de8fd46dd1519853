package dispatch

import (
	"errors"
	"log/slog"

	workflowDB "github.com/clinicflow/clinicflow-backend/pkg/db/workflow"
	contextbuilder "github.com/clinicflow/clinicflow-backend/pkg/workflow/context-builder"
	"github.com/clinicflow/clinicflow-backend/pkg/workflow/templates"
	workflowTypes "github.com/clinicflow/clinicflow-backend/pkg/workflow/types"
	"go.mongodb.org/mongo-driver/mongo"
)

// dispatch results
const (
	DISPATCH_RESULT_SENT         = "sent"
	DISPATCH_RESULT_ALREADY_SENT = "already-sent"
	DISPATCH_RESULT_CANCELLED    = "cancelled"
	DISPATCH_RESULT_FAILED       = "failed"
)

// Outcome describes what happened to one due occurrence.
type Outcome struct {
	Result string
	To     string
	Reason string
}

// DispatchStore is the slice of the workflow DB service the dispatcher
// needs. Satisfied by *workflow.WorkflowDBService.
type DispatchStore interface {
	GetRuleByID(instanceID string, id string) (*workflowTypes.WorkflowRule, error)
	GetActionByID(instanceID string, id string) (*workflowTypes.WorkflowAction, error)
	GetDispatchByDedupKey(instanceID string, dedupKey string) (*workflowTypes.WorkflowDispatch, error)
	AddDispatch(instanceID string, dispatch workflowTypes.WorkflowDispatch) (workflowTypes.WorkflowDispatch, error)
}

type Dispatcher struct {
	WorkflowDB DispatchStore
	CRMDB      contextbuilder.EntityLookups
	Sender     EmailSender
}

func NewDispatcher(workflowDB DispatchStore, crmDB contextbuilder.EntityLookups, sender EmailSender) *Dispatcher {
	return &Dispatcher{
		WorkflowDB: workflowDB,
		CRMDB:      crmDB,
		Sender:     sender,
	}
}

// Fire handles one due occurrence: it re-checks cancellation conditions
// at firing time, resolves the destination from a freshly built
// context, renders recurring content, and performs the idempotent send.
//
// A non-nil error signals an infrastructure problem, the occurrence
// should be released and retried later. Transport failures and
// cancellations are reported through the outcome instead.
func (d *Dispatcher) Fire(instanceID string, occurrence workflowTypes.WorkflowOccurrence) (Outcome, error) {
	// cancellation checks happen now, not at scheduling time, so rule
	// deactivation during a long recurring series is honored
	rule, err := d.WorkflowDB.GetRuleByID(instanceID, occurrence.RuleID.Hex())
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Outcome{Result: DISPATCH_RESULT_CANCELLED, Reason: "rule deleted"}, nil
		}
		return Outcome{}, err
	}
	if !rule.Active {
		return Outcome{Result: DISPATCH_RESULT_CANCELLED, Reason: "rule inactive"}, nil
	}

	action, err := d.WorkflowDB.GetActionByID(instanceID, occurrence.ActionID.Hex())
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Outcome{Result: DISPATCH_RESULT_CANCELLED, Reason: "action deleted"}, nil
		}
		return Outcome{}, err
	}

	ctx, err := contextbuilder.BuildStageChangeContext(d.CRMDB, instanceID, occurrence.Event)
	if err != nil {
		if errors.Is(err, contextbuilder.ErrEntityGone) {
			return Outcome{Result: DISPATCH_RESULT_CANCELLED, Reason: "entity deleted"}, nil
		}
		return Outcome{}, err
	}

	// destination is resolved at firing time so an updated address is
	// honored for later occurrences
	to := contextbuilder.PatientEmailFromContext(ctx)
	if to == "" {
		return Outcome{Result: DISPATCH_RESULT_FAILED, Reason: "no recipient address"}, nil
	}

	subject := occurrence.Subject
	content := occurrence.Content
	if occurrence.RenderAtFiring {
		subject, content = templates.RenderEmail(
			action.SubjectTemplate,
			action.BodyTemplate,
			action.BodyHTMLTemplate,
			action.UseHTML,
			ctx,
		)
	}

	dedupKey := occurrence.DedupKey()
	existing, err := d.WorkflowDB.GetDispatchByDedupKey(instanceID, dedupKey)
	if err != nil {
		return Outcome{}, err
	}
	if existing != nil {
		slog.Debug("Dispatch already recorded, skipping send", slog.String("instanceID", instanceID), slog.String("dedupKey", dedupKey))
		return Outcome{Result: DISPATCH_RESULT_ALREADY_SENT, To: existing.To}, nil
	}

	if err := d.Sender.SendEmail([]string{to}, subject, content, false); err != nil {
		return Outcome{Result: DISPATCH_RESULT_FAILED, To: to, Reason: err.Error()}, nil
	}

	_, err = d.WorkflowDB.AddDispatch(instanceID, workflowTypes.WorkflowDispatch{
		DedupKey:        dedupKey,
		RuleID:          occurrence.RuleID,
		ActionID:        occurrence.ActionID,
		OccurrenceIndex: occurrence.OccurrenceIndex,
		DealID:          occurrence.Event.DealID,
		To:              to,
		Subject:         subject,
	})
	if err != nil && !errors.Is(err, workflowDB.ErrDispatchAlreadyRecorded) {
		// the email went out, only the record failed
		slog.Error("Failed to record dispatch", slog.String("instanceID", instanceID), slog.String("dedupKey", dedupKey), slog.String("error", err.Error()))
	}

	return Outcome{Result: DISPATCH_RESULT_SENT, To: to}, nil
}
