package scheduler

import (
	"fmt"
	"log/slog"
	"time"

	contextbuilder "github.com/clinicflow/clinicflow-backend/pkg/workflow/context-builder"
	"github.com/clinicflow/clinicflow-backend/pkg/workflow/matcher"
	"github.com/clinicflow/clinicflow-backend/pkg/workflow/templates"
	workflowTypes "github.com/clinicflow/clinicflow-backend/pkg/workflow/types"
)

// WorkflowStore is the slice of the workflow DB service the scheduler
// needs. Satisfied by *workflow.WorkflowDBService.
type WorkflowStore interface {
	GetActiveRulesForTargetStage(instanceID string, toStageID string) ([]workflowTypes.WorkflowRule, error)
	GetActionsForRule(instanceID string, workflowID string) ([]workflowTypes.WorkflowAction, error)
	AddOccurrence(instanceID string, occurrence workflowTypes.WorkflowOccurrence) (workflowTypes.WorkflowOccurrence, error)
}

type Scheduler struct {
	WorkflowDB WorkflowStore
	CRMDB      contextbuilder.EntityLookups
}

func NewScheduler(workflowDB WorkflowStore, crmDB contextbuilder.EntityLookups) *Scheduler {
	return &Scheduler{
		WorkflowDB: workflowDB,
		CRMDB:      crmDB,
	}
}

// PlanOccurrences computes when an action fires relative to now.
//
// Immediate fires once right away. Delay fires once after the
// configured minutes, or right away when no positive delay is set.
// Recurring fires up to the capped number of times, spaced by the
// configured day interval, degenerating to a single immediate firing
// when the interval is not positive.
func PlanOccurrences(action workflowTypes.WorkflowAction, now time.Time) []time.Time {
	switch action.SendMode {
	case workflowTypes.SEND_MODE_DELAY:
		if action.DelayMinutes > 0 {
			return []time.Time{now.Add(time.Duration(action.DelayMinutes) * time.Minute)}
		}
		return []time.Time{now}
	case workflowTypes.SEND_MODE_RECURRING:
		if action.RecurringEveryDays <= 0 {
			return []time.Time{now}
		}
		times := action.RecurringTimes
		if times <= 0 {
			times = 1
		}
		if times > workflowTypes.MAX_RECURRING_TIMES {
			times = workflowTypes.MAX_RECURRING_TIMES
		}
		interval := time.Duration(action.RecurringEveryDays) * 24 * time.Hour
		plan := make([]time.Time, 0, times)
		for i := 0; i < times; i++ {
			plan = append(plan, now.Add(time.Duration(i)*interval))
		}
		return plan
	default:
		return []time.Time{now}
	}
}

// HandleStageChangeEvent evaluates an event against all active rules
// and persists one pending occurrence per planned firing of every
// matching action. Returns the number of occurrences scheduled.
func (s *Scheduler) HandleStageChangeEvent(instanceID string, event workflowTypes.StageChangeEvent) (int, error) {
	if err := workflowTypes.CheckStageChangeEvent(event); err != nil {
		return 0, err
	}

	candidates, err := s.WorkflowDB.GetActiveRulesForTargetStage(instanceID, event.ToStageID)
	if err != nil {
		return 0, err
	}

	matchedRules := matcher.Match(event, candidates)
	if len(matchedRules) == 0 {
		return 0, nil
	}

	// one fresh context per event, used for scheduling-time rendering
	ctx, err := contextbuilder.BuildStageChangeContext(s.CRMDB, instanceID, event)
	if err != nil {
		return 0, fmt.Errorf("could not build template context: %w", err)
	}

	now := time.Now()
	scheduled := 0
	for _, rule := range matchedRules {
		actions, err := s.WorkflowDB.GetActionsForRule(instanceID, rule.ID.Hex())
		if err != nil {
			slog.Error("Failed to load actions for rule", slog.String("instanceID", instanceID), slog.String("ruleID", rule.ID.Hex()), slog.String("error", err.Error()))
			continue
		}

		for _, action := range actions {
			plan := PlanOccurrences(action, now)

			// recurring sends re-render at each firing so the content
			// reflects the entity state at that moment
			renderAtFiring := action.SendMode == workflowTypes.SEND_MODE_RECURRING

			var subject, content string
			if !renderAtFiring {
				subject, content = templates.RenderEmail(
					action.SubjectTemplate,
					action.BodyTemplate,
					action.BodyHTMLTemplate,
					action.UseHTML,
					ctx,
				)
			}

			for i, notBefore := range plan {
				occurrence := workflowTypes.WorkflowOccurrence{
					RuleID:          rule.ID,
					ActionID:        action.ID,
					OccurrenceIndex: i + 1,
					Event:           event,
					NotBefore:       notBefore.Unix(),
					Status:          workflowTypes.OCCURRENCE_STATUS_PENDING,
					RenderAtFiring:  renderAtFiring,
					Subject:         subject,
					Content:         content,
					AddedAt:         now.Unix(),
				}
				if _, err := s.WorkflowDB.AddOccurrence(instanceID, occurrence); err != nil {
					slog.Error("Failed to schedule occurrence", slog.String("instanceID", instanceID), slog.String("ruleID", rule.ID.Hex()), slog.String("actionID", action.ID.Hex()), slog.Int("occurrenceIndex", i+1), slog.String("error", err.Error()))
					continue
				}
				scheduled++
			}
		}
	}

	return scheduled, nil
}
