package contextbuilder

import (
	"errors"

	"github.com/clinicflow/clinicflow-backend/pkg/db/crm"
	"github.com/clinicflow/clinicflow-backend/pkg/workflow/templates"
	workflowTypes "github.com/clinicflow/clinicflow-backend/pkg/workflow/types"
)

// EntityLookups is the read-only view of the CRM this subsystem needs.
// Satisfied by *crm.CRMDBService.
type EntityLookups interface {
	GetPatientByID(instanceID string, id string) (*crm.Patient, error)
	GetDealByID(instanceID string, id string) (*crm.Deal, error)
	GetStageByID(instanceID string, id string) (*crm.Stage, error)
}

// ErrEntityGone signals that the deal or patient behind the event no
// longer exists; a pending occurrence observing this is cancelled.
var ErrEntityGone = errors.New("referenced entity no longer exists")

// BuildStageChangeContext assembles the template context for one event.
// It is called freshly for every render so recurring sends observe the
// entity state at their own firing time.
func BuildStageChangeContext(lookups EntityLookups, instanceID string, event workflowTypes.StageChangeEvent) (templates.TemplateContext, error) {
	deal, err := lookups.GetDealByID(instanceID, event.DealID)
	if err != nil {
		if errors.Is(err, crm.ErrNotFound) {
			return nil, ErrEntityGone
		}
		return nil, err
	}

	patientID := event.PatientID
	if patientID == "" {
		patientID = deal.PatientID
	}
	patient, err := lookups.GetPatientByID(instanceID, patientID)
	if err != nil {
		if errors.Is(err, crm.ErrNotFound) {
			return nil, ErrEntityGone
		}
		return nil, err
	}

	ctx := templates.TemplateContext{
		"patient": map[string]interface{}{
			"id":         patient.ID,
			"first_name": patient.FirstName,
			"last_name":  patient.LastName,
			"email":      patient.Email,
			"phone":      patient.Phone,
		},
		"deal": map[string]interface{}{
			"id":       deal.ID,
			"title":    deal.Title,
			"pipeline": deal.Pipeline,
			"notes":    deal.Notes,
		},
	}

	// stage lookups are best effort, a removed stage renders as empty
	if event.FromStageID != "" {
		if stage, err := lookups.GetStageByID(instanceID, event.FromStageID); err == nil {
			ctx["from_stage"] = stageEntry(stage)
		}
	}
	if stage, err := lookups.GetStageByID(instanceID, event.ToStageID); err == nil {
		ctx["to_stage"] = stageEntry(stage)
	}

	return ctx, nil
}

func stageEntry(stage *crm.Stage) map[string]interface{} {
	return map[string]interface{}{
		"id":   stage.ID,
		"name": stage.Name,
		"type": stage.Type,
	}
}

// PatientEmailFromContext resolves the destination address from a
// freshly built context, so address changes are honored for later
// occurrences of a recurring series.
func PatientEmailFromContext(ctx templates.TemplateContext) string {
	patient, ok := ctx["patient"].(map[string]interface{})
	if !ok {
		return ""
	}
	email, _ := patient["email"].(string)
	return email
}
