package types

import "go.mongodb.org/mongo-driver/bson/primitive"

const (
	SEND_MODE_IMMEDIATE = "immediate"
	SEND_MODE_DELAY     = "delay"
	SEND_MODE_RECURRING = "recurring"
)

// MAX_RECURRING_TIMES caps how often a recurring action may fire.
const MAX_RECURRING_TIMES = 30

// WorkflowAction is the templated email an owning rule produces,
// together with its delivery timing configuration.
type WorkflowAction struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	WorkflowID         primitive.ObjectID `bson:"workflowId" json:"workflowId"`
	SortOrder          int                `bson:"sortOrder" json:"sortOrder"`
	SubjectTemplate    string             `bson:"subjectTemplate" json:"subject_template"`
	BodyTemplate       string             `bson:"bodyTemplate" json:"body_template"`
	BodyHTMLTemplate   string             `bson:"bodyHtmlTemplate" json:"body_html_template"`
	UseHTML            bool               `bson:"useHtml" json:"use_html"`
	SendMode           string             `bson:"sendMode" json:"send_mode"`
	DelayMinutes       int                `bson:"delayMinutes,omitempty" json:"delay_minutes,omitempty"`
	RecurringEveryDays int                `bson:"recurringEveryDays,omitempty" json:"recurring_every_days,omitempty"`
	RecurringTimes     int                `bson:"recurringTimes,omitempty" json:"recurring_times,omitempty"`
	CreatedAt          int64              `bson:"createdAt" json:"createdAt"`
	UpdatedAt          int64              `bson:"updatedAt" json:"updatedAt"`
}

// SanitizeAction normalizes an action before it is persisted. Unknown
// send modes fall back to immediate, recurring times are clamped.
func SanitizeAction(action WorkflowAction) WorkflowAction {
	switch action.SendMode {
	case SEND_MODE_IMMEDIATE, SEND_MODE_DELAY, SEND_MODE_RECURRING:
	default:
		action.SendMode = SEND_MODE_IMMEDIATE
	}
	if action.RecurringTimes > MAX_RECURRING_TIMES {
		action.RecurringTimes = MAX_RECURRING_TIMES
	}
	return action
}
