package matcher

import (
	workflowTypes "github.com/clinicflow/clinicflow-backend/pkg/workflow/types"
)

// Match returns every rule the event satisfies. Rules are evaluated
// independently, more than one may match and all matches are returned
// in rule order.
func Match(event workflowTypes.StageChangeEvent, rules []workflowTypes.WorkflowRule) []workflowTypes.WorkflowRule {
	matched := []workflowTypes.WorkflowRule{}
	for _, rule := range rules {
		if RuleMatches(event, rule) {
			matched = append(matched, rule)
		}
	}
	return matched
}

// RuleMatches applies the trigger predicate of a single rule. An unset
// origin stage or pipeline filter matches anything.
func RuleMatches(event workflowTypes.StageChangeEvent, rule workflowTypes.WorkflowRule) bool {
	if !rule.Active {
		return false
	}
	// misconfigured rules are rejected at save time, never match them
	if rule.ToStageID == "" {
		return false
	}
	if rule.ToStageID != event.ToStageID {
		return false
	}
	if rule.FromStageID != "" && rule.FromStageID != event.FromStageID {
		return false
	}
	if rule.PipelineFilter != "" && rule.PipelineFilter != event.Pipeline {
		return false
	}
	return true
}
