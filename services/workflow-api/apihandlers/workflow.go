package apihandlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/clinicflow/clinicflow-backend/pkg/apihelpers"
	mw "github.com/clinicflow/clinicflow-backend/pkg/apihelpers/middlewares"
	"github.com/clinicflow/clinicflow-backend/pkg/workflow/scheduler"
	"github.com/clinicflow/clinicflow-backend/pkg/workflow/templates"
	workflowTypes "github.com/clinicflow/clinicflow-backend/pkg/workflow/types"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
)

func (h *HttpEndpoints) AddWorkflowAPI(rg *gin.RouterGroup) {
	workflowGroup := rg.Group("/workflow")
	workflowGroup.Use(mw.HasValidAPIKey(h.apiKeys))

	// template authoring helpers are instance independent
	workflowGroup.GET("/template-variables", h.getTemplateVariables)
	workflowGroup.POST("/template-preview", mw.RequirePayload(), h.previewTemplate)

	instanceGroup := workflowGroup.Group("/:instanceID")
	instanceGroup.Use(h.checkInstanceID())

	instanceGroup.POST("/events", mw.RequirePayload(), h.ingestStageChangeEvent)

	rulesGroup := instanceGroup.Group("/rules")
	rulesGroup.GET("", h.getWorkflowRules)
	rulesGroup.POST("", mw.RequirePayload(), h.saveWorkflowRule)
	rulesGroup.GET("/:ruleID", h.getWorkflowRule)
	rulesGroup.DELETE("/:ruleID", h.deleteWorkflowRule)
	rulesGroup.GET("/:ruleID/occurrences", h.getOccurrencesForRule)

	actionsGroup := rulesGroup.Group("/:ruleID/actions")
	actionsGroup.GET("", h.getWorkflowActions)
	actionsGroup.POST("", mw.RequirePayload(), h.saveWorkflowAction)
	actionsGroup.DELETE("/:actionID", h.deleteWorkflowAction)
}

// ingestStageChangeEvent is the sole entry point of the automation
// subsystem: one deal moved from one stage to another.
func (h *HttpEndpoints) ingestStageChangeEvent(c *gin.Context) {
	instanceID := c.Param("instanceID")

	var event workflowTypes.StageChangeEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		slog.Error("Failed to parse stage change event", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	if err := workflowTypes.CheckStageChangeEvent(event); err != nil {
		slog.Error("Rejected stage change event", slog.String("instanceID", instanceID), slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s := scheduler.NewScheduler(h.workflowDBConn, h.crmDBConn)
	scheduled, err := s.HandleStageChangeEvent(instanceID, event)
	if err != nil {
		slog.Error("Failed to handle stage change event", slog.String("instanceID", instanceID), slog.String("dealID", event.DealID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process event"})
		return
	}

	slog.Info("Processed stage change event", slog.String("instanceID", instanceID), slog.String("dealID", event.DealID), slog.String("toStageID", event.ToStageID), slog.Int("scheduled", scheduled))
	c.JSON(http.StatusOK, gin.H{"scheduledOccurrences": scheduled})
}

func (h *HttpEndpoints) getWorkflowRules(c *gin.Context) {
	instanceID := c.Param("instanceID")

	rules, err := h.workflowDBConn.GetAllRules(instanceID)
	if err != nil {
		slog.Error("Failed to get workflow rules", slog.String("instanceID", instanceID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get workflow rules"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rules": rules})
}

func (h *HttpEndpoints) getWorkflowRule(c *gin.Context) {
	instanceID := c.Param("instanceID")
	ruleID := c.Param("ruleID")

	rule, err := h.workflowDBConn.GetRuleByID(instanceID, ruleID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "rule not found"})
			return
		}
		slog.Error("Failed to get workflow rule", slog.String("instanceID", instanceID), slog.String("ruleID", ruleID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get workflow rule"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rule": rule})
}

func (h *HttpEndpoints) saveWorkflowRule(c *gin.Context) {
	instanceID := c.Param("instanceID")

	var rule workflowTypes.WorkflowRule
	if err := c.ShouldBindJSON(&rule); err != nil {
		slog.Error("Failed to parse workflow rule", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	// a rule without target stage must never reach the matcher
	if err := workflowTypes.CheckRule(rule); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	saved, err := h.workflowDBConn.SaveRule(instanceID, rule)
	if err != nil {
		slog.Error("Failed to save workflow rule", slog.String("instanceID", instanceID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save workflow rule"})
		return
	}

	slog.Info("Saved workflow rule", slog.String("instanceID", instanceID), slog.String("ruleID", saved.ID.Hex()), slog.String("name", saved.Name))
	c.JSON(http.StatusOK, gin.H{"rule": saved})
}

func (h *HttpEndpoints) deleteWorkflowRule(c *gin.Context) {
	instanceID := c.Param("instanceID")
	ruleID := c.Param("ruleID")

	if err := h.workflowDBConn.DeleteRule(instanceID, ruleID); err != nil {
		slog.Error("Failed to delete workflow rule", slog.String("instanceID", instanceID), slog.String("ruleID", ruleID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete workflow rule"})
		return
	}

	if err := h.workflowDBConn.DeleteActionsForRule(instanceID, ruleID); err != nil {
		slog.Error("Failed to delete actions for workflow rule", slog.String("instanceID", instanceID), slog.String("ruleID", ruleID), slog.String("error", err.Error()))
	}

	// pending occurrences of the deleted rule will not fire
	cancelled, err := h.workflowDBConn.CancelPendingOccurrencesForRule(instanceID, ruleID, "rule deleted")
	if err != nil {
		slog.Error("Failed to cancel pending occurrences", slog.String("instanceID", instanceID), slog.String("ruleID", ruleID), slog.String("error", err.Error()))
	}

	slog.Info("Deleted workflow rule", slog.String("instanceID", instanceID), slog.String("ruleID", ruleID), slog.Int64("cancelledOccurrences", cancelled))
	c.JSON(http.StatusOK, gin.H{"cancelledOccurrences": cancelled})
}

func (h *HttpEndpoints) getOccurrencesForRule(c *gin.Context) {
	instanceID := c.Param("instanceID")
	ruleID := c.Param("ruleID")

	query, err := apihelpers.ParsePaginatedQueryFromCtx(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
		return
	}

	occurrences, err := h.workflowDBConn.GetOccurrencesForRule(instanceID, ruleID, query.Page, query.Limit)
	if err != nil {
		slog.Error("Failed to get occurrences", slog.String("instanceID", instanceID), slog.String("ruleID", ruleID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get occurrences"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"occurrences": occurrences})
}

func (h *HttpEndpoints) getWorkflowActions(c *gin.Context) {
	instanceID := c.Param("instanceID")
	ruleID := c.Param("ruleID")

	actions, err := h.workflowDBConn.GetActionsForRule(instanceID, ruleID)
	if err != nil {
		slog.Error("Failed to get workflow actions", slog.String("instanceID", instanceID), slog.String("ruleID", ruleID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get workflow actions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"actions": actions})
}

func (h *HttpEndpoints) saveWorkflowAction(c *gin.Context) {
	instanceID := c.Param("instanceID")
	ruleID := c.Param("ruleID")

	rule, err := h.workflowDBConn.GetRuleByID(instanceID, ruleID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "rule not found"})
			return
		}
		slog.Error("Failed to get workflow rule", slog.String("instanceID", instanceID), slog.String("ruleID", ruleID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get workflow rule"})
		return
	}

	var action workflowTypes.WorkflowAction
	if err := c.ShouldBindJSON(&action); err != nil {
		slog.Error("Failed to parse workflow action", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	action.WorkflowID = rule.ID
	action = workflowTypes.SanitizeAction(action)

	saved, err := h.workflowDBConn.SaveAction(instanceID, action)
	if err != nil {
		slog.Error("Failed to save workflow action", slog.String("instanceID", instanceID), slog.String("ruleID", ruleID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save workflow action"})
		return
	}

	slog.Info("Saved workflow action", slog.String("instanceID", instanceID), slog.String("ruleID", ruleID), slog.String("actionID", saved.ID.Hex()))
	c.JSON(http.StatusOK, gin.H{"action": saved})
}

func (h *HttpEndpoints) deleteWorkflowAction(c *gin.Context) {
	instanceID := c.Param("instanceID")
	actionID := c.Param("actionID")

	if err := h.workflowDBConn.DeleteAction(instanceID, actionID); err != nil {
		slog.Error("Failed to delete workflow action", slog.String("instanceID", instanceID), slog.String("actionID", actionID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete workflow action"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "action deleted"})
}

func (h *HttpEndpoints) getTemplateVariables(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"variables": templates.TemplateVariableCatalog()})
}

type previewTemplateReq struct {
	Template string                    `json:"template"`
	Context  templates.TemplateContext `json:"context"`
}

// previewTemplate renders a template against a caller supplied context
// and returns both the plain result and a highlighted form for the
// authoring UI.
func (h *HttpEndpoints) previewTemplate(c *gin.Context) {
	var req previewTemplateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rendered":    templates.Render(req.Template, req.Context),
		"highlighted": templates.HighlightTokens(req.Template),
	})
}
