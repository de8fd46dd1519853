package apihandlers

import (
	"net/http"

	crmDB "github.com/clinicflow/clinicflow-backend/pkg/db/crm"
	workflowDB "github.com/clinicflow/clinicflow-backend/pkg/db/workflow"
	"github.com/gin-gonic/gin"
)

func HealthCheckHandle(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type HttpEndpoints struct {
	workflowDBConn     *workflowDB.WorkflowDBService
	crmDBConn          *crmDB.CRMDBService
	apiKeys            []string
	allowedInstanceIDs []string
}

func NewHTTPHandler(
	workflowDBConn *workflowDB.WorkflowDBService,
	crmDBConn *crmDB.CRMDBService,
	apiKeys []string,
	allowedInstanceIDs []string,
) *HttpEndpoints {
	return &HttpEndpoints{
		workflowDBConn:     workflowDBConn,
		crmDBConn:          crmDBConn,
		apiKeys:            apiKeys,
		allowedInstanceIDs: allowedInstanceIDs,
	}
}

// checkInstanceID aborts the request when the instance in the path is
// not served by this deployment.
func (h *HttpEndpoints) checkInstanceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		instanceID := c.Param("instanceID")
		for _, id := range h.allowedInstanceIDs {
			if id == instanceID {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown instance"})
	}
}
