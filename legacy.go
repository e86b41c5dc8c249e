package main

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/pos_sync/config"
	"github.com/mmdatafocus/pos_sync/models"
	"github.com/mmdatafocus/pos_sync/possync"
	"github.com/mmdatafocus/pos_sync/utils"
)

// Single-resource endpoints kept for clients that predate /api/sync.

func listHandler(a *app, col models.Collection) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := a.store.ReadList(c.Request.Context(), col)
		if err != nil {
			config.LogError(config.GetLogger(), "main", "listHandler", "read "+col.Name, nil, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read " + col.Name})
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// bindRecord decodes a JSON object body keeping numbers exact.
func bindRecord(c *gin.Context) (models.Record, bool) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return nil, false
	}
	var rec models.Record
	if err := utils.DecodeJSON(body, &rec); err != nil || rec == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Expected a JSON object"})
		return nil, false
	}
	return rec, true
}

// operationHandler runs the body as a single push operation of opType.
func operationHandler(a *app, opType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, ok := bindRecord(c)
		if !ok {
			return
		}
		applyOperation(c, a, possync.Operation{Type: opType, Data: data})
	}
}

func updateUserHandler(a *app) gin.HandlerFunc {
	return func(c *gin.Context) {
		patch, ok := bindRecord(c)
		if !ok {
			return
		}
		data := models.Record{models.UserIDKey: c.Param("id"), "updates": map[string]any(patch)}
		applyOperation(c, a, possync.Operation{Type: possync.OpUpdateUser, Data: data})
	}
}

func applyOperation(c *gin.Context, a *app, op possync.Operation) {
	res, err := a.sync.Apply(c.Request.Context(), op)
	if err != nil {
		config.LogError(config.GetLogger(), "main", "applyOperation", op.Type, nil, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save"})
		return
	}
	if res.Status == possync.ResultSkipped && res.Reason == possync.ReasonNotFound {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "result": res})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "result": res})
}

func getBusinessSetupHandler(a *app) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := a.store.ReadValue(c.Request.Context(), models.CollectionBusinessSetup)
		if err != nil {
			config.LogError(config.GetLogger(), "main", "getBusinessSetupHandler", "read business setup", nil, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read business setup"})
			return
		}
		c.JSON(http.StatusOK, models.UnwrapBusinessSetup(v))
	}
}

func updateBusinessSetupHandler(a *app) gin.HandlerFunc {
	return func(c *gin.Context) {
		patch, ok := bindRecord(c)
		if !ok {
			return
		}
		merged, err := a.sync.UpdateBusinessSetup(c.Request.Context(), patch)
		if err != nil {
			config.LogError(config.GetLogger(), "main", "updateBusinessSetupHandler", "save business setup", nil, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save"})
			return
		}
		c.JSON(http.StatusOK, merged)
	}
}

func creditSummaryHandler(a *app) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := a.store.ReadList(c.Request.Context(), models.CollectionCreditCustomers)
		if err != nil {
			config.LogError(config.GetLogger(), "main", "creditSummaryHandler", "read credit customers", nil, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read creditCustomers"})
			return
		}
		summaries := make([]models.CreditCustomerSummary, 0, len(list))
		for _, customer := range list {
			summaries = append(summaries, models.SummarizeCreditCustomer(customer))
		}
		c.JSON(http.StatusOK, summaries)
	}
}
