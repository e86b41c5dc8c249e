package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/exec"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/pos_sync/config"
	"github.com/mmdatafocus/pos_sync/models"
	"github.com/sirupsen/logrus"
)

type printReceiptRequest struct {
	Transaction   models.Record `json:"transaction" binding:"required"`
	BusinessSetup models.Record `json:"businessSetup"`
}

// receiptPrinter hands a receipt to whatever renders it.
type receiptPrinter interface {
	Print(ctx context.Context, receipt []byte) error
}

func newReceiptPrinter(command string) receiptPrinter {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return logPrinter{}
	}
	return commandPrinter{name: fields[0], args: fields[1:], timeout: 30 * time.Second}
}

// commandPrinter pipes the receipt JSON into an external command on stdin.
type commandPrinter struct {
	name    string
	args    []string
	timeout time.Duration
}

func (p commandPrinter) Print(ctx context.Context, receipt []byte) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.name, p.args...)
	cmd.Stdin = bytes.NewReader(receipt)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("print command %s: %w: %s", p.name, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// logPrinter is used when no print command is configured.
type logPrinter struct{}

func (logPrinter) Print(_ context.Context, receipt []byte) error {
	config.GetLogger().WithFields(logrus.Fields{
		"field": "print-receipt",
		"bytes": len(receipt),
	}).Info("no PRINT_COMMAND configured, receipt not printed")
	return nil
}

func printReceiptHandler(a *app) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req printReceiptRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "transaction is required"})
			return
		}
		receipt, err := json.Marshal(req)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		if err := a.printer.Print(c.Request.Context(), receipt); err != nil {
			config.LogError(config.GetLogger(), "main", "printReceiptHandler", "print receipt", nil, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to print receipt"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
