package server

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	allocationdomain "github.com/Mayne0963/otw-chi-sub000/internal/allocation/domain"
	"github.com/gin-gonic/gin"
)

const webhookSecretHeader = "X-Webhook-Secret"

type billingEventRequest struct {
	InvoiceID        string     `json:"invoice_id"`
	UserID           string     `json:"user_id"`
	Plan             string     `json:"plan"`
	CurrentPeriodEnd *time.Time `json:"current_period_end"`
}

// HandleBillingEvent ingests a paid-invoice webhook and allocates the
// month's miles. Replays of an already-processed invoice return 200 so the
// provider stops retrying; a mid-flight race returns 409 so it retries and
// lands on the processed path.
func (s *Server) HandleBillingEvent(c *gin.Context) {
	if s.cfg.BillingWebhookSecret != "" {
		provided := c.GetHeader(webhookSecretHeader)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(s.cfg.BillingWebhookSecret)) != 1 {
			AbortWithError(c, unauthorizedError())
			return
		}
	}

	var req billingEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.allocationSvc.Allocate(c.Request.Context(), allocationdomain.BillingEvent{
		InvoiceID: strings.TrimSpace(req.InvoiceID),
		UserID:    strings.TrimSpace(req.UserID),
		PlanName:  strings.TrimSpace(req.Plan),
		PeriodEnd: req.CurrentPeriodEnd,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	status := http.StatusOK
	if result.Outcome == allocationdomain.OutcomeRaceDetected {
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{"data": result})
}
