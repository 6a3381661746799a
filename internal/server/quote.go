package server

import (
	"net/http"
	"time"

	"github.com/Mayne0963/otw-chi-sub000/internal/quote"
	"github.com/gin-gonic/gin"
)

type quoteRequest struct {
	TravelMinutes    int        `json:"travel_minutes"`
	WaitMinutes      int        `json:"wait_minutes"`
	SitAndWait       bool       `json:"sit_and_wait"`
	NumberOfStops    int        `json:"number_of_stops"`
	ReturnOrExchange bool       `json:"return_or_exchange"`
	CashHandling     bool       `json:"cash_handling"`
	PeakHours        bool       `json:"peak_hours"`
	ScheduledStart   *time.Time `json:"scheduled_start"`
}

// PreviewQuote prices a job without debiting anything. The caller's plan
// supplies the advance-discount cap so the preview matches submission.
func (s *Server) PreviewQuote(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	var advanceDiscountMax int64
	sub, err := s.memberships.GetByUser(c.Request.Context(), userID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if sub.Active() {
		plan, err := s.plans.GetByID(c.Request.Context(), sub.PlanID)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		advanceDiscountMax = plan.AdvanceDiscountMax
	}

	now := s.clock.Now()
	scheduledStart := now
	if req.ScheduledStart != nil {
		scheduledStart = *req.ScheduledStart
	}

	priced := quote.Calculate(quote.Input{
		TravelMinutes:      req.TravelMinutes,
		WaitMinutes:        req.WaitMinutes,
		SitAndWait:         req.SitAndWait,
		NumberOfStops:      req.NumberOfStops,
		ReturnOrExchange:   req.ReturnOrExchange,
		CashHandling:       req.CashHandling,
		PeakHours:          req.PeakHours,
		ScheduledStart:     scheduledStart,
		Now:                now,
		AdvanceDiscountMax: advanceDiscountMax,
	})

	c.JSON(http.StatusOK, gin.H{"data": priced.Breakdown})
}
