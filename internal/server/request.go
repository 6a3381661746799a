package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	plandomain "github.com/Mayne0963/otw-chi-sub000/internal/plan/domain"
	requestdomain "github.com/Mayne0963/otw-chi-sub000/internal/request/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

type submitRequest struct {
	ServiceType      string     `json:"service_type"`
	PickupAddress    string     `json:"pickup_address"`
	DropoffAddress   string     `json:"dropoff_address"`
	Notes            string     `json:"notes"`
	Priority         bool       `json:"priority"`
	CashHandling     bool       `json:"cash_handling"`
	SitAndWait       bool       `json:"sit_and_wait"`
	ReturnOrExchange bool       `json:"return_or_exchange"`
	PeakHours        bool       `json:"peak_hours"`
	PayWithMiles     *bool      `json:"pay_with_miles"`
	TravelMinutes    int        `json:"travel_minutes"`
	WaitMinutes      int        `json:"wait_minutes"`
	NumberOfStops    int        `json:"number_of_stops"`
	ScheduledStart   *time.Time `json:"scheduled_start"`
	IdempotencyKey   string     `json:"idempotency_key"`
}

func (s *Server) SubmitRequest(c *gin.Context) {
	caller := userID(c)
	if !s.submitLimiter.Allow(caller) {
		AbortWithError(c, rateLimitedError())
		return
	}

	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req.PickupAddress = strings.TrimSpace(req.PickupAddress)
	req.DropoffAddress = strings.TrimSpace(req.DropoffAddress)
	if req.PickupAddress == "" {
		AbortWithError(c, newValidationError("pickup_address", "required", "pickup address is required"))
		return
	}
	if req.DropoffAddress == "" {
		AbortWithError(c, newValidationError("dropoff_address", "required", "dropoff address is required"))
		return
	}

	// Miles are the default tender; clients opt out explicitly.
	payWithMiles := true
	if req.PayWithMiles != nil {
		payWithMiles = *req.PayWithMiles
	}

	created, err := s.requestSvc.Submit(c.Request.Context(), requestdomain.SubmitInput{
		UserID:           caller,
		ServiceType:      plandomain.ServiceType(strings.ToUpper(strings.TrimSpace(req.ServiceType))),
		PickupAddress:    req.PickupAddress,
		DropoffAddress:   req.DropoffAddress,
		Notes:            strings.TrimSpace(req.Notes),
		Priority:         req.Priority,
		CashHandling:     req.CashHandling,
		SitAndWait:       req.SitAndWait,
		ReturnOrExchange: req.ReturnOrExchange,
		PeakHours:        req.PeakHours,
		PayWithMiles:     payWithMiles,
		TravelMinutes:    req.TravelMinutes,
		WaitMinutes:      req.WaitMinutes,
		NumberOfStops:    req.NumberOfStops,
		ScheduledStart:   req.ScheduledStart,
		IdempotencyKey:   strings.TrimSpace(req.IdempotencyKey),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": created})
}

func (s *Server) ListRequests(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	requests, err := s.requestSvc.ListByUser(c.Request.Context(), userID(c), limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": requests})
}

func (s *Server) GetRequest(c *gin.Context) {
	requestID, ok := parseRequestID(c)
	if !ok {
		return
	}
	req, err := s.requestSvc.GetByID(c.Request.Context(), userID(c), requestID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": req})
}

func (s *Server) CancelRequest(c *gin.Context) {
	requestID, ok := parseRequestID(c)
	if !ok {
		return
	}
	result, err := s.requestSvc.Cancel(c.Request.Context(), userID(c), requestID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

type assignRequest struct {
	DriverID string `json:"driver_id"`
}

func (s *Server) AssignRequest(c *gin.Context) {
	requestID, ok := parseRequestID(c)
	if !ok {
		return
	}
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.DriverID = strings.TrimSpace(req.DriverID)
	if req.DriverID == "" {
		AbortWithError(c, newValidationError("driver_id", "required", "driver id is required"))
		return
	}

	if err := s.requestSvc.Assign(c.Request.Context(), requestID, req.DriverID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) MarkRequestArrived(c *gin.Context) {
	requestID, ok := parseRequestID(c)
	if !ok {
		return
	}
	if err := s.requestSvc.MarkArrived(c.Request.Context(), requestID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) MarkRequestDelivered(c *gin.Context) {
	requestID, ok := parseRequestID(c)
	if !ok {
		return
	}
	if err := s.requestSvc.MarkDelivered(c.Request.Context(), requestID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func parseRequestID(c *gin.Context) (snowflake.ID, bool) {
	raw := strings.TrimSpace(c.Param("id"))
	parsed, err := snowflake.ParseString(raw)
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_request_id", "invalid request id"))
		return 0, false
	}
	return parsed, true
}
