package server

import (
	"errors"
	"net/http"

	allocationdomain "github.com/Mayne0963/otw-chi-sub000/internal/allocation/domain"
	ledgerdomain "github.com/Mayne0963/otw-chi-sub000/internal/ledger/domain"
	membershipdomain "github.com/Mayne0963/otw-chi-sub000/internal/membership/domain"
	plandomain "github.com/Mayne0963/otw-chi-sub000/internal/plan/domain"
	requestdomain "github.com/Mayne0963/otw-chi-sub000/internal/request/domain"
	walletdomain "github.com/Mayne0963/otw-chi-sub000/internal/wallet/domain"
	"github.com/gin-gonic/gin"
)

// ErrNotFound hides resources the caller may not see.
var ErrNotFound = errors.New("not_found")

// APIError is the wire shape for every error response.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e *APIError) Error() string { return e.Code }

func invalidRequestError() *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "invalid_request",
		Message: "request body could not be parsed",
	}
}

func newValidationError(field, code, message string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    code,
		Field:   field,
		Message: message,
	}
}

func unauthorizedError() *APIError {
	return &APIError{
		Status:  http.StatusUnauthorized,
		Code:    "unauthorized",
		Message: "missing or invalid credentials",
	}
}

func rateLimitedError() *APIError {
	return &APIError{
		Status:  http.StatusTooManyRequests,
		Code:    "rate_limited",
		Message: "too many requests, slow down",
	}
}

// AbortWithError maps domain errors onto HTTP statuses and writes the
// response.
func AbortWithError(c *gin.Context, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		c.AbortWithStatusJSON(apiErr.Status, gin.H{"error": apiErr})
		return
	}

	status := http.StatusInternalServerError
	code := "internal_error"
	message := "something went wrong"

	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, requestdomain.ErrRequestNotFound),
		errors.Is(err, plandomain.ErrPlanNotFound),
		errors.Is(err, walletdomain.ErrWalletNotFound),
		errors.Is(err, membershipdomain.ErrMembershipNotFound):
		status = http.StatusNotFound
		code = "not_found"
		message = "resource not found"
	case errors.Is(err, requestdomain.ErrPlanNotAllowed),
		errors.Is(err, membershipdomain.ErrMembershipNotActive):
		status = http.StatusForbidden
		code = "plan_not_allowed"
		message = "membership plan does not permit this request"
	case errors.Is(err, walletdomain.ErrInsufficientMiles):
		status = http.StatusPaymentRequired
		code = "insufficient_miles"
		message = "wallet balance does not cover this request"
	case errors.Is(err, requestdomain.ErrCompletedRequestsImmutable):
		status = http.StatusConflict
		code = "completed_requests_immutable"
		message = "delivered requests cannot be changed"
	case errors.Is(err, requestdomain.ErrRequestStateChanged):
		status = http.StatusConflict
		code = "request_state_changed"
		message = "request changed state, retry with fresh data"
	case errors.Is(err, requestdomain.ErrInvalidServiceType),
		errors.Is(err, walletdomain.ErrInvalidAmount),
		errors.Is(err, ledgerdomain.ErrInvalidEntry),
		errors.Is(err, allocationdomain.ErrInvalidEvent):
		status = http.StatusBadRequest
		code = "invalid_request"
		message = err.Error()
	}

	c.AbortWithStatusJSON(status, gin.H{"error": &APIError{
		Status:  status,
		Code:    code,
		Message: message,
	}})
}
