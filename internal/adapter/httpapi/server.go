// Package httpapi exposes the billing core over a JSON HTTP API.
package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/danielglasgow/bracehealth/internal/domain"
	"github.com/danielglasgow/bracehealth/internal/ledger"
	"github.com/danielglasgow/bracehealth/internal/observability/metrics"
	"github.com/danielglasgow/bracehealth/internal/usecase/payment"
	"github.com/danielglasgow/bracehealth/internal/usecase/receivable"
	"github.com/danielglasgow/bracehealth/internal/usecase/submission"
)

// Server wires the billing services to their HTTP routes.
type Server struct {
	submissions *submission.Service
	payments    *payment.Service
	receivables *receivable.Service
	store       *ledger.Store
	logger      zerolog.Logger
}

// NewServer creates the HTTP adapter.
func NewServer(
	submissions *submission.Service,
	payments *payment.Service,
	receivables *receivable.Service,
	store *ledger.Store,
	logger zerolog.Logger,
) *Server {
	return &Server{
		submissions: submissions,
		payments:    payments,
		receivables: receivables,
		store:       store,
		logger:      logger,
	}
}

// RegisterRoutes attaches middleware and routes to the echo instance.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.Use(Recovery(s.logger))
	e.Use(RequestID())
	e.Use(Logger(s.logger))

	e.GET("/healthz", s.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/v1")
	api.POST("/claims", s.SubmitClaim)
	api.GET("/claims", s.ListClaims)
	api.GET("/claims/pending", s.PendingClaims)
	api.GET("/claims/:id", s.GetClaim)
	api.GET("/claims/:id/balance", s.GetBalance)
	api.GET("/claims/:id/progress", s.GetProgress)
	api.POST("/claims/:id/payments", s.PayClaim)
	api.POST("/remittances", s.NotifyRemittance)
	api.POST("/reports/payer-receivables", s.PayerReceivables)
	api.POST("/reports/patient-receivables", s.PatientReceivables)
}

// Health reports liveness and the current ledger size.
func (s *Server) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"claims": s.store.ClaimCount(),
	})
}

// SubmitClaim handles POST /api/v1/claims.
func (s *Server) SubmitClaim(c echo.Context) error {
	var req submitClaimRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.Claim.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	result, err := s.submissions.SubmitClaim(c.Request().Context(), req.Claim)
	if err != nil {
		return httpError(err)
	}
	metrics.ObserveClaimSubmitted(string(result))
	status := http.StatusOK
	switch result {
	case submission.ResultAccepted:
		status = http.StatusCreated
	case submission.ResultAlreadySubmitted:
		status = http.StatusConflict
	case submission.ResultRejected:
		status = http.StatusBadGateway
	}
	return c.JSON(status, submitClaimResponse{Result: result})
}

// NotifyRemittance handles POST /api/v1/remittances, the gateway's way
// back into the ledger.
func (s *Server) NotifyRemittance(c echo.Context) error {
	var req notifyRemittanceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := s.submissions.NotifyRemittance(req.Remittance); err != nil {
		metrics.ObserveRemittance("error")
		return httpError(err)
	}
	metrics.ObserveRemittance("success")
	return c.JSON(http.StatusOK, notifyRemittanceResponse{Success: true})
}

// PayClaim handles POST /api/v1/claims/:id/payments.
func (s *Server) PayClaim(c echo.Context) error {
	var req payClaimRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	amount, err := domain.MoneyFromWire(req.Amount)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	outcome, err := s.payments.PayClaim(c.Param("id"), amount)
	if err != nil {
		return httpError(err)
	}
	metrics.ObservePatientPayment(string(outcome))
	return c.JSON(http.StatusOK, payClaimResponse{Outcome: outcome})
}

// GetClaim handles GET /api/v1/claims/:id.
func (s *Server) GetClaim(c echo.Context) error {
	claim, ok := s.store.GetClaim(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "claim not found")
	}
	return c.JSON(http.StatusOK, claim)
}

// GetProgress handles GET /api/v1/claims/:id/progress.
func (s *Server) GetProgress(c echo.Context) error {
	progress, ok := s.store.GetProgress(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "claim not found")
	}
	return c.JSON(http.StatusOK, progressResponse{
		Progress: progress,
		Status:   progress.Status(),
	})
}

// GetBalance handles GET /api/v1/claims/:id/balance.
func (s *Server) GetBalance(c echo.Context) error {
	balance, err := s.payments.OutstandingBalance(c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, balanceResponse{
		Balance: balance,
		Total:   balance.Total(),
	})
}

// ListClaims handles GET /api/v1/claims?patient=<patient id>.
func (s *Server) ListClaims(c echo.Context) error {
	patient := c.QueryParam("patient")
	if patient == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "patient query parameter is required")
	}
	claims := s.store.ClaimsByPatient(domain.PatientID(patient))
	return c.JSON(http.StatusOK, claimListResponse{Claims: claims})
}

// PendingClaims handles GET /api/v1/claims/pending: claims still
// awaiting payer remittance.
func (s *Server) PendingClaims(c echo.Context) error {
	return c.JSON(http.StatusOK, claimListResponse{Claims: s.store.PendingClaims()})
}

// PayerReceivables handles POST /api/v1/reports/payer-receivables.
func (s *Server) PayerReceivables(c echo.Context) error {
	var req payerReceivablesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rows := s.receivables.PayerAccountsReceivable(req.PayerIDs, req.Buckets)
	return c.JSON(http.StatusOK, payerReceivablesResponse{Rows: rows})
}

// PatientReceivables handles POST /api/v1/reports/patient-receivables.
func (s *Server) PatientReceivables(c echo.Context) error {
	var req patientReceivablesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	patientIDs := req.PatientIDs
	if len(patientIDs) == 0 {
		patientIDs = s.store.Patients()
	}
	rows, err := s.payments.PatientAccountsReceivable(patientIDs)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, patientReceivablesResponse{Rows: rows})
}

// httpError maps business errors to HTTP statuses. Unexpected errors
// become 500s.
func httpError(err error) error {
	var parseErr *domain.ParseError
	switch {
	case domain.IsClaimNotFound(err):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case domain.IsDuplicateClaim(err):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case domain.IsInvalidState(err):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.As(err, &parseErr):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
