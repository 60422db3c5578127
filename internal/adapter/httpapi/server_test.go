package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielglasgow/bracehealth/internal/clearinghouse"
	"github.com/danielglasgow/bracehealth/internal/domain"
	"github.com/danielglasgow/bracehealth/internal/ledger"
	"github.com/danielglasgow/bracehealth/internal/usecase/payment"
	"github.com/danielglasgow/bracehealth/internal/usecase/receivable"
	"github.com/danielglasgow/bracehealth/internal/usecase/submission"
)

// newTestAPI assembles the full stack with a synchronous clearinghouse
// simulator, so remittances land before SubmitClaim returns.
func newTestAPI(t *testing.T) (*echo.Echo, *ledger.Store) {
	t.Helper()
	logger := zerolog.Nop()
	store := ledger.New(logger)

	sim := clearinghouse.NewSynchronousSimulator(clearinghouse.DefaultPayerConfigs(), logger)
	submissionSvc := submission.NewService(store, sim, logger)
	sim.SetSink(submissionSvc)
	paymentSvc := payment.NewService(store, logger)
	receivableSvc := receivable.NewService(store)

	e := echo.New()
	NewServer(submissionSvc, paymentSvc, receivableSvc, store, logger).RegisterRoutes(e)
	return e, store
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

const claimBody = `{
  "claim": {
    "claim_id": "CLM-1",
    "patient": {"first_name": "Jane", "last_name": "Doe", "dob": "1980-04-12"},
    "payer_id": "MEDICARE",
    "service_lines": [
      {"procedure_code": "99213", "units": 2, "unit_charge": {"whole_amount": 50, "decimal_amount": 25}}
    ]
  }
}`

func TestSubmitClaim(t *testing.T) {
	e, store := newTestAPI(t)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/claims", claimBody)
	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Result submission.Result `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, submission.ResultAccepted, resp.Result)
	assert.True(t, store.ContainsClaim("CLM-1"))
}

func TestSubmitClaim_Duplicate(t *testing.T) {
	e, _ := newTestAPI(t)
	require.Equal(t, http.StatusCreated, doJSON(t, e, http.MethodPost, "/api/v1/claims", claimBody).Code)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/claims", claimBody)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSubmitClaim_Invalid(t *testing.T) {
	e, _ := newTestAPI(t)
	rec := doJSON(t, e, http.MethodPost, "/api/v1/claims", `{"claim": {"claim_id": "CLM-1"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitClaim_UnsupportedPayerRejected(t *testing.T) {
	e, store := newTestAPI(t)
	body := strings.Replace(claimBody, `"MEDICARE"`, `"UNKNOWN_PAYER"`, 1)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/claims", body)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.False(t, store.ContainsClaim("CLM-1"))
}

func TestGetClaim(t *testing.T) {
	e, _ := newTestAPI(t)
	require.Equal(t, http.StatusCreated, doJSON(t, e, http.MethodPost, "/api/v1/claims", claimBody).Code)

	rec := doJSON(t, e, http.MethodGet, "/api/v1/claims/CLM-1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var claim domain.Claim
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &claim))
	assert.Equal(t, "CLM-1", claim.ClaimID)
	assert.Equal(t, "100.50", claim.BillableTotal().String())

	assert.Equal(t, http.StatusNotFound, doJSON(t, e, http.MethodGet, "/api/v1/claims/CLM-missing", "").Code)
}

func TestGetProgress(t *testing.T) {
	e, _ := newTestAPI(t)
	require.Equal(t, http.StatusCreated, doJSON(t, e, http.MethodPost, "/api/v1/claims", claimBody).Code)

	rec := doJSON(t, e, http.MethodGet, "/api/v1/claims/CLM-1/progress", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status domain.ClaimStatus `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	// The synchronous simulator delivers the remittance during submission.
	assert.Equal(t, domain.StatusRemittanceReceived, resp.Status)
}

func TestGetBalance(t *testing.T) {
	e, store := newTestAPI(t)
	require.Equal(t, http.StatusCreated, doJSON(t, e, http.MethodPost, "/api/v1/claims", claimBody).Code)

	rec := doJSON(t, e, http.MethodGet, "/api/v1/claims/CLM-1/balance", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Total domain.Money `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	remittance, ok := store.GetRemittance("CLM-1")
	require.True(t, ok)
	assert.True(t, resp.Total.Equal(remittance.PatientResponsibility()))

	assert.Equal(t, http.StatusNotFound, doJSON(t, e, http.MethodGet, "/api/v1/claims/CLM-missing/balance", "").Code)
}

func TestPayClaim(t *testing.T) {
	e, store := newTestAPI(t)
	require.Equal(t, http.StatusCreated, doJSON(t, e, http.MethodPost, "/api/v1/claims", claimBody).Code)

	remittance, ok := store.GetRemittance("CLM-1")
	require.True(t, ok)
	owed := remittance.PatientResponsibility().Wire()

	body, err := json.Marshal(map[string]any{"amount": owed})
	require.NoError(t, err)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/claims/CLM-1/payments", string(body))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Outcome payment.Outcome `json:"outcome"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	if remittance.PatientResponsibility().IsZero() {
		assert.Equal(t, payment.OutcomeNoOutstandingBalance, resp.Outcome)
	} else {
		assert.Equal(t, payment.OutcomeFullyPaid, resp.Outcome)
	}
}

func TestPayClaim_MalformedAmount(t *testing.T) {
	e, _ := newTestAPI(t)
	require.Equal(t, http.StatusCreated, doJSON(t, e, http.MethodPost, "/api/v1/claims", claimBody).Code)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/claims/CLM-1/payments",
		`{"amount": {"whole_amount": 1, "decimal_amount": 250}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNotifyRemittance_SecondRemittanceConflicts(t *testing.T) {
	e, _ := newTestAPI(t)
	require.Equal(t, http.StatusCreated, doJSON(t, e, http.MethodPost, "/api/v1/claims", claimBody).Code)

	// The simulator already delivered one remittance; another is a conflict.
	rec := doJSON(t, e, http.MethodPost, "/api/v1/remittances",
		`{"remittance": {"claim_id": "CLM-1", "payer_paid_amount": {"whole_amount": 1, "decimal_amount": 0}}}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, e, http.MethodPost, "/api/v1/remittances",
		`{"remittance": {"claim_id": "CLM-missing"}}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListClaims(t *testing.T) {
	e, _ := newTestAPI(t)
	require.Equal(t, http.StatusCreated, doJSON(t, e, http.MethodPost, "/api/v1/claims", claimBody).Code)

	rec := doJSON(t, e, http.MethodGet, "/api/v1/claims?patient=jane_doe_1980-04-12", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Claims []domain.Claim `json:"claims"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Claims, 1)
	assert.Equal(t, "CLM-1", resp.Claims[0].ClaimID)

	assert.Equal(t, http.StatusBadRequest, doJSON(t, e, http.MethodGet, "/api/v1/claims", "").Code)
}

func TestPendingClaims(t *testing.T) {
	e, _ := newTestAPI(t)
	require.Equal(t, http.StatusCreated, doJSON(t, e, http.MethodPost, "/api/v1/claims", claimBody).Code)

	// The synchronous simulator already adjudicated the claim, so the
	// remittance-pending set is empty.
	rec := doJSON(t, e, http.MethodGet, "/api/v1/claims/pending", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Claims []domain.Claim `json:"claims"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Claims)
}

func TestPayerReceivables(t *testing.T) {
	e, _ := newTestAPI(t)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/reports/payer-receivables",
		`{"payer_ids": ["ANTHEM"], "buckets": []}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Rows []receivable.PayerRow `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, domain.PayerAnthem, resp.Rows[0].PayerID)
	require.Len(t, resp.Rows[0].BucketValues, 1)
	assert.True(t, resp.Rows[0].BucketValues[0].Amount.IsZero())
}

func TestPatientReceivables(t *testing.T) {
	e, _ := newTestAPI(t)
	require.Equal(t, http.StatusCreated, doJSON(t, e, http.MethodPost, "/api/v1/claims", claimBody).Code)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/reports/patient-receivables", `{}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Rows []payment.PatientRow `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, domain.PatientID("jane_doe_1980-04-12"), resp.Rows[0].PatientID)
}

func TestHealth(t *testing.T) {
	e, _ := newTestAPI(t)
	rec := doJSON(t, e, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

// Ensure the request id middleware stamps responses.
func TestRequestIDHeader(t *testing.T) {
	e, _ := newTestAPI(t)
	rec := doJSON(t, e, http.MethodGet, "/healthz", "")
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}
