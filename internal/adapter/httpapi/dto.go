package httpapi

import (
	"github.com/danielglasgow/bracehealth/internal/domain"
	"github.com/danielglasgow/bracehealth/internal/usecase/payment"
	"github.com/danielglasgow/bracehealth/internal/usecase/receivable"
	"github.com/danielglasgow/bracehealth/internal/usecase/submission"
)

// Request and response shapes. Domain types carry their own json tags;
// money fields travel as {whole_amount, decimal_amount} wire pairs.

type submitClaimRequest struct {
	Claim domain.Claim `json:"claim"`
}

type submitClaimResponse struct {
	Result submission.Result `json:"result"`
}

type notifyRemittanceRequest struct {
	Remittance domain.Remittance `json:"remittance"`
}

type notifyRemittanceResponse struct {
	Success bool `json:"success"`
}

type payClaimRequest struct {
	Amount domain.MoneyWire `json:"amount"`
}

type payClaimResponse struct {
	Outcome payment.Outcome `json:"outcome"`
}

type balanceResponse struct {
	Balance payment.Balance `json:"balance"`
	Total   domain.Money    `json:"total"`
}

type progressResponse struct {
	Progress domain.Progress    `json:"progress"`
	Status   domain.ClaimStatus `json:"status"`
}

type claimListResponse struct {
	Claims []domain.Claim `json:"claims"`
}

type payerReceivablesRequest struct {
	PayerIDs []domain.PayerID    `json:"payer_ids"`
	Buckets  []receivable.Bucket `json:"buckets"`
}

type payerReceivablesResponse struct {
	Rows []receivable.PayerRow `json:"rows"`
}

type patientReceivablesRequest struct {
	PatientIDs []domain.PatientID `json:"patient_ids"`
}

type patientReceivablesResponse struct {
	Rows []payment.PatientRow `json:"rows"`
}
