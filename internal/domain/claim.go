package domain

import (
	"errors"
	"fmt"
	"strings"
)

// PayerID identifies an insurance payer.
type PayerID string

const (
	PayerMedicare          PayerID = "MEDICARE"
	PayerUnitedHealthGroup PayerID = "UNITED_HEALTH_GROUP"
	PayerAnthem            PayerID = "ANTHEM"
)

// PatientID is the canonical patient key: lowercased first and last name
// plus date of birth. Patients carry no system-assigned identifier, so
// identity is by demographics.
type PatientID string

// Patient identifies the person a claim was billed for.
type Patient struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	DOB       string `json:"dob"`
}

// ID returns the canonical patient key.
func (p Patient) ID() PatientID {
	return PatientID(fmt.Sprintf("%s_%s_%s",
		strings.ToLower(p.FirstName), strings.ToLower(p.LastName), p.DOB))
}

// ServiceLine is a single billed service on a claim.
type ServiceLine struct {
	ProcedureCode string `json:"procedure_code"`
	Units         int64  `json:"units"`
	UnitCharge    Money  `json:"unit_charge"`
	// DoNotBill excludes the line from receivable totals.
	DoNotBill bool `json:"do_not_bill,omitempty"`
}

// ExtendedCharge is the line's billable amount: unit charge x units,
// zero when the line is flagged do-not-bill.
func (l ServiceLine) ExtendedCharge() Money {
	if l.DoNotBill {
		return Zero
	}
	return l.UnitCharge.MulUnits(l.Units)
}

// Claim is a billing submission for services rendered, tied to one
// patient and one payer. Immutable once submitted.
type Claim struct {
	ClaimID      string        `json:"claim_id"`
	Patient      Patient       `json:"patient"`
	PayerID      PayerID       `json:"payer_id"`
	ServiceLines []ServiceLine `json:"service_lines"`
}

// Validate ensures the claim adheres to domain rules.
func (c Claim) Validate() error {
	if c.ClaimID == "" {
		return errors.New("claim id cannot be empty")
	}
	if c.Patient.FirstName == "" || c.Patient.LastName == "" || c.Patient.DOB == "" {
		return errors.New("claim patient must have first name, last name and dob")
	}
	if c.PayerID == "" {
		return errors.New("claim payer id cannot be empty")
	}
	if len(c.ServiceLines) == 0 {
		return errors.New("claim must have at least one service line")
	}
	for _, line := range c.ServiceLines {
		if line.Units <= 0 {
			return errors.New("service line units must be positive")
		}
		if line.UnitCharge.IsNegative() {
			return errors.New("service line unit charge cannot be negative")
		}
	}
	return nil
}

// BillableTotal sums the extended charges of all billable service lines.
func (c Claim) BillableTotal() Money {
	total := Zero
	for _, line := range c.ServiceLines {
		total = total.Add(line.ExtendedCharge())
	}
	return total
}

// Remittance is a payer's adjudication of a claim: the amounts assigned
// to the patient (copay, coinsurance, deductible), the amount the payer
// pays, and the amount disallowed. Set at most once per claim.
type Remittance struct {
	ClaimID     string `json:"claim_id"`
	PayerPaid   Money  `json:"payer_paid_amount"`
	Copay       Money  `json:"copay_amount"`
	Coinsurance Money  `json:"coinsurance_amount"`
	Deductible  Money  `json:"deductible_amount"`
	NotAllowed  Money  `json:"not_allowed_amount"`
}

// PatientResponsibility is the total the patient owes under this
// adjudication.
func (r Remittance) PatientResponsibility() Money {
	return r.Copay.Add(r.Coinsurance).Add(r.Deductible)
}

// Total sums every component of the adjudication.
func (r Remittance) Total() Money {
	return r.PayerPaid.Add(r.PatientResponsibility()).Add(r.NotAllowed)
}
