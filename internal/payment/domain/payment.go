// Package domain holds the payment model and its status workflow.
package domain

import "time"

// Status is the verification state of a payment.
type Status string

const (
	StatusPending          Status = "Pending"
	StatusVerified         Status = "Verified"
	StatusRejected         Status = "Rejected"
	StatusSubmittedToSWIFT Status = "SubmittedToSWIFT"
)

// validTransitions encodes the one-way review workflow. Rejected and
// SubmittedToSWIFT are terminal.
var validTransitions = map[Status][]Status{
	StatusPending:  {StatusVerified, StatusRejected},
	StatusVerified: {StatusSubmittedToSWIFT},
}

// IsValid reports whether s is a known payment status.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusVerified, StatusRejected, StatusSubmittedToSWIFT:
		return true
	}
	return false
}

// CanTransitionTo reports whether the workflow permits moving from s to next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Payment is an international payment instruction captured from a customer
// and reviewed by employees before submission to the SWIFT network.
type Payment struct {
	ID                 string
	CustomerID         string
	Amount             string
	Currency           string
	Provider           string
	PayeeName          string
	PayeeAccountNumber string
	SWIFTCode          string
	Status             Status
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
