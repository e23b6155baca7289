package domain

import "time"

// FraudCheckResult is the outcome of the fast pre-filter. It is always
// populated; fraud checks never raise.
type FraudCheckResult struct {
	FraudDetected   bool          `json:"fraud_detected"`
	Reason          string        `json:"reason,omitempty"`
	ChecksPerformed []string      `json:"checks_performed"`
	Elapsed         time.Duration `json:"elapsed_ns"`
}

// BatchFraudReport aggregates per-item quick checks.
type BatchFraudReport struct {
	Results []FraudCheckResult `json:"results"`
	Total   int                `json:"total"`
	Flagged int                `json:"flagged"`
	Elapsed time.Duration      `json:"elapsed_ns"`
}
