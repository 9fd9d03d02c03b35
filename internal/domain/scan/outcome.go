package scan

import "time"

// OutcomeStatus classifies the result of a scan submission.
type OutcomeStatus string

const (
	// OutcomeAccepted means a new scan record was persisted.
	OutcomeAccepted OutcomeStatus = "accepted"
	// OutcomeAlreadyScanned means an existing record was returned instead
	// of creating a duplicate.
	OutcomeAlreadyScanned OutcomeStatus = "already_scanned"
	// OutcomeNeedsConfirmation means a duplicate candidate exists and the
	// caller must re-submit with the confirmation flag to proceed.
	OutcomeNeedsConfirmation OutcomeStatus = "needs_confirmation"
	// OutcomeRejected means a business rule refused the scan; nothing was
	// persisted.
	OutcomeRejected OutcomeStatus = "rejected"
)

// DuplicateReason says which dedup window matched. The order window is
// checked before the phone window, so a submission matching both always
// reports ReasonOrderDuplicate.
type DuplicateReason string

const (
	ReasonOrderDuplicate DuplicateReason = "order_duplicate"
	ReasonPhoneDuplicate DuplicateReason = "phone_duplicate"
)

// Operator-facing result texts for outcomes that do not carry an upstream
// result label.
const (
	ResultAlreadyScanned  = "⚠️ Already Scanned"
	ResultUntaggedRefused = "❌ Unfulfilled order with no tag — not added"
)

// ScanOutcome is the caller-visible result of SubmitScan.
type ScanOutcome struct {
	Status    OutcomeStatus   `json:"status"`
	Result    string          `json:"result"`
	OrderName string          `json:"order"`
	Tag       string          `json:"tag"`
	Reason    DuplicateReason `json:"reason,omitempty"`
	RecordID  uint            `json:"record_id,omitempty"`
	Timestamp time.Time       `json:"ts"`
}
