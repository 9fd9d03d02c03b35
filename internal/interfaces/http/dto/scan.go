package dto

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/chafiq1992/order-scanner/internal/domain/scan"
	"github.com/chafiq1992/order-scanner/internal/domain/tag"
)

// SubmitScanRequest is the body of POST /scan
type SubmitScanRequest struct {
	Barcode string `json:"barcode" binding:"required,max=64"`
	Confirm bool   `json:"confirm"`
}

// ListScansQuery filters GET /scans. Date defaults to today when empty.
type ListScansQuery struct {
	Date string `form:"date" binding:"omitempty,datetime=2006-01-02"`
	Tag  string `form:"tag" binding:"omitempty,max=32"`
}

// SummaryQuery selects the day for the tag summary endpoints
type SummaryQuery struct {
	Date string `form:"date" binding:"omitempty,datetime=2006-01-02"`
}

// CountOrdersQuery bounds GET /orders/count
type CountOrdersQuery struct {
	Start string `form:"start" binding:"required,datetime=2006-01-02"`
	End   string `form:"end" binding:"required,datetime=2006-01-02"`
}

// UpdateScanRequest carries operator edits for PATCH /scans/:id. Nil fields
// are left untouched.
type UpdateScanRequest struct {
	Driver *string `json:"driver" binding:"omitempty,max=100"`
	Tags   *string `json:"tags" binding:"omitempty,deliverytag"`
	Status *string `json:"status" binding:"omitempty,oneof=open closed"`
}

// ScanIDRequest binds the scan id path parameter
type ScanIDRequest struct {
	ID uint `uri:"id" binding:"required,min=1"`
}

// ScanOutcomeResponse is the wire form of a submission outcome
type ScanOutcomeResponse struct {
	Status    string    `json:"status"`
	Result    string    `json:"result"`
	Order     string    `json:"order"`
	Tag       string    `json:"tag"`
	Reason    string    `json:"reason,omitempty"`
	RecordID  uint      `json:"record_id,omitempty"`
	Timestamp time.Time `json:"ts"`
}

// FromScanOutcome converts a domain outcome to its wire form
func FromScanOutcome(o scan.ScanOutcome) ScanOutcomeResponse {
	return ScanOutcomeResponse{
		Status:    string(o.Status),
		Result:    o.Result,
		Order:     o.OrderName,
		Tag:       o.Tag,
		Reason:    string(o.Reason),
		RecordID:  o.RecordID,
		Timestamp: o.Timestamp,
	}
}

// ScanRecordResponse is the wire form of a persisted scan
type ScanRecordResponse struct {
	ID          uint      `json:"id"`
	Timestamp   time.Time `json:"ts"`
	OrderName   string    `json:"order_name"`
	Phone       string    `json:"phone"`
	Tags        string    `json:"tags"`
	Fulfillment string    `json:"fulfillment"`
	Status      string    `json:"status"`
	Store       string    `json:"store"`
	Result      string    `json:"result"`
	Driver      string    `json:"driver"`
	CODAmount   string    `json:"cod_amount"`
	COD         bool      `json:"cod"`
}

// FromScanRecord converts a persisted scan to its wire form
func FromScanRecord(rec scan.ScanRecord) ScanRecordResponse {
	return ScanRecordResponse{
		ID:          rec.ID,
		Timestamp:   rec.Timestamp,
		OrderName:   rec.OrderName,
		Phone:       rec.Phone,
		Tags:        rec.Tags,
		Fulfillment: rec.Fulfillment,
		Status:      rec.Status,
		Store:       rec.Store,
		Result:      rec.Result,
		Driver:      rec.Driver,
		CODAmount:   rec.CODAmount.StringFixed(2),
		COD:         rec.COD,
	}
}

// FromScanRecords converts a slice of persisted scans
func FromScanRecords(recs []scan.ScanRecord) []ScanRecordResponse {
	out := make([]ScanRecordResponse, len(recs))
	for i, rec := range recs {
		out[i] = FromScanRecord(rec)
	}
	return out
}

// CountOrdersResponse is the wire form of the fulfilled order count
type CountOrdersResponse struct {
	Total    int            `json:"total"`
	PerStore map[string]int `json:"per_store"`
}

// RegisterValidators installs the scanner's custom binding validators on the
// gin validator engine.
func RegisterValidators(v *validator.Validate) error {
	// deliverytag restricts operator tag edits to the known canonical tags
	return v.RegisterValidation("deliverytag", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		if value == "" {
			return true
		}
		for _, known := range tag.Canonical() {
			if value == known {
				return true
			}
		}
		return false
	})
}
