package scan

import (
	"time"

	"github.com/shopspring/decimal"
)

// ScanRecord is one accepted barcode scan. It is created on acceptance and
// mutated afterwards only by operator edits (driver/tags/status). The unique
// index on OrderName is the storage-level backstop for duplicate detection:
// the in-memory duplicate check and the insert are not atomic, so the losing
// side of a race recovers by re-reading the winner's row.
type ScanRecord struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Timestamp   time.Time       `gorm:"index;not null" json:"ts"`
	OrderName   string          `gorm:"type:varchar(20);not null;uniqueIndex:idx_scans_order_name" json:"order_name"`
	Phone       string          `gorm:"type:varchar(20);index" json:"phone"`
	Tags        string          `gorm:"type:text" json:"tags"`
	Fulfillment string          `gorm:"type:varchar(20)" json:"fulfillment"`
	Status      string          `gorm:"type:varchar(20)" json:"status"`
	Store       string          `gorm:"type:varchar(100)" json:"store"`
	Result      string          `gorm:"type:varchar(100)" json:"result"`
	Driver      string          `gorm:"type:varchar(100)" json:"driver"`
	CODAmount   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"cod_amount"`
	COD         bool            `gorm:"not null;default:false" json:"cod"`
}

// TableName returns the table name for GORM
func (ScanRecord) TableName() string {
	return "scans"
}

// OrderStatus derives the open/closed order status string stored on the
// record from the cancellation flag.
func OrderStatus(cancelled bool) string {
	if cancelled {
		return "closed"
	}
	return "open"
}
