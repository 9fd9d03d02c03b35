package upstream

import (
	"time"

	"github.com/shopspring/decimal"
)

// FulfillmentState is the normalized fulfillment status of an upstream order.
type FulfillmentState string

const (
	FulfillmentFulfilled   FulfillmentState = "fulfilled"
	FulfillmentUnfulfilled FulfillmentState = "unfulfilled"
)

// OrderLookupResult is the transient outcome of querying a single store for
// an order. It is never persisted directly.
type OrderLookupResult struct {
	Found          bool             `json:"found"`
	Tags           string           `json:"tags"`
	Fulfillment    FulfillmentState `json:"fulfillment"`
	Cancelled      bool             `json:"cancelled"`
	StoreName      string           `json:"store_name"`
	Phone          string           `json:"phone"`
	CreatedAt      time.Time        `json:"created_at"`
	TotalPrice     decimal.Decimal  `json:"total_price"`
	CashOnDelivery bool             `json:"cash_on_delivery"`
}

// ResultCode classifies the single best order chosen across all stores.
type ResultCode string

const (
	ResultOk          ResultCode = "ok"
	ResultUnfulfilled ResultCode = "unfulfilled"
	ResultCancelled   ResultCode = "cancelled"
	ResultNotFound    ResultCode = "not_found"
)

// Label returns the operator-facing text for the result code. The emoji
// prefixes are load-bearing: the scanner UI and the export sheet key off them.
func (c ResultCode) Label() string {
	switch c {
	case ResultOk:
		return "✅ OK"
	case ResultUnfulfilled:
		return "❌ Unfulfilled"
	case ResultCancelled:
		return "⚠️ Cancelled"
	default:
		return "❌ Not Found"
	}
}

// ResolvedOrder is the single best OrderLookupResult chosen across all
// configured stores, annotated with its derived result code.
type ResolvedOrder struct {
	OrderLookupResult
	Code ResultCode `json:"code"`
}

// NotFoundOrder returns the sentinel for a resolution with no surviving
// candidate: empty tags, unfulfilled, no store.
func NotFoundOrder() ResolvedOrder {
	return ResolvedOrder{
		OrderLookupResult: OrderLookupResult{
			Fulfillment: FulfillmentUnfulfilled,
		},
		Code: ResultNotFound,
	}
}

// DeriveCode classifies a found order: cancellation dominates, then
// fulfillment state.
func DeriveCode(o OrderLookupResult) ResultCode {
	switch {
	case !o.Found:
		return ResultNotFound
	case o.Cancelled:
		return ResultCancelled
	case o.Fulfillment != FulfillmentFulfilled:
		return ResultUnfulfilled
	default:
		return ResultOk
	}
}
