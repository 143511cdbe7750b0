package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type DocumentKind string

const (
	KindOrder    DocumentKind = "order"
	KindEstimate DocumentKind = "estimate"
)

func (k DocumentKind) Valid() bool {
	return k == KindOrder || k == KindEstimate
}

type DocumentStatus string

const (
	StatusDraft     DocumentStatus = "draft"
	StatusPublished DocumentStatus = "published"
	StatusCancelled DocumentStatus = "cancelled"
)

// Intent is what the caller asks checkout to produce.
type Intent string

const (
	IntentDraft   Intent = "draft"
	IntentPublish Intent = "publish"
)

func (i Intent) Status() (DocumentStatus, bool) {
	switch i {
	case IntentDraft:
		return StatusDraft, true
	case IntentPublish, "":
		return StatusPublished, true
	}
	return "", false
}

var transitions = map[DocumentStatus][]DocumentStatus{
	StatusDraft:     {StatusPublished, StatusCancelled},
	StatusPublished: {StatusCancelled},
}

// CanTransition reports whether a document may move from one status to another.
func CanTransition(from, to DocumentStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type OrderLine struct {
	ID       string `json:"id"`
	OrderID  string `json:"orderId"`
	Position int    `json:"position"`
	LineIdentity
	ProductName   string           `json:"productName"`
	SKU           string           `json:"sku"`
	Quantity      int              `json:"quantity"`
	UnitPrice     decimal.Decimal  `json:"unitPrice"`
	LineTotal     decimal.Decimal  `json:"lineTotal"`
	PriceOverride *decimal.Decimal `json:"priceOverride,omitempty"`
	Roll          *RollBreakdown   `json:"rollPricing,omitempty"`
}

type OrderAdjustment struct {
	ID       string          `json:"id"`
	OrderID  string          `json:"orderId"`
	Kind     AdjustmentKind  `json:"kind"`
	Amount   decimal.Decimal `json:"amount"`
	Code     *string         `json:"code,omitempty"`
	Metadata map[string]any  `json:"metadata,omitempty"`
}

// Order is an order or estimate snapshot. Money fields are set once at creation.
type Order struct {
	ID              string            `json:"id"`
	Kind            DocumentKind      `json:"kind"`
	DocumentNumber  string            `json:"documentNumber"`
	Customer        CustomerRef       `json:"customer"`
	SourceCartID    *string           `json:"sourceCartId,omitempty"`
	Status          DocumentStatus    `json:"status"`
	Currency        string            `json:"currency"`
	Totals          Totals            `json:"totals"`
	ShippingAddress *Address          `json:"shippingAddress,omitempty"`
	BillingAddress  *Address          `json:"billingAddress,omitempty"`
	Notes           string            `json:"notes,omitempty"`
	CreatedBy       *string           `json:"createdBy,omitempty"`
	Lines           []OrderLine       `json:"items"`
	Adjustments     []OrderAdjustment `json:"adjustments"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

// OrderEvent is one audited status change.
type OrderEvent struct {
	ID         string         `json:"id"`
	OrderID    string         `json:"orderId"`
	Actor      string         `json:"actor"`
	FromStatus DocumentStatus `json:"fromStatus"`
	ToStatus   DocumentStatus `json:"toStatus"`
	Reason     string         `json:"reason,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// FormatDocumentNumber renders PREFIX-YYYYMMDD-NNNN.
func FormatDocumentNumber(prefix string, day time.Time, seq int) string {
	return fmt.Sprintf("%s-%s-%04d", prefix, day.Format("20060102"), seq)
}
