package order

import (
	"fmt"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status uses the single-letter codes carried over from the legacy store
// schema.
type Status string

const (
	StatusPending   Status = "P"
	StatusConfirmed Status = "C"
	StatusShipped   Status = "S"
	StatusDelivered Status = "D"
	StatusCancelled Status = "X"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Item is one immutable order line: product, the seller it belongs to, the
// granted quantity, and the unit price snapshotted at placement time.
type Item struct {
	ProductID string          `json:"productId"`
	SellerID  string          `json:"sellerId,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

func (it Item) Subtotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

type ShippingInfo struct {
	Email      string `json:"email"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

// ValidationError reports structural problems with shipping fields, keyed by
// field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	sort.Strings(names)
	return fmt.Sprintf("invalid shipping info: %s", strings.Join(names, ", "))
}

// Validate checks the shipping-contact schema structurally. Phone is
// optional; everything else is required, and email must parse as an address.
func (s ShippingInfo) Validate() error {
	fields := map[string]string{}

	if strings.TrimSpace(s.Email) == "" {
		fields["email"] = "required"
	} else if _, err := mail.ParseAddress(s.Email); err != nil {
		fields["email"] = "not a valid email address"
	}

	required := map[string]string{
		"firstName":  s.FirstName,
		"lastName":   s.LastName,
		"address":    s.Address,
		"city":       s.City,
		"postalCode": s.PostalCode,
		"country":    s.Country,
	}
	for name, v := range required {
		if strings.TrimSpace(v) == "" {
			fields[name] = "required"
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

type Order struct {
	ID        string          `json:"orderId"`
	BuyerID   string          `json:"buyerId,omitempty"` // empty for guest checkout
	Shipping  ShippingInfo    `json:"shipping"`
	Status    Status          `json:"status"`
	Total     decimal.Decimal `json:"total"`
	Items     []Item          `json:"items"`
	CreatedAt time.Time       `json:"createdAt"`
}
