package payment

import (
	"context"
	"errors"
)

// Checkout modes accepted by the processor. A session's mode must match the
// billing type of the price it sells.
const (
	ModePayment      = "payment"
	ModeSubscription = "subscription"
)

// Price billing types as reported by the processor.
const (
	PriceTypeOneTime   = "one_time"
	PriceTypeRecurring = "recurring"
)

// SourceTag is attached to every checkout session's metadata so downstream
// reconciliation can trace links back to this tool.
const SourceTag = "csm-link-generator"

// ErrRemoteUnavailable indicates a network, auth, or rate-limit failure while
// talking to the processor. Callers report it to the operator; there is no
// automatic retry.
var ErrRemoteUnavailable = errors.New("payment: processor unavailable")

// PriceRecord is an immutable snapshot of an active price fetched from the processor.
type PriceRecord struct {
	ID                string `json:"id"`
	UnitAmountMinor   int64  `json:"unitAmountMinor"`
	Currency          string `json:"currency"`
	ProductName       string `json:"productName"`
	Type              string `json:"type"`
	RecurringInterval string `json:"recurringInterval,omitempty"`
}

// CustomerResolution reports the outcome of a find-or-create customer call.
type CustomerResolution struct {
	ID          string
	WasExisting bool
}

// SessionRequest carries everything needed to open a checkout session.
type SessionRequest struct {
	CustomerID string
	PriceID    string
	Mode       string
	CouponID   string
	Metadata   map[string]string
}

// Provider abstracts the four processor operations the link generator performs.
type Provider interface {
	// ListActivePrices fetches up to the configured page size of active prices
	// with product names expanded. Failure leaves the caller with an empty
	// catalog, never a crash.
	ListActivePrices(ctx context.Context) ([]PriceRecord, error)
	// FindOrCreateCustomer looks a customer up by exact email (first match
	// wins) and creates one when absent.
	FindOrCreateCustomer(ctx context.Context, email, name string) (CustomerResolution, error)
	// CreateDiscountCoupon creates a fresh single-use percent-off coupon.
	// Only invoked when percent > 0.
	CreateDiscountCoupon(ctx context.Context, percent int) (string, error)
	// CreateCheckoutSession opens a session and returns its hosted payment URL.
	CreateCheckoutSession(ctx context.Context, req SessionRequest) (string, error)
}

// PriceLister is the subset of Provider the catalog layer depends on.
type PriceLister interface {
	ListActivePrices(ctx context.Context) ([]PriceRecord, error)
}
