package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/checkout/session"
	"github.com/stripe/stripe-go/v83/coupon"
	"github.com/stripe/stripe-go/v83/customer"
	"github.com/stripe/stripe-go/v83/price"
)

// Stripe implements Provider against the hosted Stripe API using the official
// SDK. Every call is attempted exactly once; the operator is the retry
// mechanism.
type Stripe struct {
	PageLimit  int
	SuccessURL string
}

// NewStripe configures the SDK's global API key and returns the provider.
func NewStripe(apiKey string, pageLimit int, successURL string) (*Stripe, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("payment: stripe api key is required")
	}
	stripe.Key = apiKey
	if pageLimit <= 0 {
		pageLimit = 50
	}
	if strings.TrimSpace(successURL) == "" {
		successURL = "https://example.com/success"
	}
	return &Stripe{PageLimit: pageLimit, SuccessURL: successURL}, nil
}

// ListActivePrices fetches a single page of active prices with product data
// expanded. The listing never follows pagination: one user action means one
// remote call, and prices beyond the page limit are simply not offered.
func (s *Stripe) ListActivePrices(ctx context.Context) ([]PriceRecord, error) {
	params := activePriceParams(ctx, s.PageLimit)

	var records []PriceRecord
	iter := price.List(params)
	for iter.Next() {
		if len(records) == s.PageLimit {
			break
		}
		records = append(records, toPriceRecord(iter.Price()))
	}
	if err := iter.Err(); err != nil {
		return nil, errors.Join(ErrRemoteUnavailable, err)
	}
	return records, nil
}

// activePriceParams builds a single-page listing query. Single stops the SDK
// iterator from auto-paginating past the first response.
func activePriceParams(ctx context.Context, limit int) *stripe.PriceListParams {
	params := &stripe.PriceListParams{Active: stripe.Bool(true)}
	params.Context = ctx
	params.Limit = stripe.Int64(int64(limit))
	params.Single = true
	params.AddExpand("data.product")
	return params
}

// FindOrCreateCustomer looks up a customer by exact email, creating one when
// no match exists. The lookup is best effort: it is not atomic against a
// concurrent creation by another actor.
func (s *Stripe) FindOrCreateCustomer(ctx context.Context, email, name string) (CustomerResolution, error) {
	listParams := &stripe.CustomerListParams{Email: stripe.String(email)}
	listParams.Context = ctx
	listParams.Limit = stripe.Int64(1)

	iter := customer.List(listParams)
	if iter.Next() {
		return CustomerResolution{ID: iter.Customer().ID, WasExisting: true}, nil
	}
	if err := iter.Err(); err != nil {
		return CustomerResolution{}, errors.Join(ErrRemoteUnavailable, err)
	}

	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Name:  stripe.String(name),
	}
	params.Context = ctx
	created, err := customer.New(params)
	if err != nil {
		return CustomerResolution{}, errors.Join(ErrRemoteUnavailable, err)
	}
	return CustomerResolution{ID: created.ID, WasExisting: false}, nil
}

// CreateDiscountCoupon creates a single-use percent-off coupon named after the
// percentage for audit. A fresh coupon is created on every call.
func (s *Stripe) CreateDiscountCoupon(ctx context.Context, percent int) (string, error) {
	params := &stripe.CouponParams{
		PercentOff: stripe.Float64(float64(percent)),
		Duration:   stripe.String(string(stripe.CouponDurationOnce)),
		Name:       stripe.String(CouponName(percent)),
	}
	params.Context = ctx
	created, err := coupon.New(params)
	if err != nil {
		return "", errors.Join(ErrRemoteUnavailable, err)
	}
	return created.ID, nil
}

// CreateCheckoutSession opens a hosted checkout session. A mode that does not
// match the price's billing type is rejected remotely and surfaces here with
// the processor's message intact.
func (s *Stripe) CreateCheckoutSession(ctx context.Context, req SessionRequest) (string, error) {
	params := buildSessionParams(req, s.SuccessURL)
	params.Context = ctx
	created, err := session.New(params)
	if err != nil {
		return "", err
	}
	return created.URL, nil
}

// CouponName labels a coupon with its percentage for audit trails.
func CouponName(percent int) string {
	return fmt.Sprintf("%d%% Off (CSM Generated)", percent)
}

// RemoteMessage extracts the processor's own error message when present,
// falling back to the Go error text.
func RemoteMessage(err error) string {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
		return stripeErr.Msg
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

func buildSessionParams(req SessionRequest, successURL string) *stripe.CheckoutSessionParams {
	params := &stripe.CheckoutSessionParams{
		Customer: stripe.String(req.CustomerID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		Mode:       stripe.String(req.Mode),
		SuccessURL: stripe.String(successURL),
		CustomerUpdate: &stripe.CheckoutSessionCustomerUpdateParams{
			Address: stripe.String("auto"),
			Name:    stripe.String("auto"),
		},
	}
	for key, value := range req.Metadata {
		params.AddMetadata(key, value)
	}
	if req.CouponID != "" {
		params.Discounts = []*stripe.CheckoutSessionDiscountParams{
			{Coupon: stripe.String(req.CouponID)},
		}
	}
	if req.Mode == ModeSubscription {
		params.SubscriptionData = &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: req.Metadata,
		}
	}
	return params
}

func toPriceRecord(p *stripe.Price) PriceRecord {
	record := PriceRecord{
		ID:              p.ID,
		UnitAmountMinor: p.UnitAmount,
		Currency:        strings.ToUpper(string(p.Currency)),
		Type:            string(p.Type),
	}
	if p.Product != nil {
		record.ProductName = p.Product.Name
	}
	if p.Recurring != nil {
		record.RecurringInterval = string(p.Recurring.Interval)
	}
	return record
}
