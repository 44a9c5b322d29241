package checkout

import (
	"context"
	"errors"
	"net/http"
	"strings"

	validator "github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/avelouis/backend-linkgen/internal/catalog"
	"github.com/avelouis/backend-linkgen/internal/common"
	"github.com/avelouis/backend-linkgen/internal/obs"
	"github.com/avelouis/backend-linkgen/internal/payment"
	"github.com/avelouis/backend-linkgen/internal/pricing"
)

// Input describes one link generation request. Either an existing customer id
// or an email/name pair must be supplied, and either a price id or a catalog
// label.
type Input struct {
	CustomerID      string `json:"customerId" validate:"omitempty"`
	Email           string `json:"email" validate:"omitempty,email"`
	Name            string `json:"name" validate:"omitempty,max=255"`
	PriceID         string `json:"priceId"`
	Label           string `json:"label"`
	DiscountPercent int    `json:"discountPercent" validate:"gte=0,lte=100"`
}

// Output carries the generated link and the resolution details surfaced to
// the operator.
type Output struct {
	URL                 string `json:"url"`
	CustomerID          string `json:"customerId"`
	CustomerWasExisting bool   `json:"customerWasExisting"`
	CouponID            string `json:"couponId,omitempty"`
	FinalAmount         string `json:"finalAmount"`
	Currency            string `json:"currency"`
	Mode                string `json:"mode"`
}

// Service sequences customer resolution, coupon creation, and session
// creation. Every remote call is attempted exactly once per request; the
// operator retries by repeating the action.
type Service struct {
	Provider payment.Provider
	Catalog  *catalog.Service
	Validate *validator.Validate
}

// GenerateLink runs the link generation sequence and returns the hosted
// checkout URL. A session is only created after every prerequisite (customer,
// discount coupon) succeeded, so no partial state is left ambiguous.
func (s *Service) GenerateLink(ctx context.Context, in Input) (Output, error) {
	var zero Output
	if s == nil || s.Provider == nil || s.Catalog == nil {
		return zero, errors.New("checkout service not configured")
	}
	ctx, span := otel.Tracer("checkout.Service").Start(ctx, "CheckoutService.GenerateLink")
	defer span.End()

	if err := s.validateInput(in); err != nil {
		return zero, err
	}

	entry, err := s.resolveEntry(ctx, in)
	if err != nil {
		return zero, err
	}
	span.SetAttributes(
		attribute.String("checkout.price_id", entry.PriceID),
		attribute.String("checkout.mode", entry.Mode),
		attribute.Int("checkout.discount_percent", in.DiscountPercent),
	)

	customerID, wasExisting, err := s.resolveCustomer(ctx, in)
	if err != nil {
		s.countResult(entry.Mode, "customer_failed")
		return zero, err
	}

	couponID := ""
	if in.DiscountPercent > 0 {
		couponID, err = s.Provider.CreateDiscountCoupon(ctx, in.DiscountPercent)
		if err != nil {
			// Abort rather than silently charging full price.
			s.countResult(entry.Mode, "coupon_failed")
			return zero, common.RemoteUnavailable("could not create the discount coupon; no checkout session was created", err)
		}
		if obs.CouponCreatedTotal != nil {
			obs.CouponCreatedTotal.Inc()
		}
	}

	final := pricing.ApplyDiscount(pricing.FromMinorUnits(entry.UnitAmountMinor), in.DiscountPercent)
	metadata := sessionMetadata(final.StringFixed(2), entry)

	url, err := s.Provider.CreateCheckoutSession(ctx, payment.SessionRequest{
		CustomerID: customerID,
		PriceID:    entry.PriceID,
		Mode:       entry.Mode,
		CouponID:   couponID,
		Metadata:   metadata,
	})
	if err != nil {
		s.countResult(entry.Mode, "session_failed")
		return zero, common.CheckoutCreationFailed(payment.RemoteMessage(err), err)
	}

	s.countResult(entry.Mode, "success")
	return Output{
		URL:                 url,
		CustomerID:          customerID,
		CustomerWasExisting: wasExisting,
		CouponID:            couponID,
		FinalAmount:         final.StringFixed(2),
		Currency:            entry.Currency,
		Mode:                entry.Mode,
	}, nil
}

func (s *Service) validateInput(in Input) error {
	if s.Validate != nil {
		if err := s.Validate.Struct(in); err != nil {
			return common.NewAppError(common.CodeBadRequest, "invalid request payload", http.StatusBadRequest, err)
		}
	}
	if err := pricing.ValidatePercent(in.DiscountPercent); err != nil {
		return common.NewAppError(common.CodeBadRequest, "discount percent must be between 0 and 100", http.StatusBadRequest, err)
	}
	hasCustomer := strings.TrimSpace(in.CustomerID) != ""
	hasNewCustomer := strings.TrimSpace(in.Email) != "" && strings.TrimSpace(in.Name) != ""
	if !hasCustomer && !hasNewCustomer {
		return common.NewAppError(common.CodeBadRequest, "provide customerId or both email and name", http.StatusBadRequest, nil)
	}
	if strings.TrimSpace(in.PriceID) == "" && strings.TrimSpace(in.Label) == "" {
		return common.NewAppError(common.CodeBadRequest, "provide priceId or label", http.StatusBadRequest, nil)
	}
	return nil
}

func (s *Service) resolveEntry(ctx context.Context, in Input) (catalog.Entry, error) {
	cat, err := s.Catalog.ActiveCatalog(ctx, false)
	if err != nil {
		return catalog.Entry{}, err
	}
	if priceID := strings.TrimSpace(in.PriceID); priceID != "" {
		if entry, ok := cat.ByPriceID(priceID); ok {
			return entry, nil
		}
		return catalog.Entry{}, common.NewAppError(common.CodeBadRequest, "unknown price id", http.StatusBadRequest, nil)
	}
	if entry, ok := cat.ByLabel(strings.TrimSpace(in.Label)); ok {
		return entry, nil
	}
	return catalog.Entry{}, common.NewAppError(common.CodeBadRequest, "unknown product label", http.StatusBadRequest, nil)
}

func (s *Service) resolveCustomer(ctx context.Context, in Input) (string, bool, error) {
	if id := strings.TrimSpace(in.CustomerID); id != "" {
		return id, true, nil
	}
	resolution, err := s.Provider.FindOrCreateCustomer(ctx, strings.TrimSpace(in.Email), strings.TrimSpace(in.Name))
	if err != nil {
		return "", false, common.CustomerResolutionFailed(err)
	}
	if !resolution.WasExisting && obs.CustomerCreatedTotal != nil {
		obs.CustomerCreatedTotal.Inc()
	}
	return resolution.ID, resolution.WasExisting, nil
}

func (s *Service) countResult(mode, result string) {
	if obs.LinkGenerationTotal != nil {
		obs.LinkGenerationTotal.WithLabelValues(mode, result).Inc()
	}
}

func sessionMetadata(finalAmount string, entry catalog.Entry) map[string]string {
	frequency := "one_time"
	if entry.Interval != "" {
		frequency = entry.Interval
	}
	return map[string]string{
		"source":      payment.SourceTag,
		"amount_paid": finalAmount,
		"frequency":   frequency,
	}
}
