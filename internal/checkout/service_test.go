package checkout_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	validator "github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/avelouis/backend-linkgen/internal/catalog"
	"github.com/avelouis/backend-linkgen/internal/checkout"
	"github.com/avelouis/backend-linkgen/internal/common"
	"github.com/avelouis/backend-linkgen/internal/payment"
)

type fakeProvider struct {
	prices []payment.PriceRecord

	listErr     error
	customerErr error
	couponErr   error
	sessionErr  error

	customersByEmail map[string]string
	customerCalls    int
	couponPercents   []int
	sessions         []payment.SessionRequest
}

func newFakeProvider(prices ...payment.PriceRecord) *fakeProvider {
	return &fakeProvider{prices: prices, customersByEmail: map[string]string{}}
}

func (f *fakeProvider) ListActivePrices(_ context.Context) ([]payment.PriceRecord, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.prices, nil
}

func (f *fakeProvider) FindOrCreateCustomer(_ context.Context, email, _ string) (payment.CustomerResolution, error) {
	f.customerCalls++
	if f.customerErr != nil {
		return payment.CustomerResolution{}, f.customerErr
	}
	if id, ok := f.customersByEmail[email]; ok {
		return payment.CustomerResolution{ID: id, WasExisting: true}, nil
	}
	id := fmt.Sprintf("cus_fake_%d", len(f.customersByEmail)+1)
	f.customersByEmail[email] = id
	return payment.CustomerResolution{ID: id, WasExisting: false}, nil
}

func (f *fakeProvider) CreateDiscountCoupon(_ context.Context, percent int) (string, error) {
	if f.couponErr != nil {
		return "", f.couponErr
	}
	f.couponPercents = append(f.couponPercents, percent)
	return fmt.Sprintf("coup_fake_%d", len(f.couponPercents)), nil
}

func (f *fakeProvider) CreateCheckoutSession(_ context.Context, req payment.SessionRequest) (string, error) {
	if f.sessionErr != nil {
		return "", f.sessionErr
	}
	f.sessions = append(f.sessions, req)
	return fmt.Sprintf("https://checkout.stripe.test/pay/cs_%d", len(f.sessions)), nil
}

func newService(t *testing.T, provider *fakeProvider) *checkout.Service {
	t.Helper()
	catSvc, err := catalog.NewService(catalog.ServiceConfig{Provider: provider})
	require.NoError(t, err)
	return &checkout.Service{
		Provider: provider,
		Catalog:  catSvc,
		Validate: validator.New(),
	}
}

func oneTimePrice() payment.PriceRecord {
	return payment.PriceRecord{
		ID:              "price_abc",
		UnitAmountMinor: 10000,
		Currency:        "USD",
		ProductName:     "Consulting Package",
		Type:            payment.PriceTypeOneTime,
	}
}

func monthlyPrice() payment.PriceRecord {
	return payment.PriceRecord{
		ID:                "price_sub",
		UnitAmountMinor:   2000,
		Currency:          "USD",
		ProductName:       "Pro Plan",
		Type:              payment.PriceTypeRecurring,
		RecurringInterval: "month",
	}
}

func TestGenerateLinkExistingCustomerWithDiscount(t *testing.T) {
	provider := newFakeProvider(oneTimePrice())
	svc := newService(t, provider)

	out, err := svc.GenerateLink(context.Background(), checkout.Input{
		CustomerID:      "cus_123",
		PriceID:         "price_abc",
		DiscountPercent: 10,
	})
	require.NoError(t, err)

	require.Equal(t, []int{10}, provider.couponPercents)
	require.Len(t, provider.sessions, 1)
	session := provider.sessions[0]
	require.Equal(t, "cus_123", session.CustomerID)
	require.Equal(t, "price_abc", session.PriceID)
	require.Equal(t, payment.ModePayment, session.Mode)
	require.Equal(t, "coup_fake_1", session.CouponID)
	require.Equal(t, "90.00", session.Metadata["amount_paid"])
	require.Equal(t, "one_time", session.Metadata["frequency"])
	require.Equal(t, payment.SourceTag, session.Metadata["source"])

	require.Equal(t, "cus_123", out.CustomerID)
	require.True(t, out.CustomerWasExisting)
	require.Equal(t, "90.00", out.FinalAmount)
	require.Equal(t, "USD", out.Currency)
	require.Equal(t, "coup_fake_1", out.CouponID)
	require.NotEmpty(t, out.URL)
	require.Zero(t, provider.customerCalls, "existing customer id must skip resolution")
}

func TestGenerateLinkNewCustomerSubscriptionNoDiscount(t *testing.T) {
	provider := newFakeProvider(monthlyPrice())
	svc := newService(t, provider)

	out, err := svc.GenerateLink(context.Background(), checkout.Input{
		Email:   "a@b.com",
		Name:    "Ada",
		PriceID: "price_sub",
	})
	require.NoError(t, err)

	require.False(t, out.CustomerWasExisting)
	require.Empty(t, provider.couponPercents, "zero discount must not create a coupon")
	require.Len(t, provider.sessions, 1)
	session := provider.sessions[0]
	require.Equal(t, payment.ModeSubscription, session.Mode)
	require.Empty(t, session.CouponID)
	require.Equal(t, "20.00", session.Metadata["amount_paid"])
	require.Equal(t, "month", session.Metadata["frequency"])
}

func TestGenerateLinkSameEmailResolvesToSameCustomer(t *testing.T) {
	provider := newFakeProvider(oneTimePrice())
	svc := newService(t, provider)
	ctx := context.Background()

	first, err := svc.GenerateLink(ctx, checkout.Input{Email: "a@b.com", Name: "Ada", PriceID: "price_abc"})
	require.NoError(t, err)
	require.False(t, first.CustomerWasExisting)

	second, err := svc.GenerateLink(ctx, checkout.Input{Email: "a@b.com", Name: "Ada", PriceID: "price_abc"})
	require.NoError(t, err)
	require.True(t, second.CustomerWasExisting)
	require.Equal(t, first.CustomerID, second.CustomerID)
}

func TestGenerateLinkCouponFailureCreatesNoSession(t *testing.T) {
	provider := newFakeProvider(oneTimePrice())
	provider.couponErr = errors.Join(payment.ErrRemoteUnavailable, errors.New("rate limited"))
	svc := newService(t, provider)

	_, err := svc.GenerateLink(context.Background(), checkout.Input{
		CustomerID:      "cus_123",
		PriceID:         "price_abc",
		DiscountPercent: 25,
	})
	require.Error(t, err)
	require.Equal(t, common.CodeRemoteUnavailable, common.ErrorCode(err))
	require.Empty(t, provider.sessions, "no session may be created when the coupon step fails")
}

func TestGenerateLinkCustomerFailureIsTerminal(t *testing.T) {
	provider := newFakeProvider(oneTimePrice())
	provider.customerErr = errors.Join(payment.ErrRemoteUnavailable, errors.New("connection reset"))
	svc := newService(t, provider)

	_, err := svc.GenerateLink(context.Background(), checkout.Input{
		Email:           "a@b.com",
		Name:            "Ada",
		PriceID:         "price_abc",
		DiscountPercent: 10,
	})
	require.Error(t, err)
	require.Equal(t, common.CodeCustomerResolution, common.ErrorCode(err))
	require.Empty(t, provider.couponPercents)
	require.Empty(t, provider.sessions)
}

func TestGenerateLinkSessionFailureSurfacesRemoteMessage(t *testing.T) {
	provider := newFakeProvider(oneTimePrice())
	provider.sessionErr = errors.New("You cannot use `mode=payment` with a recurring price")
	svc := newService(t, provider)

	_, err := svc.GenerateLink(context.Background(), checkout.Input{
		CustomerID: "cus_123",
		PriceID:    "price_abc",
	})
	require.Error(t, err)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, common.CodeCheckoutCreation, appErr.Code)
	require.Contains(t, fmt.Sprint(appErr.Details), "mode=payment")
}

func TestGenerateLinkByLabel(t *testing.T) {
	provider := newFakeProvider(monthlyPrice())
	svc := newService(t, provider)

	out, err := svc.GenerateLink(context.Background(), checkout.Input{
		CustomerID: "cus_123",
		Label:      "Pro Plan (20.00 USD/month)",
	})
	require.NoError(t, err)
	require.Equal(t, payment.ModeSubscription, out.Mode)
}

func TestGenerateLinkValidation(t *testing.T) {
	provider := newFakeProvider(oneTimePrice())
	svc := newService(t, provider)
	ctx := context.Background()

	cases := []struct {
		name string
		in   checkout.Input
	}{
		{"missing customer", checkout.Input{PriceID: "price_abc"}},
		{"email without name", checkout.Input{Email: "a@b.com", PriceID: "price_abc"}},
		{"missing price", checkout.Input{CustomerID: "cus_123"}},
		{"percent above range", checkout.Input{CustomerID: "cus_123", PriceID: "price_abc", DiscountPercent: 101}},
		{"percent below range", checkout.Input{CustomerID: "cus_123", PriceID: "price_abc", DiscountPercent: -1}},
		{"invalid email", checkout.Input{Email: "nope", Name: "Ada", PriceID: "price_abc"}},
		{"unknown price", checkout.Input{CustomerID: "cus_123", PriceID: "price_nope"}},
		{"unknown label", checkout.Input{CustomerID: "cus_123", Label: "Nope (1.00 USD)"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.GenerateLink(ctx, tc.in)
			require.Error(t, err)
			require.Equal(t, common.CodeBadRequest, common.ErrorCode(err))
		})
	}
	require.Empty(t, provider.sessions)
}
