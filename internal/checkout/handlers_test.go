package checkout_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	validator "github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/avelouis/backend-linkgen/internal/catalog"
	"github.com/avelouis/backend-linkgen/internal/checkout"
	"github.com/avelouis/backend-linkgen/internal/common"
)

func newTestHandler(t *testing.T, provider *fakeProvider) *checkout.Handler {
	t.Helper()
	catSvc, err := catalog.NewService(catalog.ServiceConfig{Provider: provider})
	require.NoError(t, err)
	return &checkout.Handler{Svc: &checkout.Service{
		Provider: provider,
		Catalog:  catSvc,
		Validate: validator.New(),
	}}
}

func TestGenerateLinkHandlerCreatesLink(t *testing.T) {
	provider := newFakeProvider(oneTimePrice())
	handler := newTestHandler(t, provider)

	body, err := json.Marshal(map[string]any{
		"customerId":      "cus_123",
		"priceId":         "price_abc",
		"discountPercent": 10,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/links", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.GenerateLink(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		Data checkout.Output `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.URL)
	require.Equal(t, "90.00", resp.Data.FinalAmount)
	require.Equal(t, "coup_fake_1", resp.Data.CouponID)
}

func TestGenerateLinkHandlerRejectsMalformedBody(t *testing.T) {
	handler := newTestHandler(t, newFakeProvider(oneTimePrice()))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/links", bytes.NewReader([]byte("{nope")))
	rec := httptest.NewRecorder()
	handler.GenerateLink(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp struct {
		Error common.ErrorBody `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, common.CodeBadRequest, resp.Error.Code)
}

func TestGenerateLinkHandlerRejectsInvalidInput(t *testing.T) {
	handler := newTestHandler(t, newFakeProvider(oneTimePrice()))

	body := []byte(`{"priceId":"price_abc"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/links", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.GenerateLink(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp struct {
		Error common.ErrorBody `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, common.CodeBadRequest, resp.Error.Code)
}
