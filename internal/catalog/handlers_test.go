package catalog_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avelouis/backend-linkgen/internal/catalog"
	"github.com/avelouis/backend-linkgen/internal/common"
	"github.com/avelouis/backend-linkgen/internal/payment"
)

type catalogResponse struct {
	Data    []catalog.Entry     `json:"data"`
	Warning *common.WarningBody `json:"warning"`
}

func TestCatalogHandlerListsEntries(t *testing.T) {
	lister := &fakeLister{prices: []payment.PriceRecord{
		{ID: "price_1", UnitAmountMinor: 5000, Currency: "USD", ProductName: "Starter", Type: payment.PriceTypeOneTime},
		{ID: "price_2", UnitAmountMinor: 2000, Currency: "USD", ProductName: "Pro Plan", Type: payment.PriceTypeRecurring, RecurringInterval: "month"},
	}}
	svc, err := catalog.NewService(catalog.ServiceConfig{Provider: lister})
	require.NoError(t, err)
	handler := catalog.NewHandler(catalog.HandlerConfig{Service: svc})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog", nil)
	rec := httptest.NewRecorder()
	handler.Catalog(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body catalogResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Nil(t, body.Warning)
	require.Len(t, body.Data, 2)
	require.Equal(t, "Starter (50.00 USD)", body.Data[0].Label)
	require.Equal(t, "Pro Plan (20.00 USD/month)", body.Data[1].Label)
}

func TestCatalogHandlerRemoteFailureRendersWarning(t *testing.T) {
	lister := &fakeLister{err: errors.Join(payment.ErrRemoteUnavailable, context.DeadlineExceeded)}
	svc, err := catalog.NewService(catalog.ServiceConfig{Provider: lister})
	require.NoError(t, err)
	handler := catalog.NewHandler(catalog.HandlerConfig{Service: svc})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog", nil)
	rec := httptest.NewRecorder()
	handler.Catalog(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body catalogResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Empty(t, body.Data)
	require.NotNil(t, body.Warning)
	require.Equal(t, common.CodeRemoteUnavailable, body.Warning.Code)
}
