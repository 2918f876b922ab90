package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagwall/gateway-settlement/internal/model"
)

type fakeStores struct {
	gateways map[int64]*model.Gateway
	err      error
}

func (f *fakeStores) GetGateway(ctx context.Context, storeID int64) (*model.Gateway, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.gateways[storeID], nil
}

func gwPtr(g model.Gateway) *model.Gateway { return &g }

func TestRouter_ResolveGateway(t *testing.T) {
	t.Run("happy: configured gateway wins", func(t *testing.T) {
		stores := &fakeStores{gateways: map[int64]*model.Gateway{1: gwPtr(model.GatewayOwn)}}
		router := NewRouter(stores)

		assert.Equal(t, model.GatewayOwn, router.ResolveGateway(context.Background(), 1))
	})

	t.Run("happy: unset gateway falls back to PINBANK", func(t *testing.T) {
		stores := &fakeStores{gateways: map[int64]*model.Gateway{}}
		router := NewRouter(stores)

		assert.Equal(t, model.GatewayPinbank, router.ResolveGateway(context.Background(), 99))
	})

	t.Run("happy: read failure falls back to PINBANK", func(t *testing.T) {
		stores := &fakeStores{err: errors.New("store table unreachable")}
		router := NewRouter(stores)

		assert.Equal(t, model.GatewayPinbank, router.ResolveGateway(context.Background(), 1))
	})
}

func chargeRequest(storeID int64) *ChargeRequest {
	return &ChargeRequest{
		StoreID: storeID,
		Card: CardData{
			Number: "4111111111111111", Holder: "JOSE SILVA",
			ExpiryMM: "12", ExpiryYY: "28", SecureCode: "123",
		},
		Amount:       decimal.RequireFromString("100.00"),
		Installments: 1,
	}
}

func TestRouter_Charge(t *testing.T) {
	t.Run("happy: dispatches to pinbank and normalizes approval", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/transacoes/autorizar", r.URL.Path)
			w.Write([]byte(`{"CodigoRetorno": "00", "Mensagem": "Aprovada", "IdTransacao": "900555", "NumeroAutorizacao": "A1B2C3"}`))
		}))
		defer srv.Close()

		stores := &fakeStores{gateways: map[int64]*model.Gateway{}}
		router := NewRouter(stores, NewPinbankClient(srv.URL, "key", 5*time.Second))

		result := router.Charge(context.Background(), chargeRequest(1))
		assert.True(t, result.Success)
		assert.Equal(t, model.GatewayPinbank, result.Acquirer)
		assert.Equal(t, "900555", result.AcquirerReference)
		assert.Equal(t, "A1B2C3", result.AuthorizationCode)
	})

	t.Run("happy: decline is a result, not an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"CodigoRetorno": "51", "Mensagem": "Saldo insuficiente"}`))
		}))
		defer srv.Close()

		stores := &fakeStores{gateways: map[int64]*model.Gateway{}}
		router := NewRouter(stores, NewPinbankClient(srv.URL, "key", 5*time.Second))

		result := router.Charge(context.Background(), chargeRequest(1))
		assert.False(t, result.Success)
		assert.Equal(t, "Saldo insuficiente", result.Message)
	})

	t.Run("happy: own response shape normalizes to the same result", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/payments", r.URL.Path)
			w.Write([]byte(`{"status": "approved", "payment": {"id": "ow-789", "auth_code": "ZZ99"}}`))
		}))
		defer srv.Close()

		stores := &fakeStores{gateways: map[int64]*model.Gateway{2: gwPtr(model.GatewayOwn)}}
		router := NewRouter(stores, NewOwnClient(srv.URL, "key", 5*time.Second))

		result := router.Charge(context.Background(), chargeRequest(2))
		assert.True(t, result.Success)
		assert.Equal(t, model.GatewayOwn, result.Acquirer)
		assert.Equal(t, "ow-789", result.AcquirerReference)
		assert.Equal(t, "ZZ99", result.AuthorizationCode)
	})

	t.Run("bad: acquirer outage surfaces as failed result", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		stores := &fakeStores{gateways: map[int64]*model.Gateway{}}
		router := NewRouter(stores, NewPinbankClient(srv.URL, "key", 5*time.Second))

		result := router.Charge(context.Background(), chargeRequest(1))
		assert.False(t, result.Success)
		assert.Contains(t, result.Message, "unavailable")
	})

	t.Run("bad: missing client is a structured failure", func(t *testing.T) {
		stores := &fakeStores{gateways: map[int64]*model.Gateway{3: gwPtr(model.GatewayOwn)}}
		router := NewRouter(stores)

		result := router.Charge(context.Background(), chargeRequest(3))
		assert.False(t, result.Success)
		assert.Contains(t, result.Message, "no client configured")
	})
}

func TestRouter_Refund(t *testing.T) {
	t.Run("happy: pinbank refund succeeds", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/transacoes/estornar", r.URL.Path)
			w.Write([]byte(`{"CodigoRetorno": "00", "Mensagem": "Estornada"}`))
		}))
		defer srv.Close()

		stores := &fakeStores{gateways: map[int64]*model.Gateway{}}
		router := NewRouter(stores, NewPinbankClient(srv.URL, "key", 5*time.Second))

		result := router.Refund(context.Background(), 1, "900555", decimal.RequireFromString("100.00"))
		assert.True(t, result.Success)
	})

	t.Run("happy: own refund is a structured not-implemented failure", func(t *testing.T) {
		stores := &fakeStores{gateways: map[int64]*model.Gateway{2: gwPtr(model.GatewayOwn)}}
		router := NewRouter(stores, NewOwnClient("http://unused.example", "key", 5*time.Second))

		result := router.Refund(context.Background(), 2, "ow-789", decimal.RequireFromString("50.00"))
		require.NotNil(t, result)
		assert.False(t, result.Success)
		assert.Contains(t, result.Message, "not implemented")
		assert.Equal(t, model.GatewayOwn, result.Acquirer)
	})
}
