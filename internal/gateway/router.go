package gateway

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/pagwall/gateway-settlement/internal/model"
)

// StoreGatewayReader reads a store's configured acquirer. A nil gateway means
// the store exists but has none assigned.
type StoreGatewayReader interface {
	GetGateway(ctx context.Context, storeID int64) (*model.Gateway, error)
}

// Router dispatches live payment operations to the acquirer configured for
// the store. It holds no state and writes nothing; ledger entries only ever
// come from the batch pipeline.
type Router struct {
	stores  StoreGatewayReader
	clients map[model.Gateway]AcquirerClient
}

func NewRouter(stores StoreGatewayReader, clients ...AcquirerClient) *Router {
	byName := make(map[model.Gateway]AcquirerClient, len(clients))
	for _, c := range clients {
		byName[c.Name()] = c
	}
	return &Router{stores: stores, clients: byName}
}

// ResolveGateway returns the store's acquirer. Any read failure or an unset
// gateway falls back to PINBANK, the legacy primary acquirer; availability
// wins over strictness here.
func (r *Router) ResolveGateway(ctx context.Context, storeID int64) model.Gateway {
	gw, err := r.stores.GetGateway(ctx, storeID)
	if err != nil {
		log.Warn().Err(err).Int64("store_id", storeID).Msg("gateway lookup failed, defaulting to PINBANK")
		return model.GatewayPinbank
	}
	if gw == nil {
		return model.GatewayPinbank
	}
	return *gw
}

func (r *Router) Charge(ctx context.Context, req *ChargeRequest) *ChargeResult {
	gw := r.ResolveGateway(ctx, req.StoreID)
	client, ok := r.clients[gw]
	if !ok {
		return &ChargeResult{
			Success:  false,
			Message:  fmt.Sprintf("no client configured for acquirer %s", gw),
			Acquirer: gw,
		}
	}

	result, err := client.Charge(ctx, req)
	if err != nil {
		log.Error().Err(err).Int64("store_id", req.StoreID).Str("acquirer", string(gw)).Msg("charge failed")
		return &ChargeResult{Success: false, Message: err.Error(), Acquirer: gw}
	}
	return result
}

func (r *Router) Refund(ctx context.Context, storeID int64, paymentID string, amount decimal.Decimal) *RefundResult {
	gw := r.ResolveGateway(ctx, storeID)
	client, ok := r.clients[gw]
	if !ok {
		return &RefundResult{
			Success:  false,
			Message:  fmt.Sprintf("no client configured for acquirer %s", gw),
			Acquirer: gw,
		}
	}

	result, err := client.Refund(ctx, paymentID, amount)
	if err != nil {
		log.Error().Err(err).Int64("store_id", storeID).Str("acquirer", string(gw)).Msg("refund failed")
		return &RefundResult{Success: false, Message: err.Error(), Acquirer: gw}
	}
	return result
}
