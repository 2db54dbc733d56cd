package facades

import (
	"context"

	"github.com/sbilibin2017/gw-exchange-engine/internal/apperr"
	"github.com/sbilibin2017/gw-exchange-engine/internal/logger"
	pb "github.com/sbilibin2017/proto-exchange/exchange"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// PriceFeedGRPCFacade reads mid-market prices from the exchange rate service.
type PriceFeedGRPCFacade struct {
	client pb.ExchangeServiceClient
}

// NewPriceFeedGRPCFacade creates a new facade with a gRPC client.
func NewPriceFeedGRPCFacade(client pb.ExchangeServiceClient) *PriceFeedGRPCFacade {
	return &PriceFeedGRPCFacade{client: client}
}

// MidPrice returns how many units of baseFiat one unit of symbol is worth.
func (f *PriceFeedGRPCFacade) MidPrice(ctx context.Context, symbol, baseFiat string) (decimal.Decimal, error) {
	req := &pb.CurrencyRequest{
		FromCurrency: symbol,
		ToCurrency:   baseFiat,
	}

	resp, err := f.client.GetExchangeRateForCurrency(ctx, req)
	if err != nil {
		logger.Log.Errorw("failed to fetch mid price via gRPC",
			"symbol", symbol, "base", baseFiat, "error", err)
		return decimal.Zero, mapStatus(err)
	}

	price := decimal.NewFromFloat32(resp.Rate)
	if !price.IsPositive() {
		return decimal.Zero, apperr.Newf(apperr.InvalidRequest, "feed returned non-positive price %s for %s", price, symbol)
	}
	return price, nil
}

func mapStatus(err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return apperr.Wrap(apperr.NotFound, err, "price feed")
	case codes.DeadlineExceeded, codes.Unavailable, codes.Canceled:
		return apperr.Wrap(apperr.Timeout, err, "price feed")
	default:
		return apperr.Wrap(apperr.StorageFailure, err, "price feed")
	}
}
