package facades

import (
	"context"
	"errors"
	"testing"

	"github.com/sbilibin2017/gw-exchange-engine/internal/apperr"
	pb "github.com/sbilibin2017/proto-exchange/exchange"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// --- Fake gRPC client ---
type fakeExchangeClient struct {
	rate float32
	err  error
	last *pb.CurrencyRequest
}

func (f *fakeExchangeClient) GetExchangeRates(ctx context.Context, _ *pb.Empty, opts ...grpc.CallOption) (*pb.ExchangeRatesResponse, error) {
	return nil, errors.New("not used")
}

func (f *fakeExchangeClient) GetExchangeRateForCurrency(ctx context.Context, req *pb.CurrencyRequest, opts ...grpc.CallOption) (*pb.ExchangeRateResponse, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &pb.ExchangeRateResponse{FromCurrency: req.FromCurrency, ToCurrency: req.ToCurrency, Rate: f.rate}, nil
}

// --- Tests ---
func TestMidPrice(t *testing.T) {
	client := &fakeExchangeClient{rate: 150000.5}
	facade := NewPriceFeedGRPCFacade(client)

	price, err := facade.MidPrice(context.Background(), "ETH", "RUB")
	require.NoError(t, err)
	assert.Equal(t, "150000.5", price.String())
	assert.Equal(t, "ETH", client.last.FromCurrency)
	assert.Equal(t, "RUB", client.last.ToCurrency)
}

func TestMidPrice_NonPositive(t *testing.T) {
	facade := NewPriceFeedGRPCFacade(&fakeExchangeClient{rate: 0})

	price, err := facade.MidPrice(context.Background(), "BTC", "RUB")
	assert.True(t, apperr.IsKind(err, apperr.InvalidRequest))
	assert.True(t, price.IsZero())
}

func TestMidPrice_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperr.Kind
	}{
		{name: "not found", err: status.Error(codes.NotFound, "no rate"), want: apperr.NotFound},
		{name: "unavailable", err: status.Error(codes.Unavailable, "down"), want: apperr.Timeout},
		{name: "deadline", err: status.Error(codes.DeadlineExceeded, "slow"), want: apperr.Timeout},
		{name: "plain", err: errors.New("grpc error"), want: apperr.StorageFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			facade := NewPriceFeedGRPCFacade(&fakeExchangeClient{err: tt.err})

			_, err := facade.MidPrice(context.Background(), "ETH", "RUB")
			assert.Equal(t, tt.want, apperr.KindOf(err))
		})
	}
}
