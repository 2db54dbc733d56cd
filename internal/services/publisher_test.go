package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-exchange-engine/internal/models"
	"github.com/sbilibin2017/gw-exchange-engine/internal/money"
	"github.com/sbilibin2017/gw-exchange-engine/internal/services"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKafkaPublisher_Publish(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	writer := services.NewMockKafkaWriter(ctrl)
	publisher := services.NewKafkaPublisher(writer)

	txs := []*models.Transaction{
		{TransactionID: uuid.New(), Currency: "BTC", Type: models.TransactionExchange, Amount: money.MustParse("-0.01"), Status: models.TransactionCompleted},
		{TransactionID: uuid.New(), Currency: "ETH", Type: models.TransactionExchange, Amount: money.MustParse("0.28552"), Status: models.TransactionCompleted},
	}

	writer.EXPECT().
		WriteMessages(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msgs ...kafka.Message) error {
			require.Len(t, msgs, 2)
			for i, msg := range msgs {
				assert.Equal(t, txs[i].TransactionID.String(), string(msg.Key))

				var body map[string]any
				require.NoError(t, json.Unmarshal(msg.Value, &body))
				assert.Equal(t, "exchange", body["type"])
				assert.Equal(t, txs[i].Amount.String(), body["amount"])
			}
			return nil
		})
	publisher.Publish(context.Background(), txs...)

	writer.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))
	publisher.Publish(context.Background(), txs[0])

	services.NewKafkaPublisher(nil).Publish(context.Background(), txs[0])
}
