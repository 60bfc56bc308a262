package protocol

import (
	"testing"
	"time"

	"github.com/STTM-NSU/pricefeed/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeUpdateWireShape(t *testing.T) {
	payload, err := EncodeUpdate(model.Batch{{
		Symbol: "EUR/USD", Name: "Euro / US Dollar", Exchange: model.Forex,
		LTP: 1.0845, Change: 0.0012, PercentChange: 0.11, IsUp: true,
	}})
	require.NoError(t, err)

	assert.JSONEq(t, `{"type":"UPDATE","data":[{"symbol":"EUR/USD","name":"Euro / US Dollar","exchange":"FOREX","ltp":1.0845,"change":0.0012,"percentChange":0.11,"isUp":true}]}`, string(payload))
}

func TestEncodeEmptyInitialState(t *testing.T) {
	payload, err := EncodeInitialState(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"INITIAL_STATE","data":[]}`, string(payload))
}

func TestDecodeQuotes(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"INITIAL_STATE","data":[{"symbol":"USD/JPY","ltp":150.12,"isUp":true}]}`))
	require.NoError(t, err)
	assert.Equal(t, InitialState, msg.Type)
	require.Len(t, msg.Quotes, 1)
	assert.Equal(t, "USD/JPY", msg.Quotes[0].Symbol)
	assert.Equal(t, 150.12, msg.Quotes[0].LTP)
}

func TestDecodeNotification(t *testing.T) {
	ts := time.Date(2026, 2, 20, 10, 0, 0, 0, time.UTC)
	payload, err := EncodeNotification(model.Alert{
		ID: "market_1", Type: model.MarketAlert, Title: "Market Movement", Message: "EUR/USD is surging!", Timestamp: ts,
	})
	require.NoError(t, err)

	msg, err := Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, Notification, msg.Type)
	assert.Equal(t, "market_1", msg.Alert.ID)
	assert.Equal(t, model.MarketAlert, msg.Alert.Type)
	assert.True(t, ts.Equal(msg.Alert.Timestamp))
}

func TestDecodeMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":     `{"type":`,
		"unknown type": `{"type":"DELTA","data":[]}`,
		"missing type": `{"data":[]}`,
		"null data":    `{"type":"UPDATE","data":null}`,
		"wrong shape":  `{"type":"UPDATE","data":{"symbol":"EUR/USD"}}`,
		"alert type":   `{"type":"NOTIFICATION","data":{"id":"x","type":"PROMO","title":"t","message":"m"}}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(raw))
			assert.Error(t, err)
		})
	}
}
