package history

import (
	"context"
	"testing"
	"time"

	"github.com/STTM-NSU/pricefeed/internal/model"
	"github.com/STTM-NSU/pricefeed/internal/sqldb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sinks(t *testing.T) map[string]Sink {
	t.Helper()
	db, err := sqldb.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s, err := NewSQL(context.Background(), db)
	require.NoError(t, err)

	return map[string]Sink{
		"memory": NewMemory(),
		"sqlite": s,
	}
}

func trades() []model.Trade {
	base := time.Date(2026, 2, 20, 10, 0, 0, 0, time.UTC)
	return []model.Trade{
		{ID: "th_1", Symbol: "EUR/USD", Side: model.Buy, Price: 1.0845, Quantity: 10000, Status: model.Completed, Timestamp: base},
		{ID: "th_2", Symbol: "GBP/USD", Side: model.Buy, Price: 1.2645, Quantity: 500, Status: model.Completed, Timestamp: base.Add(time.Second)},
		{ID: "sl_3", Symbol: "EUR/USD", Side: model.Sell, Price: 1.0799, Quantity: 10000, Status: model.Completed, Timestamp: base.Add(2 * time.Second), Auto: true, Note: "stop-loss 1.08"},
	}
}

func TestSinks(t *testing.T) {
	ctx := context.Background()
	for name, sink := range sinks(t) {
		t.Run(name, func(t *testing.T) {
			all := trades()
			for _, tr := range all {
				require.NoError(t, sink.Append(ctx, tr))
			}

			got, err := sink.List(ctx, 0)
			require.NoError(t, err)
			require.Len(t, got, 3)
			for i, want := range []model.Trade{all[2], all[1], all[0]} {
				assert.Equal(t, want.ID, got[i].ID)
				assert.Equal(t, want.Side, got[i].Side)
				assert.Equal(t, want.Price, got[i].Price)
				assert.Equal(t, want.Quantity, got[i].Quantity)
				assert.Equal(t, want.Status, got[i].Status)
				assert.Equal(t, want.Auto, got[i].Auto)
				assert.Equal(t, want.Note, got[i].Note)
				assert.True(t, want.Timestamp.Equal(got[i].Timestamp))
			}

			got, err = sink.List(ctx, 1)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, "sl_3", got[0].ID)
		})
	}
}

func TestSameTimestampKeepsAppendOrder(t *testing.T) {
	ctx := context.Background()
	ts := time.Date(2026, 2, 20, 10, 0, 0, 0, time.UTC)
	for name, sink := range sinks(t) {
		t.Run(name, func(t *testing.T) {
			for _, id := range []string{"sl-b", "sl-a", "sl-c"} {
				require.NoError(t, sink.Append(ctx, model.Trade{
					ID: id, Symbol: "GBP/USD", Side: model.Sell, Price: 1.258, Quantity: 500,
					Status: model.Completed, Timestamp: ts, Auto: true,
				}))
			}

			got, err := sink.List(ctx, 0)
			require.NoError(t, err)
			require.Len(t, got, 3)
			assert.Equal(t, "sl-c", got[0].ID)
			assert.Equal(t, "sl-a", got[1].ID)
			assert.Equal(t, "sl-b", got[2].ID)
		})
	}
}

func TestSQLDuplicateID(t *testing.T) {
	s := sinks(t)["sqlite"]
	tr := trades()[0]
	require.NoError(t, s.Append(context.Background(), tr))
	assert.Error(t, s.Append(context.Background(), tr))
}
