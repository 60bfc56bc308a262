package notify

import (
	"fmt"
	"testing"
	"time"

	"github.com/STTM-NSU/pricefeed/internal/model"
	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddNewestFirst(t *testing.T) {
	s := NewStore(0)
	s.Add(model.Alert{ID: "a", Type: model.MarketAlert})
	s.Add(model.Alert{ID: "b", Type: model.TradeAlert})

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID)
	assert.Equal(t, "a", list[1].ID)
	assert.Equal(t, 2, s.UnreadCount())
}

func TestAddFillsIDAndTimestamp(t *testing.T) {
	mock := clock.NewMock()
	mock.Set(time.Date(2026, 2, 20, 10, 0, 0, 0, time.UTC))
	s := NewStore(0, WithClock(mock))

	a := s.Add(model.Alert{Type: model.AccountAlert, Title: "Funds", Message: "deposit received", Read: true})
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, mock.Now().UTC(), a.Timestamp)
	assert.False(t, a.Read)
}

func TestRetentionLimit(t *testing.T) {
	s := NewStore(50)
	for i := 0; i < 60; i++ {
		s.Add(model.Alert{ID: fmt.Sprintf("n%d", i)})
	}
	list := s.List()
	require.Len(t, list, 50)
	assert.Equal(t, "n59", list[0].ID)
	assert.Equal(t, "n10", list[49].ID)
}

func TestReadState(t *testing.T) {
	s := NewStore(0)
	s.Add(model.Alert{ID: "a"})
	s.Add(model.Alert{ID: "b"})
	s.Add(model.Alert{ID: "c"})

	assert.True(t, s.MarkRead("b"))
	assert.False(t, s.MarkRead("missing"))
	assert.Equal(t, 2, s.UnreadCount())

	s.MarkAllRead()
	assert.Zero(t, s.UnreadCount())

	s.Clear()
	assert.Empty(t, s.List())
}

func TestListIsCopy(t *testing.T) {
	s := NewStore(0)
	s.Add(model.Alert{ID: "a"})
	list := s.List()
	list[0].Read = true
	assert.Equal(t, 1, s.UnreadCount())
}

func TestHook(t *testing.T) {
	var (
		got []model.Alert
		s   *Store
	)
	s = NewStore(0, WithHook(func(a model.Alert) {
		got = append(got, a)
		assert.Equal(t, 1, len(s.List()))
	}))
	s.Add(model.Alert{ID: "a", Message: "hello"})
	require.Len(t, got, 1)
	assert.Equal(t, "hello", got[0].Message)
}
