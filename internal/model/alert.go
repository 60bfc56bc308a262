package model

import "time"

type AlertType string

const (
	MarketAlert  AlertType = "MARKET"
	TradeAlert   AlertType = "TRADE"
	AccountAlert AlertType = "ACCOUNT"
	SystemAlert  AlertType = "SYSTEM"
)

func (t AlertType) Valid() bool {
	switch t {
	case MarketAlert, TradeAlert, AccountAlert, SystemAlert:
		return true
	default:
		return false
	}
}

type Alert struct {
	ID        string    `json:"id"`
	Type      AlertType `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read,omitempty"` // client side only
}
