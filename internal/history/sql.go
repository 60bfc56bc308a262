package history

import (
	"context"
	"fmt"
	"time"

	"github.com/STTM-NSU/pricefeed/internal/model"
	"github.com/STTM-NSU/pricefeed/internal/sqldb"
	"github.com/jmoiron/sqlx"
)

const (
	// seq is the append order; trades of one tick share ts
	_createTrades = `CREATE TABLE IF NOT EXISTS trades (
								seq      %s,
								id       TEXT NOT NULL UNIQUE,
								symbol   TEXT NOT NULL,
								side     TEXT NOT NULL,
								price    DOUBLE PRECISION NOT NULL,
								quantity BIGINT NOT NULL,
								status   TEXT NOT NULL,
								ts       BIGINT NOT NULL,
								is_auto  INTEGER NOT NULL DEFAULT 0,
								note     TEXT NOT NULL DEFAULT ''
							)`
	_insertTrade = `INSERT INTO trades (
								id, symbol, side, price, quantity, status, ts, is_auto, note
							) VALUES (
								:id, :symbol, :side, :price, :quantity, :status, :ts, :is_auto, :note
							)`
	_queryTrades      = "SELECT * FROM trades ORDER BY seq DESC"
	_queryTradesLimit = "SELECT * FROM trades ORDER BY seq DESC LIMIT ?"

	_postgresSeq = "BIGSERIAL PRIMARY KEY"
	_sqliteSeq   = "INTEGER PRIMARY KEY AUTOINCREMENT"
)

// tradeRow keeps the table portable between postgres and sqlite: time as unix
// nanoseconds, flags as integers.
type tradeRow struct {
	Seq      int64   `db:"seq"`
	ID       string  `db:"id"`
	Symbol   string  `db:"symbol"`
	Side     string  `db:"side"`
	Price    float64 `db:"price"`
	Quantity int64   `db:"quantity"`
	Status   string  `db:"status"`
	TS       int64   `db:"ts"`
	Auto     int     `db:"is_auto"`
	Note     string  `db:"note"`
}

func toRow(t model.Trade) tradeRow {
	row := tradeRow{
		ID:       t.ID,
		Symbol:   t.Symbol,
		Side:     string(t.Side),
		Price:    t.Price,
		Quantity: t.Quantity,
		Status:   string(t.Status),
		TS:       t.Timestamp.UnixNano(),
		Note:     t.Note,
	}
	if t.Auto {
		row.Auto = 1
	}
	return row
}

func (r tradeRow) trade() model.Trade {
	return model.Trade{
		ID:        r.ID,
		Symbol:    r.Symbol,
		Side:      model.Side(r.Side),
		Price:     r.Price,
		Quantity:  r.Quantity,
		Status:    model.TradeStatus(r.Status),
		Timestamp: time.Unix(0, r.TS).UTC(),
		Auto:      r.Auto != 0,
		Note:      r.Note,
	}
}

// SQL stores trades in a postgres or sqlite table.
type SQL struct {
	db *sqlx.DB
}

func NewSQL(ctx context.Context, db *sqlx.DB) (*SQL, error) {
	seq := _postgresSeq
	if db.DriverName() == sqldb.SQLite {
		seq = _sqliteSeq
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf(_createTrades, seq)); err != nil {
		return nil, fmt.Errorf("%w: can't create trades table", err)
	}
	return &SQL{db: db}, nil
}

func (s *SQL) Append(ctx context.Context, t model.Trade) error {
	if _, err := s.db.NamedExecContext(ctx, _insertTrade, toRow(t)); err != nil {
		return fmt.Errorf("%w: can't insert trade %s", err, t.ID)
	}
	return nil
}

func (s *SQL) List(ctx context.Context, limit int) ([]model.Trade, error) {
	var (
		rows []tradeRow
		err  error
	)
	if limit > 0 {
		err = s.db.SelectContext(ctx, &rows, s.db.Rebind(_queryTradesLimit), limit)
	} else {
		err = s.db.SelectContext(ctx, &rows, _queryTrades)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: can't query trades", err)
	}

	trades := make([]model.Trade, 0, len(rows))
	for _, r := range rows {
		trades = append(trades, r.trade())
	}
	return trades, nil
}
