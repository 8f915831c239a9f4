package store

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dense-analysis/stockwatch/internal/database"
	"github.com/dense-analysis/stockwatch/internal/model"
)

type fakeRows struct {
	rows  [][]any
	index int
}

func (r *fakeRows) Next() bool {
	r.index++
	return r.index <= len(r.rows)
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.index-1]

	for i, value := range row {
		switch target := dest[i].(type) {
		case *string:
			*target = value.(string)
		case *decimal.Decimal:
			*target = value.(decimal.Decimal)
		case *time.Time:
			*target = value.(time.Time)
		}
	}

	return nil
}

func (r *fakeRows) Close() error { return nil }
func (r *fakeRows) Err() error   { return nil }

type fakeConn struct {
	rows *fakeRows
	sql  string
	args []any
}

func (c *fakeConn) Exec(sql string, arguments ...any) error {
	c.sql = sql
	c.args = arguments
	return nil
}

func (c *fakeConn) Query(sql string, arguments ...any) (database.Rows, error) {
	c.sql = sql
	c.args = arguments
	return c.rows, nil
}

func (c *fakeConn) QueryRow(sql string, arguments ...any) database.Row {
	return nil
}

func tradeValues(ticker, side string, quantity, price float64, date time.Time) []any {
	return []any{
		ticker,
		side,
		decimal.NewFromFloat(quantity),
		decimal.NewFromFloat(price),
		decimal.Zero,
		date,
	}
}

func TestLoadHoldingsFoldsTradeLog(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	conn := &fakeConn{rows: &fakeRows{rows: [][]any{
		tradeValues("AAPL", "buy", 10, 100, day),
		tradeValues("MSFT", "buy", 2, 300, day.AddDate(0, 0, 1)),
		tradeValues("AAPL", "sell", 4, 120, day.AddDate(0, 0, 2)),
		tradeValues("aapl", "buy", 1, 110, day.AddDate(0, 0, 3)),
	}}}

	holdings, err := LoadHoldings(conn, "1")
	require.NoError(t, err)
	require.Len(t, holdings, 2)

	assert.Equal(t, []any{"1"}, conn.args)

	// Holdings keep first-trade order; tickers normalize to uppercase.
	aapl := holdings[0]
	assert.Equal(t, "AAPL", aapl.Ticker)
	require.Len(t, aapl.Purchases, 2)
	require.Len(t, aapl.Sales, 1)
	assert.Equal(t, 10.0, aapl.Purchases[0].Quantity)
	assert.Equal(t, 110.0, aapl.Purchases[1].Price)
	assert.Equal(t, 4.0, aapl.Sales[0].Quantity)

	msft := holdings[1]
	assert.Equal(t, "MSFT", msft.Ticker)
	require.Len(t, msft.Purchases, 1)
	assert.Empty(t, msft.Sales)
}

func TestLoadHoldingsEmptyLog(t *testing.T) {
	conn := &fakeConn{rows: &fakeRows{}}

	holdings, err := LoadHoldings(conn, "1")
	require.NoError(t, err)
	assert.Empty(t, holdings)
}

func TestSaveTradeNormalizesTicker(t *testing.T) {
	conn := &fakeConn{}

	err := SaveTrade(conn, "1", " aapl ", SideBuy, model.Trade{
		Quantity: 2,
		Price:    101.5,
		Date:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Contains(t, conn.sql, "insert into stock_trade")
	// id, user_id, ticker, side, quantity, price, fee, trade_date
	require.Len(t, conn.args, 8)
	assert.Equal(t, "1", conn.args[1])
	assert.Equal(t, "AAPL", conn.args[2])
	assert.Equal(t, SideBuy, conn.args[3])
}
