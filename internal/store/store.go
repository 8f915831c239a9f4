// Package store reads and writes holdings and quote history in ClickHouse.
package store

import (
	"strings"
	"time"

	"github.com/dense-analysis/stockwatch/internal/database"
	"github.com/dense-analysis/stockwatch/internal/model"
	"github.com/shopspring/decimal"
)

// Trade sides in the stock_trade log.
const (
	SideBuy  = "buy"
	SideSell = "sell"
)

type tradeRow struct {
	Ticker   string
	Side     string
	Quantity decimal.Decimal
	Price    decimal.Decimal
	Fee      decimal.Decimal
	Date     time.Time
}

func scanTrade(row database.Row, trade *tradeRow) error {
	return row.Scan(
		&trade.Ticker,
		&trade.Side,
		&trade.Quantity,
		&trade.Price,
		&trade.Fee,
		&trade.Date,
	)
}

// LoadHoldings folds a user's trade log into holdings, one per ticker,
// in first-trade order with purchases and sales ordered by date.
func LoadHoldings(conn database.Queryable, userID string) ([]model.Holding, error) {
	var rows []tradeRow

	err := model.LoadList(
		conn,
		&rows,
		50,
		scanTrade,
		`
		select ticker, side, quantity, price, fee, trade_date
		from stock_trade
		where user_id = ?
		order by trade_date, recorded_at
		`,
		userID,
	)

	if err != nil {
		return nil, err
	}

	indexByTicker := map[string]int{}
	holdings := []model.Holding{}

	for _, row := range rows {
		ticker := strings.ToUpper(strings.TrimSpace(row.Ticker))

		index, ok := indexByTicker[ticker]

		if !ok {
			index = len(holdings)
			indexByTicker[ticker] = index
			holdings = append(holdings, model.Holding{Ticker: ticker})
		}

		trade := model.Trade{
			Quantity: row.Quantity.InexactFloat64(),
			Price:    row.Price.InexactFloat64(),
			Fee:      row.Fee.InexactFloat64(),
			Date:     row.Date,
		}

		if row.Side == SideSell {
			holdings[index].Sales = append(holdings[index].Sales, trade)
		} else {
			holdings[index].Purchases = append(holdings[index].Purchases, trade)
		}
	}

	return holdings, nil
}

var tradeInsertQuery = `
insert into stock_trade
	(id, user_id, ticker, side, quantity, price, fee, trade_date, recorded_at)
values (?, ?, ?, ?, ?, ?, ?, ?, now64(9))
`

// SaveTrade appends one purchase or sale to a user's trade log.
func SaveTrade(conn database.Queryable, userID, ticker, side string, trade model.Trade) error {
	id, err := database.RandomID()

	if err != nil {
		return err
	}

	return conn.Exec(
		tradeInsertQuery,
		id,
		userID,
		strings.ToUpper(strings.TrimSpace(ticker)),
		side,
		decimal.NewFromFloat(trade.Quantity),
		decimal.NewFromFloat(trade.Price),
		decimal.NewFromFloat(trade.Fee),
		trade.Date,
	)
}

// InsertQuoteSnapshots archives one batch of fetched quotes.
func InsertQuoteSnapshots(conn *database.Conn, quotes map[string]model.LiveQuote) error {
	if len(quotes) == 0 {
		return nil
	}

	batch, err := conn.PrepareBatch(
		`insert into stock_quote_snapshot
			(time, ticker, price, price_change_pct, volume_ratio)
		values (?, ?, ?, ?, ?)`,
	)

	if err != nil {
		return err
	}

	for ticker, quote := range quotes {
		if err := batch.Append(
			quote.FetchedAt,
			ticker,
			quote.CurrentPrice,
			quote.PriceChangePct,
			quote.VolumeRatio,
		); err != nil {
			return err
		}
	}

	return batch.Send()
}

func scanUser(row database.Row, user *model.User) error {
	return row.Scan(&user.ID, &user.Email)
}

// LoadUsers loads every user with at least one trade recorded.
func LoadUsers(conn database.Queryable, userList *[]model.User) error {
	return model.LoadList(
		conn,
		userList,
		20,
		scanUser,
		`
		select user_id, email
		from stock_user
		where user_id in (select distinct user_id from stock_trade)
		order by user_id
		limit 1 by user_id
		`,
	)
}

// AlertAlreadySent reports whether a signal was already recorded for a
// user, ticker, and kind on the given day.
func AlertAlreadySent(conn database.Queryable, userID, ticker, kind string, day time.Time) (bool, error) {
	row := conn.QueryRow(
		`select count()
		from stock_alert_log
		where user_id = ? and ticker = ? and kind = ? and alert_date = ?`,
		userID,
		ticker,
		kind,
		day.Format("2006-01-02"),
	)

	var count uint64

	if err := row.Scan(&count); err != nil {
		return false, err
	}

	return count > 0, nil
}

// LogAlert records that a signal was sent so it is not re-sent the
// same day.
func LogAlert(conn database.Queryable, userID, ticker, kind string, day time.Time) error {
	return conn.Exec(
		`insert into stock_alert_log (user_id, ticker, kind, alert_date, sent_at)
		values (?, ?, ?, ?, now64(9))`,
		userID,
		ticker,
		kind,
		day.Format("2006-01-02"),
	)
}
