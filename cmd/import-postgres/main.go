// Import users and trades from a legacy Postgres database.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/shopspring/decimal"

	"github.com/dense-analysis/stockwatch/internal/database"
	"github.com/dense-analysis/stockwatch/internal/env"
	"github.com/dense-analysis/stockwatch/internal/store"
)

func connectPostgres() (*pgx.Conn, error) {
	return pgx.Connect(
		context.Background(),
		fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s",
			envOrDefault("PG_USERNAME", os.Getenv("DB_USERNAME")),
			envOrDefault("PG_PASSWORD", os.Getenv("DB_PASSWORD")),
			envOrDefault("PG_HOST", os.Getenv("DB_HOST")),
			envOrDefault("PG_PORT", os.Getenv("DB_PORT")),
			envOrDefault("PG_DATABASE", os.Getenv("DB_NAME")),
		),
	)
}

func importUsers(legacy *pgx.Conn, conn *database.Conn) error {
	rows, err := legacy.Query(
		context.Background(),
		"select id, email from app_user order by id",
	)

	if err != nil {
		return err
	}

	defer rows.Close()

	batch, err := conn.PrepareBatch(
		"insert into stock_user (user_id, email, updated_at) values (?, ?, now64(9))",
	)

	if err != nil {
		return err
	}

	rowCount := 0

	for rows.Next() {
		var id int64
		var email string

		if err := rows.Scan(&id, &email); err != nil {
			return err
		}

		if err := batch.Append(fmt.Sprintf("%d", id), email); err != nil {
			return err
		}

		rowCount += 1
	}

	if err := rows.Err(); err != nil {
		return err
	}

	if rowCount == 0 {
		return nil
	}

	return batch.Send()
}

func importTrades(legacy *pgx.Conn, conn *database.Conn, table, side string) error {
	rows, err := legacy.Query(
		context.Background(),
		fmt.Sprintf(
			"select user_id, ticker, quantity, price, fee, trade_date from %s order by trade_date",
			table,
		),
	)

	if err != nil {
		return err
	}

	defer rows.Close()

	batch, err := conn.PrepareBatch(
		`insert into stock_trade
			(id, user_id, ticker, side, quantity, price, fee, trade_date, recorded_at)
		values (?, ?, ?, ?, ?, ?, ?, ?, now64(9))`,
	)

	if err != nil {
		return err
	}

	rowCount := 0

	for rows.Next() {
		var userID int64
		var ticker string
		var quantity decimal.Decimal
		var price decimal.Decimal
		var fee decimal.Decimal
		var tradeDate time.Time

		if err := rows.Scan(&userID, &ticker, &quantity, &price, &fee, &tradeDate); err != nil {
			return err
		}

		id, err := database.RandomID()

		if err != nil {
			return err
		}

		if err := batch.Append(
			id,
			fmt.Sprintf("%d", userID),
			ticker,
			side,
			quantity,
			price,
			fee,
			tradeDate,
		); err != nil {
			return err
		}

		rowCount += 1
	}

	if err := rows.Err(); err != nil {
		return err
	}

	if rowCount == 0 {
		return nil
	}

	return batch.Send()
}

func main() {
	env.LoadEnvironmentVariables()

	legacy, err := connectPostgres()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %s\n", err)
		os.Exit(1)
	}

	defer legacy.Close(context.Background())

	conn, err := database.Connect()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %s\n", err)
		os.Exit(1)
	}

	defer conn.Close()

	if err := importUsers(legacy, conn); err != nil {
		exitWithError("Import users", err)
	}

	if err := importTrades(legacy, conn, "stock_purchase", store.SideBuy); err != nil {
		exitWithError("Import purchases", err)
	}

	if err := importTrades(legacy, conn, "stock_sale", store.SideSell); err != nil {
		exitWithError("Import sales", err)
	}
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}

	return fallback
}

func exitWithError(action string, err error) {
	fmt.Fprintf(os.Stderr, "%s error: %s\n", action, err)
	os.Exit(1)
}
