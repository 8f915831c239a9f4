// Notify users about alert conditions on their holdings
package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/smtp"
	"os"
	"strings"
	"time"

	"github.com/dense-analysis/stockwatch/internal/alert"
	"github.com/dense-analysis/stockwatch/internal/config"
	"github.com/dense-analysis/stockwatch/internal/database"
	"github.com/dense-analysis/stockwatch/internal/env"
	"github.com/dense-analysis/stockwatch/internal/logger"
	"github.com/dense-analysis/stockwatch/internal/model"
	"github.com/dense-analysis/stockwatch/internal/quote"
	"github.com/dense-analysis/stockwatch/internal/refresh"
	"github.com/dense-analysis/stockwatch/internal/store"
)

type triggeredAlert struct {
	Email      string
	UserID     string
	Ticker     string
	Kind       alert.Kind
	Quote      model.LiveQuote
	Suggestion *alert.Suggestion
}

func findAlertsToTrigger(
	conn database.Queryable,
	quotes map[string]model.LiveQuote,
	users []model.User,
	holdingsByUser map[string][]model.Holding,
	day time.Time,
) ([]*triggeredAlert, error) {
	var alertList []*triggeredAlert

	for _, user := range users {
		for i := range holdingsByUser[user.ID] {
			holding := &holdingsByUser[user.ID][i]
			live, ok := quotes[holding.Ticker]

			if !ok {
				continue
			}

			// Evaluate already includes BreakEvenSuggestion; only the
			// suggestion details need another call.
			kinds := alert.Evaluate(holding, live)
			suggestion, suggested := alert.SuggestBreakEven(holding, live)

			for _, kind := range kinds {
				sent, err := store.AlertAlreadySent(conn, user.ID, holding.Ticker, string(kind), day)

				if err != nil {
					return nil, err
				}

				if sent {
					continue
				}

				entry := &triggeredAlert{
					Email:  user.Email,
					UserID: user.ID,
					Ticker: holding.Ticker,
					Kind:   kind,
					Quote:  live,
				}

				if kind == alert.BreakEvenSuggestion && suggested {
					entry.Suggestion = &suggestion
				}

				alertList = append(alertList, entry)
			}
		}
	}

	return alertList, nil
}

func sendEmail(to string, message string) error {
	username := os.Getenv("SMTP_USERNAME")
	password := os.Getenv("SMTP_PASSWORD")
	from := os.Getenv("SMTP_FROM")
	host := os.Getenv("SMTP_HOST")
	port := os.Getenv("SMTP_PORT")
	tlsconfig := &tls.Config{ServerName: host}
	auth := smtp.PlainAuth("", username, password, host)

	var conn *tls.Conn
	var err error

	if conn, err = tls.Dial("tcp", host+":"+port, tlsconfig); err != nil {
		return err
	}

	defer conn.Close()

	var client *smtp.Client

	if client, err = smtp.NewClient(conn, host); err != nil {
		return err
	}

	defer client.Close()

	if err = client.Auth(auth); err != nil {
		return err
	}

	if err = client.Mail(from); err != nil {
		return err
	}

	if err = client.Rcpt(to); err != nil {
		return err
	}

	var writer io.WriteCloser

	if writer, err = client.Data(); err != nil {
		return err
	}

	if _, err = writer.Write([]byte(message)); err != nil {
		return err
	}

	if err = writer.Close(); err != nil {
		return err
	}

	return client.Quit()
}

func describeAlert(entry *triggeredAlert) string {
	switch entry.Kind {
	case alert.VolumeSpike:
		ratio := 0.0

		if entry.Quote.VolumeRatio != nil {
			ratio = *entry.Quote.VolumeRatio
		}

		return fmt.Sprintf("%s: unusual volume, %.1fx the recent average", entry.Ticker, ratio)
	case alert.PriceDrop:
		return fmt.Sprintf("%s: price dropped %.1f%% today", entry.Ticker, entry.Quote.PriceChangePct)
	case alert.ProfitTake:
		return fmt.Sprintf("%s: position is in profit at %.2f", entry.Ticker, entry.Quote.CurrentPrice)
	case alert.BreakEvenSuggestion:
		return fmt.Sprintf(
			"%s: selling %.0f shares at %.2f would recover your cost, leaving %.0f free",
			entry.Ticker,
			entry.Suggestion.ToSell,
			entry.Quote.CurrentPrice,
			entry.Suggestion.Free,
		)
	}

	return fmt.Sprintf("%s: %s", entry.Ticker, entry.Kind)
}

func sendAlertEmails(alertList []*triggeredAlert) error {
	from := os.Getenv("SMTP_FROM")
	groupedAlerts := map[string][]*triggeredAlert{}

	for _, entry := range alertList {
		groupedAlerts[entry.Email] = append(groupedAlerts[entry.Email], entry)
	}

	for email, groupedList := range groupedAlerts {
		message := `To: {to}
From: {from}
Subject: Portfolio Alert
Content-Type: text/plain; charset=UTF-8; format=flowed
Content-Transfer-Encoding: 7bit

Some of your holdings need attention:

{alertString}
`
		alertLines := make([]string, len(groupedList))

		for i, entry := range groupedList {
			alertLines[i] = describeAlert(entry)
		}

		message = strings.Replace(message, "{to}", email, -1)
		message = strings.Replace(message, "{from}", from, -1)
		message = strings.Replace(message, "{alertString}", strings.Join(alertLines, "\n"), -1)

		err := sendEmail(email, message)

		if err != nil {
			return err
		}
	}

	return nil
}

func markAlertsAsSent(conn *database.Conn, alertList []*triggeredAlert, day time.Time) error {
	for _, entry := range alertList {
		if err := store.LogAlert(conn, entry.UserID, entry.Ticker, string(entry.Kind), day); err != nil {
			return err
		}
	}

	return nil
}

func main() {
	env.LoadEnvironmentVariables()

	conf, err := config.Load()

	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %s\n", err)
		os.Exit(1)
	}

	log := logger.New(conf.LogLevel)

	conn, err := database.Connect()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %s\n", err)
		os.Exit(1)
	}

	defer conn.Close()

	var users []model.User

	if err := store.LoadUsers(conn, &users); err != nil {
		fmt.Fprintf(os.Stderr, "SQL error: %s\n", err)
		os.Exit(1)
	}

	holdingsByUser := map[string][]model.Holding{}
	var allHoldings []model.Holding

	for _, user := range users {
		holdings, err := store.LoadHoldings(conn, user.ID)

		if err != nil {
			fmt.Fprintf(os.Stderr, "SQL error: %s\n", err)
			os.Exit(1)
		}

		holdingsByUser[user.ID] = holdings
		allHoldings = append(allHoldings, holdings...)
	}

	client := quote.NewClient(conf.QuoteBaseURL, log)

	lookup := func(ctx context.Context, ticker string) (model.LiveQuote, bool) {
		fetchCtx, cancel := context.WithTimeout(ctx, conf.FetchTimeout)
		defer cancel()

		live, err := client.Fetch(fetchCtx, ticker)

		if err != nil {
			log.Warn().Err(err).Str("ticker", ticker).Msg("Quote fetch failed")

			return model.LiveQuote{}, false
		}

		return live, true
	}

	refresher := refresh.New(lookup, conf.RefreshPeriod, conf.RequestDelay, log)
	quotes := refresher.Refresh(context.Background(), allHoldings)

	day := time.Now().UTC()

	alertList, err := findAlertsToTrigger(conn, quotes, users, holdingsByUser, day)

	if err != nil {
		fmt.Fprintf(os.Stderr, "SQL error: %s\n", err)
		os.Exit(1)
	}

	err = sendAlertEmails(alertList)

	if err != nil {
		fmt.Fprintf(os.Stderr, "SMTP error: %s\n", err)
		os.Exit(1)
	}

	if len(alertList) > 0 {
		err = markAlertsAsSent(conn, alertList, day)

		if err != nil {
			fmt.Fprintf(os.Stderr, "SQL error: %s\n", err)
			os.Exit(1)
		}
	}
}
