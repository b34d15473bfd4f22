package rebalance

import (
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/rebalance/date"
)

// This file contains functions to access the Tiingo end-of-day API.

const tiingo_api_key = "TIINGO_API_KEY"

var tiingoApiFlag = flag.String("tiingo-api-key", "", "Tiingo API key to use for fetching prices from tiingo.com.\n If missing it will read for the environment variable \""+tiingo_api_key+"\". You can get one at https://www.tiingo.com/")

func tiingoApiKey() string {
	// If the flag is not set, we try to read it from the environment variable.
	if *tiingoApiFlag == "" {
		*tiingoApiFlag = os.Getenv(tiingo_api_key)
	}
	return *tiingoApiFlag
}

// tiingoStartDate bounds history requests; annual return series need full
// calendar years, the API default returns only the latest year.
const tiingoStartDate = "1990-01-02"

// Tiingo implements MarketData against the Tiingo end-of-day API, with a
// daily-expiring disk cache so repeated runs within a day do not refetch.
type Tiingo struct {
	client *http.Client
	apiKey string
}

// NewTiingo returns a Tiingo provider using the configured API key.
func NewTiingo() (*Tiingo, error) {
	key := tiingoApiKey()
	if key == "" {
		return nil, fmt.Errorf("no Tiingo API key: set -tiingo-api-key or %s", tiingo_api_key)
	}
	return &Tiingo{client: daily(), apiKey: key}, nil
}

// History implements MarketData.
func (t *Tiingo) History(ticker string) (*SecurityHistory, error) {
	addr := fmt.Sprintf("https://api.tiingo.com/tiingo/daily/%s/prices?startDate=%s&format=json&token=%s",
		url.PathEscape(ticker), tiingoStartDate, t.apiKey)

	// that's the payload, one row per trading day
	type jrow struct {
		Date     string  `json:"date"` // full timestamp, day part is what matters
		AdjClose float64 `json:"adjClose"`
		DivCash  float64 `json:"divCash"`
	}
	var rows []jrow
	if err := jwget(t.client, addr, &rows); err != nil {
		// on errors the API answers an object with a "detail" message
		// instead of the rows array, retry the parse generically.
		var jobj any
		if jerr := jwget(t.client, addr, &jobj); jerr == nil {
			if detail, derr := jsonpath.Get("$.detail", jobj); derr == nil {
				return nil, fmt.Errorf("tiingo refused %q: %v", ticker, detail)
			}
		}
		return nil, fmt.Errorf("cannot fetch history for %q: %w", ticker, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no price history for %q", ticker)
	}

	history := &SecurityHistory{
		Prices:    &date.History[float64]{},
		Dividends: &date.History[float64]{},
	}
	for _, row := range rows {
		// "2024-01-02T00:00:00.000Z" and plain "2024-01-02" both occur.
		day, err := date.Parse(strings.SplitN(row.Date, "T", 2)[0])
		if err != nil {
			return nil, fmt.Errorf("history for %q: %w", ticker, err)
		}
		history.Prices.Append(day, row.AdjClose)
		if row.DivCash != 0 {
			history.Dividends.AppendAdd(day, row.DivCash)
		}
	}
	return history, nil
}

var _ MarketData = (*Tiingo)(nil)
