package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/newthinker/augur/internal/collector"
	"github.com/newthinker/augur/internal/core"
)

const (
	defaultBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"
	defaultTimeout = 10 * time.Second
	userAgent      = "Mozilla/5.0 (compatible; augur/1.0)"
)

// tickers maps index names to Yahoo chart symbols.
var tickers = map[string]string{
	"NIFTY":      "^NSEI",
	"BANKNIFTY":  "^NSEBANK",
	"FINNIFTY":   "NIFTY_FIN_SERVICE.NS",
	"MIDCPNIFTY": "NIFTY_MID_SELECT.NS",
	"SENSEX":     "^BSESN",
	"INDIAVIX":   "^INDIAVIX",
}

// validSymbol matches pass-through Yahoo symbols like RELIANCE.NS or ^NSEI
var validSymbol = regexp.MustCompile(`^\^?[A-Za-z0-9_&-]{1,24}(\.[A-Za-z]{1,4})?$`)

// Yahoo reads index candles and quotes from the Yahoo Finance chart API
type Yahoo struct {
	client  *http.Client
	baseURL string
}

// New creates a new Yahoo collector
func New() *Yahoo {
	return &Yahoo{
		client:  &http.Client{Timeout: defaultTimeout},
		baseURL: defaultBaseURL,
	}
}

func (y *Yahoo) Name() string {
	return "yahoo"
}

func (y *Yahoo) Init(cfg collector.Config) error {
	if cfg.BaseURL != "" {
		if _, err := url.Parse(cfg.BaseURL); err != nil {
			return fmt.Errorf("yahoo: base url: %w", err)
		}
		y.baseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	if cfg.Timeout > 0 {
		y.client.Timeout = cfg.Timeout
	}
	return nil
}

// toYahooSymbol converts an index name to its Yahoo symbol.
func toYahooSymbol(symbol string) (string, error) {
	if t, ok := tickers[strings.ToUpper(symbol)]; ok {
		return t, nil
	}
	if symbol == "" || !validSymbol.MatchString(symbol) {
		return "", fmt.Errorf("invalid symbol format: %q", symbol)
	}
	return symbol, nil
}

// toYahooInterval maps candle intervals to ones the chart API accepts.
func toYahooInterval(interval string) string {
	switch interval {
	case "1m", "2m", "5m", "15m", "30m", "90m", "1d":
		return interval
	case "1h", "60m":
		return "60m"
	default:
		return "15m"
	}
}

func (y *Yahoo) chart(ctx context.Context, symbol string, query url.Values) (*chartResult, error) {
	ticker, err := toYahooSymbol(symbol)
	if err != nil {
		return nil, core.WrapError(core.ErrInvalidRequest, err)
	}

	endpoint := fmt.Sprintf("%s/%s?%s", y.baseURL, url.PathEscape(ticker), query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("yahoo: build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := y.client.Do(req)
	if err != nil {
		return nil, core.WrapError(core.ErrDataUnavailable, fmt.Errorf("yahoo %s: %w", ticker, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, core.WrapError(core.ErrDataUnavailable,
			fmt.Errorf("yahoo %s: unexpected status %d", ticker, resp.StatusCode))
	}

	var result chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, core.WrapError(core.ErrDataUnavailable, fmt.Errorf("yahoo %s: decode: %w", ticker, err))
	}

	if result.Chart.Error != nil {
		return nil, core.WrapError(core.ErrDataUnavailable,
			fmt.Errorf("yahoo %s: %s", ticker, result.Chart.Error.Description))
	}
	if len(result.Chart.Result) == 0 {
		return nil, core.WrapError(core.ErrDataUnavailable, fmt.Errorf("yahoo %s: no data", ticker))
	}
	return &result.Chart.Result[0], nil
}

// FetchQuote fetches the latest index level
func (y *Yahoo) FetchQuote(ctx context.Context, symbol string) (*collector.Quote, error) {
	r, err := y.chart(ctx, symbol, url.Values{"interval": {"1d"}, "range": {"1d"}})
	if err != nil {
		return nil, err
	}

	meta := r.Meta
	return &collector.Quote{
		Symbol:        strings.ToUpper(symbol),
		Price:         meta.RegularMarketPrice,
		PreviousClose: meta.ChartPreviousClose,
		Volume:        meta.RegularMarketVolume,
		Time:          time.Unix(meta.RegularMarketTime, 0),
		Source:        "yahoo",
	}, nil
}

// FetchHistory fetches OHLCV candles in [start, end]
func (y *Yahoo) FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.OHLCV, error) {
	r, err := y.chart(ctx, symbol, url.Values{
		"interval": {toYahooInterval(interval)},
		"period1":  {fmt.Sprint(start.Unix())},
		"period2":  {fmt.Sprint(end.Unix())},
	})
	if err != nil {
		return nil, err
	}
	if len(r.Indicators.Quote) == 0 {
		return nil, nil
	}

	q := r.Indicators.Quote[0]
	data := make([]core.OHLCV, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		open, high, low, closing := at(q.Open, i), at(q.High, i), at(q.Low, i), at(q.Close, i)
		if open == nil || high == nil || low == nil || closing == nil {
			continue // missing bar
		}
		var volume int64
		if v := at(q.Volume, i); v != nil {
			volume = *v
		}
		data = append(data, core.OHLCV{
			Symbol:   strings.ToUpper(symbol),
			Interval: interval,
			Open:     *open,
			High:     *high,
			Low:      *low,
			Close:    *closing,
			Volume:   volume,
			Time:     time.Unix(ts, 0),
		})
	}

	return data, nil
}

func at[T any](values []*T, i int) *T {
	if i >= len(values) {
		return nil
	}
	return values[i]
}

// Yahoo API response types
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta       chartMeta  `json:"meta"`
	Timestamp  []int64    `json:"timestamp"`
	Indicators indicators `json:"indicators"`
}

type chartMeta struct {
	Symbol              string  `json:"symbol"`
	RegularMarketPrice  float64 `json:"regularMarketPrice"`
	ChartPreviousClose  float64 `json:"chartPreviousClose"`
	RegularMarketVolume int64   `json:"regularMarketVolume"`
	RegularMarketTime   int64   `json:"regularMarketTime"`
}

type indicators struct {
	Quote []quoteIndicator `json:"quote"`
}

type quoteIndicator struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
}
