// Package quotes fetches exchange rates from the criptoya dollar quotes
// endpoint and maps them onto the ledger currencies.
package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"

	"platito/internal/core"
)

const (
	DefaultSourceURL = "https://criptoya.com/api/dolar"
	DefaultTimeout   = 10 * time.Second

	maxBodyBytes = 1 << 20
)

// Field maps a currency to one or more JSON paths. When several paths are
// given the rate is their average, e.g. the midpoint of ask and bid.
type Field struct {
	Currency core.Currency
	Paths    []string
}

// DefaultFields is the criptoya layout.
var DefaultFields = []Field{
	{Currency: core.USDBlue, Paths: []string{"$.blue.ask", "$.blue.bid"}},
	{Currency: core.USDMep, Paths: []string{`$.mep.al30["24hs"].price`}},
	{Currency: core.USDT, Paths: []string{"$.cripto.usdt.ask", "$.cripto.usdt.bid"}},
}

type Client struct {
	url    string
	http   *http.Client
	fields []Field
}

// NewClient creates a quote client. Empty url and non-positive timeout fall
// back to the defaults.
func NewClient(url string, timeout time.Duration) *Client {
	if url == "" {
		url = DefaultSourceURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		url:    url,
		http:   &http.Client{Timeout: timeout},
		fields: DefaultFields,
	}
}

// ParseFields reads a field mapping written as
// "USD_BLUE=$.blue.ask|$.blue.bid;USDT=$.usdt.price". Currencies are
// separated by ';' and averaged paths by '|'.
func ParseFields(s string) ([]Field, error) {
	var fields []Field
	seen := make(map[core.Currency]bool)
	for _, entry := range strings.Split(s, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		code, paths, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("field %q: want CURRENCY=path", entry)
		}
		c, err := core.ParseCurrency(strings.TrimSpace(code))
		if err != nil {
			return nil, err
		}
		if c.IsBase() {
			return nil, fmt.Errorf("field %q: the base currency is not quoted", entry)
		}
		if seen[c] {
			return nil, fmt.Errorf("field %q: %s mapped twice", entry, c)
		}
		seen[c] = true

		f := Field{Currency: c}
		for _, p := range strings.Split(paths, "|") {
			p = strings.TrimSpace(p)
			if _, err := jsonpath.New(p); p == "" || err != nil {
				return nil, fmt.Errorf("field %q: invalid path %q", entry, p)
			}
			f.Paths = append(f.Paths, p)
		}
		fields = append(fields, f)
	}
	if len(fields) == 0 {
		return nil, errors.New("no quote fields given")
	}
	return fields, nil
}

// WithFields overrides the field mapping.
func (c *Client) WithFields(fields []Field) *Client {
	c.fields = fields
	return c
}

func (c *Client) Source() string { return c.url }

// FetchRates downloads the quote document and returns the rates of the
// quoted currencies. Every failure is a *core.FetchError.
func (c *Client) FetchRates(ctx context.Context) (core.ExchangeRateTable, error) {
	doc, err := c.download(ctx)
	if err != nil {
		return nil, c.fail(err)
	}

	table := make(core.ExchangeRateTable, len(c.fields))
	for _, f := range c.fields {
		v, err := average(doc, f.Paths)
		if err != nil {
			return nil, c.fail(fmt.Errorf("%s: %w", f.Currency, err))
		}
		table[f.Currency] = core.Rate{ToBase: v}
	}

	slog.DebugContext(ctx, "Fetched exchange rates", "source", c.url, "currencies", len(table))
	return table, nil
}

func (c *Client) fail(err error) error {
	return &core.FetchError{Source: c.url, Err: err}
}

func (c *Client) download(ctx context.Context) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var doc any
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return doc, nil
}

func average(doc any, paths []string) (float64, error) {
	if len(paths) == 0 {
		return 0, errors.New("no paths configured")
	}
	var sum float64
	for _, p := range paths {
		v, err := lookup(doc, p)
		if err != nil {
			return 0, err
		}
		sum += v
	}
	v := sum / float64(len(paths))
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, fmt.Errorf("unusable quote %v", v)
	}
	return v, nil
}

func lookup(doc any, path string) (float64, error) {
	jval, err := jsonpath.Get(path, doc)
	if err != nil {
		return 0, fmt.Errorf("read %q: %w", path, err)
	}
	// jsonpath may wrap a single match in a list.
	if list, ok := jval.([]any); ok {
		if len(list) == 0 {
			return 0, fmt.Errorf("read %q: no match", path)
		}
		jval = list[0]
	}

	switch v := jval.(type) {
	case float64:
		return v, nil
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(v), ",", "."), 64)
		if err != nil {
			return 0, fmt.Errorf("read %q: invalid number %q", path, v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("read %q: not a number: %v", path, jval)
	}
}
