// This file implements the parsing of path ids, query filters and JSON
// bodies shared by the handlers.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"platito/internal/core"
	"platito/internal/ports"
)

const (
	maxBodyBytes   = 1 << 20
	maxImportBytes = 32 << 20
)

// requestError is a malformed request, answered with 400.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

// DecodeJSON reads a single JSON document of at most limit bytes into dst.
// Unknown fields are rejected. Domain validation failures raised while
// decoding (an unknown currency, a malformed date) keep their kind.
func DecodeJSON(r *http.Request, dst any, limit int64) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return badRequest("content type must be application/json")
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, limit+1))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, core.ErrValidation) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return badRequest("request body is empty")
		}
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &syntaxErr):
			return badRequest("malformed JSON at offset %d", syntaxErr.Offset)
		case errors.As(err, &typeErr):
			return badRequest("field %q has the wrong type", typeErr.Field)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return badRequest("request body is too large or truncated")
		default:
			return badRequest("invalid request body: %v", err)
		}
	}
	if dec.More() {
		return badRequest("request body must contain a single JSON document")
	}
	return nil
}

// PathID parses the {id} path segment.
func PathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid id %q", raw)
	}
	return id, nil
}

func queryID(q url.Values, key string) (int64, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid %s %q", key, raw)
	}
	return id, nil
}

func queryInt(q url.Values, key string, def int) (int, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest("invalid %s %q", key, raw)
	}
	return n, nil
}

func queryBool(q url.Values, key string) (bool, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, badRequest("invalid %s %q", key, raw)
	}
	return b, nil
}

// queryDate parses a YYYY-MM-DD bound; a missing value is the zero time.
func queryDate(q url.Values, key string) (time.Time, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return time.Time{}, nil
	}
	d, err := core.ParseDate(raw)
	if err != nil {
		return time.Time{}, badRequest("invalid %s %q: use YYYY-MM-DD", key, raw)
	}
	return d.Time, nil
}

func queryCurrency(q url.Values, key string) (core.Currency, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return "", nil
	}
	return core.ParseCurrency(raw)
}

// dateRange reads start and end. end is inclusive in the query and
// exclusive in the returned range.
func dateRange(q url.Values) (time.Time, time.Time, error) {
	start, err := queryDate(q, "start")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := queryDate(q, "end")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !end.IsZero() {
		end = end.AddDate(0, 0, 1)
	}
	if !start.IsZero() && !end.IsZero() && !start.Before(end) {
		return time.Time{}, time.Time{}, badRequest("start must not be after end")
	}
	return start, end, nil
}

func queryLimit(q url.Values) (int, error) {
	limit, err := queryInt(q, "limit", 0)
	if err != nil {
		return 0, err
	}
	if limit < 0 {
		return 0, badRequest("limit must not be negative")
	}
	return limit, nil
}

// ParseTransactionFilter reads accountId, categoryId, tagId, start, end and
// limit from the query string.
func ParseTransactionFilter(q url.Values) (ports.TransactionFilter, error) {
	var (
		f   ports.TransactionFilter
		err error
	)
	if f.AccountID, err = queryID(q, "accountId"); err != nil {
		return f, err
	}
	if f.CategoryID, err = queryID(q, "categoryId"); err != nil {
		return f, err
	}
	if f.TagID, err = queryID(q, "tagId"); err != nil {
		return f, err
	}
	if f.Start, f.End, err = dateRange(q); err != nil {
		return f, err
	}
	if f.Limit, err = queryLimit(q); err != nil {
		return f, err
	}
	return f, nil
}

// ParseTransferFilter reads accountId, direction, start, end and limit from
// the query string.
func ParseTransferFilter(q url.Values) (ports.TransferFilter, error) {
	var (
		f   ports.TransferFilter
		err error
	)
	if f.AccountID, err = queryID(q, "accountId"); err != nil {
		return f, err
	}
	f.Direction = core.TransferDirection(strings.ToLower(strings.TrimSpace(q.Get("direction"))))
	if f.Start, f.End, err = dateRange(q); err != nil {
		return f, err
	}
	if f.Limit, err = queryLimit(q); err != nil {
		return f, err
	}
	return f, nil
}
