// Package supabase is a small PostgREST client for the posts_meta table
// hosted on Supabase.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrNotFound is returned by single-row selects that match nothing.
var ErrNotFound = errors.New("row not found")

// StatusError is a non-2xx PostgREST response.
type StatusError struct {
	Op      string
	Status  int
	Code    string
	Message string
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: status %d (%s): %s", e.Op, e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Message)
}

// Temporary reports whether retrying the request may succeed.
func (e *StatusError) Temporary() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// Client talks to the PostgREST endpoint of a Supabase project.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient returns a client for the project at baseURL. apiKey is the anon
// key for reads or the service role key for writes.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Query describes a select against one table.
type Query struct {
	Table   string
	Columns string // defaults to "*"
	Filters url.Values
	Order   string // e.g. "published_at.desc"
	Limit   int
	Offset  int
	Count   bool // request an exact total
}

// NewQuery starts a query on table.
func NewQuery(table string) *Query {
	return &Query{Table: table, Filters: url.Values{}}
}

// Eq adds column=eq.value.
func (q *Query) Eq(column, value string) *Query {
	q.Filters.Add(column, "eq."+quote(value))
	return q
}

// Contains adds column=cs.{values} for array columns.
func (q *Query) Contains(column string, values ...string) *Query {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = quote(v)
	}
	q.Filters.Add(column, "cs.{"+strings.Join(quoted, ",")+"}")
	return q
}

// ILikeAny matches rows where any column contains term, case-insensitively.
func (q *Query) ILikeAny(term string, columns ...string) *Query {
	conds := make([]string, len(columns))
	pattern := quote("*" + escapeLike(term) + "*")
	for i, c := range columns {
		conds[i] = c + ".ilike." + pattern
	}
	q.Filters.Add("or", "("+strings.Join(conds, ",")+")")
	return q
}

// OrderBy sets the order clause.
func (q *Query) OrderBy(order string) *Query {
	q.Order = order
	return q
}

// Page sets limit and offset.
func (q *Query) Page(limit, offset int) *Query {
	q.Limit, q.Offset = limit, offset
	return q
}

// WithCount asks PostgREST for the exact number of matching rows.
func (q *Query) WithCount() *Query {
	q.Count = true
	return q
}

// Select narrows the selected columns.
func (q *Query) Select(columns string) *Query {
	q.Columns = columns
	return q
}

func (q *Query) values() url.Values {
	v := url.Values{}
	for k, vs := range q.Filters {
		v[k] = append([]string(nil), vs...)
	}
	cols := q.Columns
	if cols == "" {
		cols = "*"
	}
	v.Set("select", cols)
	if q.Order != "" {
		v.Set("order", q.Order)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	return v
}

// Select runs q and decodes the rows into dst, which must be a pointer to a
// slice. The returned total is -1 unless q.Count is set.
func (c *Client) Select(ctx context.Context, q *Query, dst any) (int, error) {
	req, err := c.newRequest(ctx, http.MethodGet, q.Table, q.values(), nil)
	if err != nil {
		return 0, err
	}
	if q.Count {
		req.Header.Set("Prefer", "count=exact")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("select %s: %w", q.Table, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return 0, statusError("select "+q.Table, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return 0, fmt.Errorf("decode %s rows: %w", q.Table, err)
	}

	total := -1
	if q.Count {
		total = parseContentRange(resp.Header.Get("Content-Range"))
	}
	return total, nil
}

// SelectOne runs q expecting exactly one row and decodes it into dst.
// A query matching no rows returns ErrNotFound.
func (c *Client) SelectOne(ctx context.Context, q *Query, dst any) error {
	req, err := c.newRequest(ctx, http.MethodGet, q.Table, q.values(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.pgrst.object+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("select one %s: %w", q.Table, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		serr := statusError("select one "+q.Table, resp)
		var se *StatusError
		if errors.As(serr, &se) && se.Code == "PGRST116" {
			return ErrNotFound
		}
		return serr
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s row: %w", q.Table, err)
	}
	return nil
}

// Upsert inserts rows, merging into existing rows that collide on
// onConflict.
func (c *Client) Upsert(ctx context.Context, table, onConflict string, rows any) error {
	body, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("marshal %s rows: %w", table, err)
	}

	params := url.Values{}
	if onConflict != "" {
		params.Set("on_conflict", onConflict)
	}
	req, err := c.newRequest(ctx, http.MethodPost, table, params, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "resolution=merge-duplicates,return=minimal")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", table, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		return statusError("upsert "+table, resp)
	}
	return nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func (c *Client) newRequest(ctx context.Context, method, table string, params url.Values, body io.Reader) (*http.Request, error) {
	u := c.baseURL + "/rest/v1/" + url.PathEscape(table)
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	return req, nil
}

func statusError(op string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	se := &StatusError{Op: op, Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}

	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Message != "" {
		se.Code = body.Code
		se.Message = body.Message
	}
	return se
}

// parseContentRange reads the total from "0-9/42" or "*/0", -1 when unknown.
func parseContentRange(h string) int {
	i := strings.LastIndexByte(h, '/')
	if i < 0 {
		return -1
	}
	n, err := strconv.Atoi(h[i+1:])
	if err != nil {
		return -1
	}
	return n
}

// quote wraps values containing PostgREST reserved characters in double
// quotes.
func quote(v string) string {
	if !strings.ContainsAny(v, `,.:()"\{} `) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	return `"` + v + `"`
}

func escapeLike(v string) string {
	return strings.NewReplacer("*", "", "%", "").Replace(v)
}
