// Package remote adapts the repositories to the hosted record service.
package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/coursehub/core"
)

// Record service tables
const (
	tableProgram  = "program"
	tableLecture  = "lecture"
	tableReview   = "review"
	tableUser     = "user"
	tablePost     = "post"
	tableWaitlist = "waitlist"
)

// Filter operators & sort types
const (
	opEqualTo = "EqualTo"
	sortAsc   = "ASC"
	sortDesc  = "DESC"
)

const (
	headerProjectID = "X-Project-Id"
	headerPublicKey = "X-Public-Key"
	headerRequestID = "X-Request-Id"
)

type (
	// Record is a raw record as stored by the service.
	Record map[string]interface{}

	fieldName struct {
		Name string `json:"Name"`
	}

	field struct {
		Field fieldName `json:"field"`
	}

	Where struct {
		FieldName string        `json:"FieldName"`
		Operator  string        `json:"Operator"`
		Values    []interface{} `json:"Values"`
	}

	OrderBy struct {
		FieldName string `json:"fieldName"`
		SortType  string `json:"sorttype"`
	}

	// Query selects the fields, filters and ordering of fetched records.
	Query struct {
		Fields  []string
		Where   []Where
		OrderBy []OrderBy
	}

	fetchParams struct {
		Fields  []field   `json:"fields"`
		Where   []Where   `json:"where,omitempty"`
		OrderBy []OrderBy `json:"orderBy,omitempty"`
	}

	recordsParams struct {
		Records []Record `json:"records"`
	}

	deleteParams struct {
		RecordIds []int `json:"RecordIds"`
	}

	resultError struct {
		FieldLabel string `json:"fieldLabel"`
		Message    string `json:"message"`
	}

	result struct {
		Success bool          `json:"success"`
		Message string        `json:"message"`
		Data    Record        `json:"data"`
		Errors  []resultError `json:"errors"`
	}

	envelope struct {
		Success bool            `json:"success"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
		Results []result        `json:"results"`

		status int
	}
)

func equalTo(fld string, val interface{}) Where {
	return Where{FieldName: fld, Operator: opEqualTo, Values: []interface{}{val}}
}

func (q Query) params() fetchParams {
	p := fetchParams{Where: q.Where, OrderBy: q.OrderBy}
	p.Fields = make([]field, 0, len(q.Fields))
	for _, f := range q.Fields {
		p.Fields = append(p.Fields, field{Field: fieldName{Name: f}})
	}
	return p
}

// Client talks to the record service of one project.
type Client struct {
	baseURL   string
	projectID string
	publicKey string
	http      *rest.Client
}

func NewClient(conf *core.Config) *Client {
	return &Client{
		baseURL:   strings.TrimSuffix(conf.RecordService.BaseURL, "/"),
		projectID: conf.RecordService.ProjectID,
		publicKey: conf.RecordService.PublicKey,
		http:      &rest.Client{HTTPClient: &http.Client{Timeout: conf.RecordService.Timeout}},
	}
}

func (c *Client) tableURL(table string, parts ...string) string {
	return c.baseURL + "/tables/" + table + "/records" + strings.Join(append([]string{""}, parts...), "/")
}

func (c *Client) newRequest(method rest.Method, url string, body interface{}) (rest.Request, error) {
	req := rest.Request{
		Method:  method,
		BaseURL: url,
		Headers: map[string]string{
			"Accept":        "application/json",
			headerProjectID: c.projectID,
			headerPublicKey: c.publicKey,
			headerRequestID: uuid.New().String(),
		},
	}
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return rest.Request{}, errors.Wrap(err, "encoding request body")
		}
		req.Headers["Content-Type"] = "application/json"
		req.Body = b
	}
	return req, nil
}

// do sends the request and decodes the service envelope.
// Any transport or service failure is a *core.RequestFailedError.
func (c *Client) do(ctx context.Context, req rest.Request) (envelope, error) {
	res, err := c.http.SendWithContext(ctx, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return envelope{}, ctxErr
		}
		return envelope{}, core.NewRequestFailedError("record service unreachable", err)
	}

	var env envelope
	decodeErr := json.Unmarshal([]byte(res.Body), &env)
	env.status = res.StatusCode

	if res.StatusCode >= http.StatusBadRequest {
		msg := env.Message
		if decodeErr != nil || msg == "" {
			msg = "record service error: " + strconv.Itoa(res.StatusCode) + " " + http.StatusText(res.StatusCode)
		}
		return env, core.NewRequestFailedError(msg)
	}
	if decodeErr != nil {
		return envelope{}, core.NewRequestFailedError("invalid record service response", decodeErr)
	}
	if !env.Success {
		return env, core.NewRequestFailedError(env.failureMessage())
	}
	if failed := env.failedResults(); len(failed) > 0 {
		return env, core.NewRequestFailedError(failed[0].message())
	}
	return env, nil
}

func (env envelope) failureMessage() string {
	if env.Message != "" {
		return env.Message
	}
	return "record service request failed"
}

func (env envelope) failedResults() []result {
	var failed []result
	for _, r := range env.Results {
		if !r.Success {
			failed = append(failed, r)
		}
	}
	return failed
}

// message is the result message, or its field errors joined as "label: message".
func (r result) message() string {
	if r.Message != "" {
		return r.Message
	}
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.FieldLabel+": "+e.Message)
	}
	if len(msgs) == 0 {
		return "record service request failed"
	}
	return strings.Join(msgs, "; ")
}

// Fetch returns the records of `table` matching `q`. It never returns a nil slice.
func (c *Client) Fetch(ctx context.Context, table string, q Query) ([]Record, error) {
	req, err := c.newRequest(rest.Post, c.tableURL(table, "query"), q.params())
	if err != nil {
		return nil, err
	}
	env, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0)
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return records, nil
	}
	if err = json.Unmarshal(env.Data, &records); err != nil {
		return nil, core.NewRequestFailedError("invalid record service response", err)
	}
	return records, nil
}

// Get returns the record `id` of `table`, or `errNotFound`.
func (c *Client) Get(ctx context.Context, table string, id int, fields []string, errNotFound error) (Record, error) {
	req, err := c.newRequest(rest.Get, c.tableURL(table, strconv.Itoa(id)), nil)
	if err != nil {
		return nil, err
	}
	req.QueryParams = map[string]string{"fields": strings.Join(fields, ",")}

	env, err := c.do(ctx, req)
	if err != nil {
		return nil, env.mapNotFound(err, errNotFound)
	}

	var rec Record
	if len(env.Data) > 0 {
		if err = json.Unmarshal(env.Data, &rec); err != nil {
			return nil, core.NewRequestFailedError("invalid record service response", err)
		}
	}
	if rec == nil {
		return nil, errNotFound
	}
	return rec, nil
}

// mapNotFound replaces service failures reporting a missing record with `errNotFound`.
func (env envelope) mapNotFound(err, errNotFound error) error {
	if rf, ok := errors.Cause(err).(*core.RequestFailedError); !ok || rf.Err != nil {
		return err
	}
	if env.status == http.StatusNotFound || isNotFoundMessage(env.Message) {
		return errNotFound
	}
	for _, r := range env.failedResults() {
		if isNotFoundMessage(r.Message) {
			return errNotFound
		}
	}
	return err
}

func isNotFoundMessage(msg string) bool {
	return strings.Contains(strings.ToLower(msg), "not found")
}

// Create stores `rec` in `table` and returns the stored record.
func (c *Client) Create(ctx context.Context, table string, rec Record) (Record, error) {
	return c.write(ctx, rest.Post, table, rec, nil)
}

// Update saves `rec`, which must carry its "Id". A missing record is `errNotFound`.
func (c *Client) Update(ctx context.Context, table string, rec Record, errNotFound error) (Record, error) {
	return c.write(ctx, rest.Put, table, rec, errNotFound)
}

func (c *Client) write(ctx context.Context, method rest.Method, table string, rec Record, errNotFound error) (Record, error) {
	req, err := c.newRequest(method, c.tableURL(table), recordsParams{Records: []Record{rec}})
	if err != nil {
		return nil, err
	}
	env, err := c.do(ctx, req)
	if err != nil {
		if errNotFound != nil {
			err = env.mapNotFound(err, errNotFound)
		}
		return nil, err
	}
	for _, r := range env.Results {
		if r.Success && r.Data != nil {
			return r.Data, nil
		}
	}
	return rec, nil
}

// Delete removes the record `id` of `table`. A missing record is `errNotFound`.
func (c *Client) Delete(ctx context.Context, table string, id int, errNotFound error) error {
	req, err := c.newRequest(rest.Delete, c.tableURL(table), deleteParams{RecordIds: []int{id}})
	if err != nil {
		return err
	}
	env, err := c.do(ctx, req)
	if err != nil {
		return env.mapNotFound(err, errNotFound)
	}
	return nil
}

// timestamp formats `t` the way the service stores dates.
func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
