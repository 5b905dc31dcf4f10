package traffmonetizer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ohler55/ojg/jp"
)

// Result is what every API call returns, whether or not the server accepted it.
// Callers branch on Succeeded; HTTP error statuses are not Go errors.
type Result struct {
	// Succeeded reflects the status line only: true for any status below 400.
	Succeeded bool
	// Body is the decoded JSON payload, nil when the payload is not valid JSON (or is JSON null).
	Body any
	// RawBody is the payload as received, cut at the client's size limit.
	RawBody []byte
	// Truncated is set when the payload exceeded the size limit. Body is then usually nil.
	Truncated bool
	// Response is the underlying response. Its Body reads RawBody again.
	Response *http.Response
}

// StatusCode is a shortcut for Response.StatusCode.
func (r *Result) StatusCode() int {
	if r == nil || r.Response == nil {
		return 0
	}
	return r.Response.StatusCode
}

// Lookup evaluates a JSONPath expression ("$.data.token") against Body and returns the first match.
func (r *Result) Lookup(path string) (any, bool) {
	if r == nil || r.Body == nil {
		return nil, false
	}
	expr, err := jp.ParseString(path)
	if err != nil {
		return nil, false
	}
	found := expr.Get(r.Body)
	if len(found) == 0 {
		return nil, false
	}
	return found[0], true
}

// Decode unmarshals RawBody into v.
func (r *Result) Decode(v any) error {
	if r == nil || len(r.RawBody) == 0 {
		return fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}
	if err := json.Unmarshal(r.RawBody, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

// newResult normalizes a response whose body has already been read.
func newResult(resp *http.Response, raw []byte) *Result {
	resp.Body = io.NopCloser(bytes.NewReader(raw))
	return &Result{
		Succeeded: resp.StatusCode < 400,
		Body:      tryParseJSON(raw),
		RawBody:   raw,
		Response:  resp,
	}
}

// tryParseJSON returns nil for anything that is not a single valid JSON value.
func tryParseJSON(raw []byte) any {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}
