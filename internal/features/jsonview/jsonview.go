package jsonview

// Renders dashboard responses for the terminal
// Optional jq filter (gojq) applied to the decoded body

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/itchyny/gojq"

	"traffmon/internal/clients_api/traffmonetizer"
)

// Options controls Render.
type Options struct {
	Query string // jq program, empty = whole body
	Raw   bool   // print the body exactly as received
}

// Filter runs a jq program against a decoded JSON value and collects every output.
func Filter(body any, query string) ([]any, error) {
	q, err := gojq.Parse(query)
	if err != nil {
		return nil, fmt.Errorf("invalid jq query %q: %w", query, err)
	}

	var out []any
	iter := q.Run(body)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := v.(error); ok {
			if herr, ok := err.(*gojq.HaltError); ok && herr.Value() == nil {
				break
			}
			return nil, fmt.Errorf("jq query failed: %w", err)
		}
		out = append(out, v)
	}
	return out, nil
}

// Render writes res to w. Non-JSON bodies are printed as text; a query on one is an error.
func Render(w io.Writer, res *traffmonetizer.Result, opts Options) error {
	if opts.Raw || (res.Body == nil && opts.Query == "") {
		if _, err := w.Write(res.RawBody); err != nil {
			return err
		}
		if n := len(res.RawBody); n > 0 && res.RawBody[n-1] != '\n' {
			_, err := io.WriteString(w, "\n")
			return err
		}
		return nil
	}

	if opts.Query == "" {
		return writeJSON(w, res.Body)
	}

	if res.Body == nil {
		return fmt.Errorf("response body is not JSON, cannot apply query")
	}
	values, err := Filter(res.Body, opts.Query)
	if err != nil {
		return err
	}
	for _, v := range values {
		if s, ok := v.(string); ok {
			if _, err := fmt.Fprintln(w, s); err != nil {
				return err
			}
			continue
		}
		if err := writeJSON(w, v); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
