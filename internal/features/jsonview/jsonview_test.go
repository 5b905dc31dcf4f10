package jsonview

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"traffmon/internal/clients_api/traffmonetizer"
)

func result(t *testing.T, raw string) *traffmonetizer.Result {
	t.Helper()
	res := &traffmonetizer.Result{Succeeded: true, RawBody: []byte(raw)}
	var v any
	if json.Unmarshal([]byte(raw), &v) == nil {
		res.Body = v
	}
	return res
}

func TestFilter(t *testing.T) {
	var body any
	require.NoError(t, json.Unmarshal([]byte(`{"data":{"items":[{"id":1},{"id":2}]}}`), &body))

	got, err := Filter(body, ".data.items[].id")
	require.NoError(t, err)
	assert.Equal(t, []any{float64(1), float64(2)}, got)
}

func TestFilter_InvalidQuery(t *testing.T) {
	_, err := Filter(map[string]any{}, ".[")
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		opts Options
		want string
	}{
		{"pretty", `{"a":1}`, Options{}, "{\n  \"a\": 1\n}\n"},
		{"raw", `{"a":1}`, Options{Raw: true}, "{\"a\":1}\n"},
		{"query string", `{"data":{"token":"abc"}}`, Options{Query: ".data.token"}, "abc\n"},
		{"query number", `{"data":{"balance":1.5}}`, Options{Query: ".data.balance"}, "1.5\n"},
		{"not json", `<html></html>`, Options{}, "<html></html>\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Render(&buf, result(t, tt.raw), tt.opts))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestRender_QueryOnNonJSON(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, result(t, "oops"), Options{Query: ".a"})
	assert.Error(t, err)
}
