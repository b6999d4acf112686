package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

// Binding is one SPARQL result row flattened to variable -> value.
type Binding map[string]string

// SparqlClient runs SELECT queries against a SPARQL endpoint.
type SparqlClient struct {
	*httpDoer
	endpoint string
}

// NewSparqlClient creates a SPARQL client for the endpoint in opts.BaseURL.
func NewSparqlClient(opts Options) (*SparqlClient, error) {
	u, err := url.Parse(opts.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("sparql: invalid endpoint %q", opts.BaseURL)
	}
	return &SparqlClient{
		httpDoer: newHTTPDoer("sparql", opts),
		endpoint: opts.BaseURL,
	}, nil
}

// Select posts query and returns the result bindings in order.
func (c *SparqlClient) Select(ctx context.Context, query string) ([]Binding, error) {
	form := url.Values{"query": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("sparql: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/sparql-results+json")

	body, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, c.invalidResponse("body is not JSON")
	}

	rows := gjson.GetBytes(body, "results.bindings")
	if !rows.IsArray() {
		return nil, c.invalidResponse("missing results.bindings")
	}

	bindings := make([]Binding, 0, len(rows.Array()))
	rows.ForEach(func(_, row gjson.Result) bool {
		b := Binding{}
		row.ForEach(func(name, cell gjson.Result) bool {
			b[name.String()] = cell.Get("value").String()
			return true
		})
		bindings = append(bindings, b)
		return true
	})
	return bindings, nil
}
