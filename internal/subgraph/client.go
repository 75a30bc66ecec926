// Package subgraph fetches raw protocol data from the upstream indexing
// service: reserve history, interaction and liquidation events, and user
// balance history, all over paginated GraphQL queries.
package subgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"aave-reserves-lab/internal/observability"
)

// Defaults for the pagination loop.
const (
	DefaultPageSize = 1000
	DefaultMaxPages = 300
)

// Client queries one subgraph deployment.
type Client struct {
	httpc    *http.Client
	endpoint string
	pageSize int
	maxPages int
	logger   *log.Logger
	metrics  *observability.Metrics
}

// NewClient creates a subgraph client for the given gateway endpoint URL.
func NewClient(endpoint string, logger *log.Logger) *Client {
	return &Client{
		httpc:    &http.Client{Timeout: 60 * time.Second},
		endpoint: endpoint,
		pageSize: DefaultPageSize,
		maxPages: DefaultMaxPages,
		logger:   logger,
	}
}

// WithPaging overrides the page size and the maximum page count.
func (c *Client) WithPaging(pageSize, maxPages int) *Client {
	c.pageSize = pageSize
	c.maxPages = maxPages
	return c
}

// WithMetrics attaches per-collection page and error counters.
func (c *Client) WithMetrics(m *observability.Metrics) *Client {
	c.metrics = m
	return c
}

// graphqlRequest is the POST body of a GraphQL query.
type graphqlRequest struct {
	Query string `json:"query"`
}

// graphqlResponse is the generic envelope of a GraphQL reply.
type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// runQuery posts a query and unmarshals the data envelope into out.
func (c *Client) runQuery(ctx context.Context, query string, out any) error {
	body, err := json.Marshal(graphqlRequest{Query: query})
	if err != nil {
		return fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("post query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("query failed with status %d: %s", resp.StatusCode, payload)
	}

	var envelope graphqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("query returned error: %s", envelope.Errors[0].Message)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

// fetchPages runs fetch with increasing offsets until an empty page signals
// end-of-data or the maximum page count is reached. fetch returns the number
// of items the page contained. collection labels the page and error counters.
func (c *Client) fetchPages(ctx context.Context, collection string, fetch func(offset int) (int, error)) error {
	for page := 0; page < c.maxPages; page++ {
		if page%10 == 0 {
			c.logf("      [page %d/%d]", page+1, c.maxPages)
		}
		n, err := fetch(page * c.pageSize)
		if err != nil {
			if c.metrics != nil {
				c.metrics.FetchErrors.WithLabelValues(collection).Inc()
			}
			return fmt.Errorf("page %d: %w", page, err)
		}
		if c.metrics != nil {
			c.metrics.PagesFetched.WithLabelValues(collection).Inc()
		}
		if n == 0 {
			c.logf("      all data extracted after %d pages", page)
			return nil
		}
	}
	c.logf("      reached maximum page count %d", c.maxPages)
	return nil
}

func (c *Client) logf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}
