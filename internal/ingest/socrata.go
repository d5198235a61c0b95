package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// SocrataClient queries SODA 2.0 endpoints (data.texas.gov, city open
// data portals). One client is shared by every Socrata-backed source.
type SocrataClient struct {
	client   *http.Client
	appToken string
	maxRows  int
}

// NewSocrataClient returns a client with the given app token. An empty
// token is allowed; Socrata then applies anonymous throttling.
func NewSocrataClient(appToken string, timeout time.Duration, maxRows int) *SocrataClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if maxRows <= 0 {
		maxRows = 10000
	}
	return &SocrataClient{
		client:   &http.Client{Timeout: timeout},
		appToken: appToken,
		maxRows:  maxRows,
	}
}

// Get runs one SoQL query against an endpoint and decodes the rows.
func (c *SocrataClient) Get(ctx context.Context, endpoint, where, order string) ([]map[string]any, error) {
	params := url.Values{}
	params.Set("$where", where)
	params.Set("$limit", strconv.Itoa(c.maxRows))
	if order != "" {
		params.Set("$order", order)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "socrata: build request")
	}
	req.Header.Set("Accept", "application/json")
	if c.appToken != "" {
		req.Header.Set("X-App-Token", c.appToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "socrata: GET %s", endpoint)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, eris.Errorf("socrata: GET %s: status %d: %s", endpoint, resp.StatusCode, string(body))
	}

	var rows []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, eris.Wrapf(err, "socrata: decode %s", endpoint)
	}

	zap.L().Debug("socrata query complete",
		zap.String("endpoint", endpoint),
		zap.Int("rows", len(rows)))
	return rows, nil
}

// orClause builds "(field='a' OR field='b')" style filters.
func orClause(format string, values []string) string {
	clause := ""
	for i, v := range values {
		if i > 0 {
			clause += " OR "
		}
		clause += fmt.Sprintf(format, v)
	}
	return "(" + clause + ")"
}

// str reads a string field from a decoded Socrata row.
func str(row map[string]any, key string) string {
	if v, ok := row[key].(string); ok {
		return v
	}
	return ""
}
