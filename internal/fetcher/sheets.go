// Package fetcher mirrors the schedule and materials spreadsheets into
// Postgres on a fixed tick.
package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/oauth2/google"
)

var sheetsScopes = []string{
	"https://www.googleapis.com/auth/spreadsheets.readonly",
}

// sheetsClient wraps a service-account authorized HTTP client for the
// values:batchGet endpoint. reset() rebuilds the client, which refreshes the
// underlying token source after an upstream fault.
type sheetsClient struct {
	creds []byte
	http  *http.Client
}

func newSheetsClient(ctx context.Context, creds []byte) (*sheetsClient, error) {
	c := &sheetsClient{creds: creds}
	if err := c.reset(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *sheetsClient) reset(ctx context.Context) error {
	conf, err := google.JWTConfigFromJSON(c.creds, sheetsScopes...)
	if err != nil {
		return fmt.Errorf("service account key: %w", err)
	}
	c.http = conf.Client(ctx)
	return nil
}

type valueRange struct {
	Range  string     `json:"range"`
	Values [][]string `json:"values"`
}

type batchGetResponse struct {
	ValueRanges []valueRange `json:"valueRanges"`
}

// batchGet fetches the given ranges of a spreadsheet. One valueRange is
// returned per requested range, in order.
func (c *sheetsClient) batchGet(ctx context.Context, spreadsheetID string, ranges []string) ([]valueRange, error) {
	q := url.Values{}
	for _, r := range ranges {
		q.Add("ranges", r)
	}
	endpoint := fmt.Sprintf(
		"https://sheets.googleapis.com/v4/spreadsheets/%s/values:batchGet?%s",
		url.PathEscape(spreadsheetID), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sheets api: %s", resp.Status)
	}

	var body batchGetResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode sheets response: %w", err)
	}
	if len(body.ValueRanges) != len(ranges) {
		return nil, fmt.Errorf("sheets api: got %d ranges, want %d", len(body.ValueRanges), len(ranges))
	}
	return body.ValueRanges, nil
}
