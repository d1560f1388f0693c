package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// RESTStore inserts rows through a PostgREST-style endpoint
// (POST {base}/rest/v1/{table}), as served by Supabase.
type RESTStore struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewRESTStore returns a store posting to baseURL. A nil client uses
// http.DefaultClient.
func NewRESTStore(baseURL, apiKey, table string, client *http.Client) *RESTStore {
	if table == "" {
		table = DefaultTable
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &RESTStore{
		endpoint: strings.TrimRight(baseURL, "/") + "/rest/v1/" + table,
		apiKey:   apiKey,
		client:   client,
	}
}

// Save implements Store.
func (s *RESTStore) Save(ctx context.Context, rec Record) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")
	if s.apiKey != "" {
		req.Header.Set("apikey", s.apiKey)
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("insert result: %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
