// Package airtable is a minimal client for the Airtable REST API, covering
// the two operations this tool needs: listing the records of one table
// view and patching fields on a single record.
package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"
)

const defaultBaseURL = "https://api.airtable.com/v0"

type Client struct {
	apiKey  string
	baseID  string
	baseURL string
	client  *http.Client

	apiCallCount int64
	apiCallMutex sync.Mutex
}

// Record is one row as returned by the Airtable API.
type Record struct {
	ID          string                 `json:"id"`
	CreatedTime string                 `json:"createdTime"`
	Fields      map[string]interface{} `json:"fields"`
}

type recordsResponse struct {
	Records []Record `json:"records"`
	Offset  string   `json:"offset"`
}

func NewClient(apiKey, baseID string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseID:  baseID,
		baseURL: defaultBaseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// IncrementAPICall safely increments the API call counter
func (c *Client) IncrementAPICall() {
	c.apiCallMutex.Lock()
	c.apiCallCount++
	c.apiCallMutex.Unlock()
}

// GetAPICallCount returns the current API call count
func (c *Client) GetAPICallCount() int64 {
	c.apiCallMutex.Lock()
	defer c.apiCallMutex.Unlock()
	return c.apiCallCount
}

// ListRecords returns all records of the table, following pagination
// offsets until the API stops returning one. An empty view lists the
// whole table.
func (c *Client) ListRecords(ctx context.Context, table, view string) ([]Record, error) {
	var records []Record
	offset := ""

	for {
		page, err := c.listPage(ctx, table, view, offset)
		if err != nil {
			return nil, err
		}
		records = append(records, page.Records...)
		if page.Offset == "" {
			return records, nil
		}
		offset = page.Offset
	}
}

func (c *Client) listPage(ctx context.Context, table, view, offset string) (*recordsResponse, error) {
	query := url.Values{}
	query.Set("pageSize", "100")
	if view != "" {
		query.Set("view", view)
	}
	if offset != "" {
		query.Set("offset", offset)
	}
	reqURL := fmt.Sprintf("%s/%s/%s?%s", c.baseURL, c.baseID, url.PathEscape(table), query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	c.IncrementAPICall()

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var page recordsResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &page, nil
}

// UpdateRecord patches the given fields on one record, leaving all other
// fields untouched.
func (c *Client) UpdateRecord(ctx context.Context, table, recordID string, fields map[string]interface{}) error {
	payload, err := json.Marshal(struct {
		Fields map[string]interface{} `json:"fields"`
	}{Fields: fields})
	if err != nil {
		return fmt.Errorf("failed to encode fields: %w", err)
	}

	reqURL := fmt.Sprintf("%s/%s/%s/%s", c.baseURL, c.baseID, url.PathEscape(table), recordID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, reqURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	c.IncrementAPICall()

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
