package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kaelos/devdeck"
)

// APIClient talks to a running devdeck daemon over HTTP.
type APIClient struct {
	baseURL string
	client  *http.Client
}

// NewAPIClient creates a new API client. baseURL points at the daemon
// root (base path included when configured), e.g. http://localhost:4100.
func NewAPIClient(baseURL string, timeout time.Duration) *APIClient {
	if baseURL == "" {
		baseURL = "http://localhost:4100"
	}
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &APIClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// IsReachable checks if the daemon is running and reachable.
func (c *APIClient) IsReachable() bool {
	resp, err := c.client.Get(c.baseURL + "/api/ping")
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}

func (c *APIClient) decodeError(resp *http.Response) error {
	var errorResp struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&errorResp); err != nil {
		return fmt.Errorf("API error: status %d", resp.StatusCode)
	}
	return fmt.Errorf("API error: %s", errorResp.Error)
}

func (c *APIClient) getJSON(path string, out any) error {
	resp, err := c.client.Get(c.baseURL + path)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return c.decodeError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// GetServices fetches all services with their effective status.
func (c *APIClient) GetServices() ([]devdeck.Service, error) {
	var out []devdeck.Service
	if err := c.getJSON("/api/services", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetSummary fetches the aggregate status counts.
func (c *APIClient) GetSummary() (devdeck.Counts, error) {
	var out devdeck.Counts
	err := c.getJSON("/api/status/summary", &out)
	return out, err
}

type logLine struct {
	Service   string    `json:"service"`
	Line      string    `json:"line"`
	Level     string    `json:"level"`
	Color     string    `json:"color"`
	Timestamp time.Time `json:"timestamp"`
}

// GetHealth fetches the latest health report. A daemon that has not
// received one yet answers 404.
func (c *APIClient) GetHealth() (devdeck.HealthReport, error) {
	var out devdeck.HealthReport
	err := c.getJSON("/api/health", &out)
	return out, err
}

// GetLogs fetches buffered log lines, optionally filtered by service and level.
func (c *APIClient) GetLogs(service, level string, limit int) ([]logLine, error) {
	q := url.Values{}
	if service != "" {
		q.Set("service", service)
	}
	if level != "" {
		q.Set("level", level)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/api/logs"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out []logLine
	if err := c.getJSON(path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Lifecycle requests a start, stop, or restart of a service. The daemon
// forwards the action to the orchestrator it fronts.
func (c *APIClient) Lifecycle(action, name string) error {
	resp, err := c.client.Post(c.baseURL+"/api/services/"+action+"?name="+url.QueryEscape(name), "application/json", nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return c.decodeError(resp)
	}
	return nil
}

// ListClassifications fetches the classification overrides.
func (c *APIClient) ListClassifications() ([]devdeck.Override, error) {
	var out []devdeck.Override
	if err := c.getJSON("/api/logs/classifications", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddClassification installs a classification override.
func (c *APIClient) AddClassification(o devdeck.Override) error {
	data, err := json.Marshal(o)
	if err != nil {
		return err
	}
	resp, err := c.client.Post(c.baseURL+"/api/logs/classifications", "application/json", bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return c.decodeError(resp)
	}
	return nil
}

// RemoveClassification deletes a classification override by its text.
func (c *APIClient) RemoveClassification(text string) error {
	req, err := http.NewRequest(http.MethodDelete, c.baseURL+"/api/logs/classifications?text="+url.QueryEscape(text), nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return c.decodeError(resp)
	}
	return nil
}
