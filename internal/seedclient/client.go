package seedclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// client wraps http.Client for the engine API.
type client struct {
	http    *http.Client
	baseURL string
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

func (c *client) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(data))
	}
	if out != nil {
		return json.Unmarshal(data, out)
	}
	return nil
}

func (c *client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(data))
	}
	return json.Unmarshal(data, out)
}

// awardResponse mirrors the attendance endpoint response. Only the fields
// the seeder inspects are declared.
type awardResponse struct {
	Awarded   bool `json:"awarded"`
	Duplicate bool `json:"duplicate"`
	NewBadge  *struct {
		Name string `json:"name"`
	} `json:"newBadge"`
	Ledger struct {
		TotalPoints int `json:"totalPoints"`
	} `json:"ledger"`
}

func (c *client) confirmAttendance(ctx context.Context, a attendance) (awardResponse, error) {
	var out awardResponse
	err := c.postJSON(ctx, "/attendance", a, &out)
	return out, err
}

// leaderboardRow mirrors the leaderboard endpoint response rows.
type leaderboardRow struct {
	Rank        int    `json:"rank"`
	StudentID   string `json:"studentId"`
	StudentName string `json:"studentName"`
	TotalPoints int    `json:"totalPoints"`
}

func (c *client) leaderboard(ctx context.Context, n int) ([]leaderboardRow, error) {
	var rows []leaderboardRow
	err := c.getJSON(ctx, fmt.Sprintf("/leaderboard?limit=%d", n), &rows)
	return rows, err
}
