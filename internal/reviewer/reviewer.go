// Package reviewer talks to the scouting research service that assesses
// whether a GitHub user is competent to review the generated patch.
package reviewer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client is a thin wrapper over the scouting HTTP API.
type Client struct {
	BaseURL string
	APIKey  string

	// HTTPClient may be replaced in tests; nil means a 30s-timeout default.
	HTTPClient *http.Client
}

// Scout is a created research task.
type Scout struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Results is the research outcome for one scout.
type Results struct {
	Competent bool            `json:"competent"`
	Summary   string          `json:"summary,omitempty"`
	Raw       json.RawMessage `json:"raw,omitempty"`
}

// Verdict is the per-candidate assessment aggregated into reviewer.json.
type Verdict struct {
	Username  string   `json:"username"`
	ScoutID   string   `json:"scout_id,omitempty"`
	Status    string   `json:"status"`
	Competent bool     `json:"competent"`
	Error     string   `json:"error,omitempty"`
	Results   *Results `json:"results,omitempty"`
}

// Report is the reviewer.json artifact.
type Report struct {
	Repo         string    `json:"repo"`
	Checked      []Verdict `json:"checked"`
	BestReviewer string    `json:"best_reviewer,omitempty"`
}

const (
	pollInterval = 5 * time.Second
	pollBudget   = 60 * time.Second
)

func (c *Client) http() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 30 * time.Second}
}

// CreateScout starts a research task for one GitHub user.
func (c *Client) CreateScout(ctx context.Context, username, repo string) (*Scout, error) {
	query := fmt.Sprintf(`Research GitHub user %s on repository %s.
Analyze their:
1. Contribution history to this repository
2. Code review activity and quality
3. Technical expertise in relevant areas
4. Reputation and trustworthiness in the community

Determine if they are competent enough to review code changes.`, username, repo)

	payload := map[string]any{
		"query":           query,
		"display_name":    fmt.Sprintf("reviewer-check-%s", username),
		"output_interval": 3600,
	}
	var scout Scout
	if err := c.do(ctx, http.MethodPost, "/scouting/tasks", payload, &scout); err != nil {
		return nil, err
	}
	return &scout, nil
}

// ScoutStatus fetches the current state of a scout.
func (c *Client) ScoutStatus(ctx context.Context, scoutID string) (*Scout, error) {
	var scout Scout
	if err := c.do(ctx, http.MethodGet, "/scouting/tasks/"+scoutID, nil, &scout); err != nil {
		return nil, err
	}
	return &scout, nil
}

// ScoutResults fetches the research results of a completed scout.
func (c *Client) ScoutResults(ctx context.Context, scoutID string) (*Results, error) {
	var results Results
	if err := c.do(ctx, http.MethodGet, "/scouting/tasks/"+scoutID+"/results", nil, &results); err != nil {
		return nil, err
	}
	return &results, nil
}

// CheckCandidates researches every candidate and picks the best reviewer: the
// first candidate found competent, or the first candidate when no verdict
// completed in time. With wait=false the scouts are created and left running;
// the report records them as pending.
func (c *Client) CheckCandidates(ctx context.Context, repo string, candidates []string, wait bool) *Report {
	report := &Report{Repo: repo}

	for _, username := range candidates {
		report.Checked = append(report.Checked, c.checkOne(ctx, repo, username, wait))
	}

	for _, v := range report.Checked {
		if v.Competent {
			report.BestReviewer = v.Username
			break
		}
	}
	if report.BestReviewer == "" && len(candidates) > 0 {
		report.BestReviewer = candidates[0]
	}
	return report
}

func (c *Client) checkOne(ctx context.Context, repo, username string, wait bool) Verdict {
	scout, err := c.CreateScout(ctx, username, repo)
	if err != nil {
		return Verdict{Username: username, Status: "failed", Error: err.Error()}
	}

	verdict := Verdict{Username: username, ScoutID: scout.ID, Status: "pending"}
	if !wait {
		return verdict
	}

	deadline := time.Now().Add(pollBudget)
	for time.Now().Before(deadline) {
		status, err := c.ScoutStatus(ctx, scout.ID)
		if err == nil && status.Status == "completed" {
			verdict.Status = "completed"
			results, err := c.ScoutResults(ctx, scout.ID)
			if err != nil {
				verdict.Error = err.Error()
				return verdict
			}
			verdict.Competent = results.Competent
			verdict.Results = results
			return verdict
		}
		select {
		case <-ctx.Done():
			verdict.Error = ctx.Err().Error()
			return verdict
		case <-time.After(pollInterval):
		}
	}
	verdict.Status = "timeout"
	return verdict
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.BaseURL, "/")+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("X-API-Key", c.APIKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: unexpected status %s", method, path, resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
