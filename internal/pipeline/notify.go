package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// NotifyConfig configures where to send completion notifications.
type NotifyConfig struct {
	WebhookURL string // if empty, no notifications
	Client     *http.Client
}

type targetPayload struct {
	Target   string   `json:"target"`
	Gate     string   `json:"gate"`
	Found    []string `json:"found"`
	NotFound int      `json:"not_found"`
	Errors   int      `json:"errors"`
}

// completionPayload is the JSON body posted to the webhook endpoint.
type completionPayload struct {
	ScanID         string          `json:"scan_id"`
	Oracle         string          `json:"oracle"`
	Status         string          `json:"status"`
	ElapsedSeconds float64         `json:"elapsed_seconds"`
	FoundTotal     int             `json:"found_total"`
	Targets        []targetPayload `json:"targets"`
}

// SendCompletion posts a JSON summary of the scan to the webhook URL.
// Returns nil if WebhookURL is empty (no-op). Callers treat errors as warnings.
func (n *NotifyConfig) SendCompletion(ctx context.Context, result *ScanResult) error {
	if n == nil || n.WebhookURL == "" {
		return nil
	}

	payload := completionPayload{
		ScanID:         result.Meta.ID,
		Oracle:         string(result.Meta.Config.Oracle),
		Status:         string(result.Meta.Status),
		ElapsedSeconds: result.Elapsed.Seconds(),
		FoundTotal:     result.FoundCount(),
	}
	for _, t := range result.Targets {
		found := t.Summary.Found
		if found == nil {
			found = []string{}
		}
		payload.Targets = append(payload.Targets, targetPayload{
			Target:   t.Summary.Target,
			Gate:     string(t.Summary.Gate),
			Found:    found,
			NotFound: t.Summary.NotFound,
			Errors:   t.Summary.Errors,
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notify: marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := n.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: posting to %s: %w", n.WebhookURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notify: webhook returned non-2xx status %d", resp.StatusCode)
	}

	return nil
}
