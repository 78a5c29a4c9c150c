package settlement

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// HTTPReporter posts reports as JSON to the economy service.
type HTTPReporter struct {
	url    string
	client *http.Client
}

func NewHTTPReporter(url string, client *http.Client) *HTTPReporter {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &HTTPReporter{url: url, client: client}
}

func (h *HTTPReporter) Report(ctx context.Context, r Report) error {
	body, err := json.Marshal(r)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("encode report: %w", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", r.MatchID)

	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("reward service: %s", resp.Status)
	default:
		// rejected payloads are not retried
		return backoff.Permanent(fmt.Errorf("reward service: %s", resp.Status))
	}
}

// LogReporter only logs; used when no reward service is configured.
type LogReporter struct {
	Logger *zap.Logger
}

func (l LogReporter) Report(_ context.Context, r Report) error {
	if l.Logger != nil {
		l.Logger.Info("reward report",
			zap.String("match_id", r.MatchID),
			zap.String("winner", r.Winner.UserID),
			zap.Int("winner_points", r.Winner.Points),
			zap.Int("winner_rating", r.Winner.Rating),
			zap.String("loser", r.Loser.UserID),
			zap.Int("loser_points", r.Loser.Points),
			zap.Int("loser_rating", r.Loser.Rating),
		)
	}
	return nil
}
