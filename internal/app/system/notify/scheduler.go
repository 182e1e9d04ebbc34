// internal/app/system/notify/scheduler.go
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Scheduler hands a finished notification to the OS delivery mechanism.
// Scheduling is asynchronous from the collector's point of view:
// failures are logged, never retried.
type Scheduler interface {
	Schedule(ctx context.Context, userID string, n Notification) error
}

// PushGateway schedules notifications through the push relay that fans
// out to APNs/FCM for the device fleet.
type PushGateway struct {
	baseURL string
	token   string
	http    *http.Client
	log     *zap.Logger
}

// NewPushGateway builds a gateway client.
func NewPushGateway(baseURL, token string, timeout time.Duration, logger *zap.Logger) *PushGateway {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PushGateway{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: timeout},
		log:     logger,
	}
}

type pushRequest struct {
	UserID   string            `json:"user_id"`
	Title    string            `json:"title"`
	Body     string            `json:"body"`
	Category string            `json:"category"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Schedule posts the notification to the gateway.
func (g *PushGateway) Schedule(ctx context.Context, userID string, n Notification) error {
	payload, err := json.Marshal(pushRequest{
		UserID:   userID,
		Title:    n.Title,
		Body:     n.Body,
		Category: n.Category,
		Metadata: n.Metadata,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/notifications", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}
	resp, err := g.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("push gateway: status %d", resp.StatusCode)
	}
	return nil
}

// LogScheduler is the dev fallback when no push gateway is configured:
// it just logs what would have been delivered.
type LogScheduler struct {
	Log *zap.Logger
}

func (s *LogScheduler) Schedule(_ context.Context, userID string, n Notification) error {
	s.Log.Info("notification (no push gateway configured)",
		zap.String("user_id", userID),
		zap.String("title", n.Title),
		zap.String("body", n.Body),
		zap.String("category", n.Category))
	return nil
}
