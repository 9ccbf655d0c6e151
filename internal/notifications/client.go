package notifications

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"grocery_sheets/internal/retry"

	"github.com/rs/zerolog/log"
)

// Client pushes notices to an ntfy topic.
type Client struct {
	httpClient *http.Client
	baseURL    string
	topic      string
	enabled    bool
	priority   string
	retry      retry.Config

	mutex       sync.Mutex
	totalSent   int64
	totalFailed int64
	pending     sync.WaitGroup
}

type NotificationError struct {
	Type       string
	StatusCode int
	Underlying error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notification failed [%s]: %v", e.Type, e.Underlying)
}

func (e *NotificationError) Unwrap() error {
	return e.Underlying
}

func (e *NotificationError) IsRetryable() bool {
	switch e.Type {
	case "network", "server", "rate_limit":
		return true
	default:
		return false
	}
}

func NewClient(baseURL, topic string, enabled bool, priority string, rc retry.Config) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:  baseURL,
		topic:    topic,
		enabled:  enabled,
		priority: priority,
		retry:    rc,
	}
}

// Notify delivers n in the background so a slow ntfy server never delays the
// list operation that produced it. Use Wait to flush before exit.
func (c *Client) Notify(ctx context.Context, n Notice) {
	if !c.enabled {
		return
	}

	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		if err := c.SendNotification(context.WithoutCancel(ctx), n); err != nil {
			log.Warn().Err(err).Msg("Async notification failed")
		}
	}()
}

// Wait blocks until background deliveries finish.
func (c *Client) Wait() {
	c.pending.Wait()
}

func (c *Client) SendNotification(ctx context.Context, n Notice) error {
	if !c.enabled {
		log.Debug().Msg("Notifications disabled, skipping")
		return nil
	}

	_, err := retry.WithRetry(ctx, c.retry, func(ctx context.Context) (struct{}, error) {
		err := c.sendSingleNotification(ctx, n)
		if notifErr, ok := err.(*NotificationError); ok && !notifErr.IsRetryable() {
			return struct{}{}, retry.Permanent(err)
		}
		return struct{}{}, err
	})

	c.mutex.Lock()
	if err != nil {
		c.totalFailed++
	} else {
		c.totalSent++
	}
	c.mutex.Unlock()
	return err
}

func (c *Client) sendSingleNotification(ctx context.Context, n Notice) error {
	url := fmt.Sprintf("%s/%s", c.baseURL, c.topic)

	log.Debug().
		Str("url", url).
		Str("level", string(n.Level)).
		Msg("Sending notification")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBufferString(n.Message))
	if err != nil {
		return &NotificationError{Type: "client", Underlying: err}
	}

	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Title", "Grocery list")
	if n.Level == LevelError {
		req.Header.Set("Tags", "warning")
	} else {
		req.Header.Set("Tags", "white_check_mark")
	}
	if c.priority != "" {
		req.Header.Set("Priority", c.priority)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NotificationError{Type: "network", Underlying: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &NotificationError{
			Type:       categorizeHTTPError(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Underlying: fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status),
		}
	}

	log.Debug().
		Int("status_code", resp.StatusCode).
		Msg("Notification sent successfully")
	return nil
}

func categorizeHTTPError(statusCode int) string {
	switch {
	case statusCode == 401 || statusCode == 403:
		return "auth"
	case statusCode == 429:
		return "rate_limit"
	case statusCode >= 400 && statusCode < 500:
		return "client"
	case statusCode >= 500:
		return "server"
	default:
		return "unknown"
	}
}

// GetMetrics returns the number of delivered and failed notifications.
func (c *Client) GetMetrics() (sent, failed int64) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.totalSent, c.totalFailed
}
