package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"storefront/internal/models"
)

// PixelSink posts events to a conversions endpoint for one pixel.
type PixelSink struct {
	client   *http.Client
	endpoint string
	pixelID  string
}

func NewPixelSink(client *http.Client, endpoint, pixelID string) *PixelSink {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &PixelSink{
		client:   client,
		endpoint: strings.TrimRight(endpoint, "/"),
		pixelID:  pixelID,
	}
}

type pixelEvent struct {
	EventName  string         `json:"event_name"`
	EventTime  int64          `json:"event_time"`
	CustomData map[string]any `json:"custom_data,omitempty"`
}

type pixelRequest struct {
	Data []pixelEvent `json:"data"`
}

func (s *PixelSink) Track(ctx context.Context, event models.Event) error {
	body, err := json.Marshal(pixelRequest{Data: []pixelEvent{{
		EventName:  event.Name,
		EventTime:  time.Now().Unix(),
		CustomData: event.Data,
	}}})
	if err != nil {
		return fmt.Errorf("failed to encode pixel event: %w", err)
	}

	url := fmt.Sprintf("%s/%s/events", s.endpoint, s.pixelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build pixel request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("pixel request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("pixel endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	io.Copy(io.Discard, resp.Body)
	return nil
}
