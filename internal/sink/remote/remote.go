// Package remote pushes transactions to an HTTP key-value endpoint.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"budgeter/internal/core"
	"budgeter/internal/sink"
)

// DefaultTimeout bounds each push so one unreachable endpoint cannot stall
// the rest of a sync run.
const DefaultTimeout = 10 * time.Second

// Client PUTs each transaction to {base}/transactions/{id}. The local id in
// the URL makes the write idempotent: a re-push after a partial failure
// overwrites the remote record instead of duplicating it.
type Client struct {
	baseURL string
	http    *http.Client
}

var _ sink.Sink = (*Client)(nil)

type payload struct {
	ISODate         string `json:"iso_date"`
	AmountCents     int64  `json:"amount_cents"`
	Type            string `json:"type"`
	Category        string `json:"category"`
	Description     string `json:"description"`
	CreatedAt       string `json:"created_at"`
	SyncedLocallyAt string `json:"synced_locally_at"`
}

func New(baseURL string) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("missing sync endpoint URL")
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: DefaultTimeout},
	}, nil
}

// Push writes one transaction to the endpoint. Any non-2xx status or
// transport error is a failure for this item only.
func (c *Client) Push(ctx context.Context, tx core.Transaction) error {
	body, err := json.Marshal(payload{
		ISODate:         tx.Date,
		AmountCents:     tx.AmountCents,
		Type:            string(tx.Type),
		Category:        tx.Category,
		Description:     tx.Description,
		CreatedAt:       tx.CreatedAt.UTC().Format(time.RFC3339),
		SyncedLocallyAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal transaction %d: %w", tx.ID, err)
	}

	url := c.baseURL + "/transactions/" + strconv.FormatInt(tx.ID, 10)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request for transaction %d: %w", tx.ID, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("push transaction %d: %w", tx.ID, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("push transaction %d: endpoint returned %s", tx.ID, resp.Status)
	}
	return nil
}
