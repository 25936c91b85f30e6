package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/salesflow/internal/config"
	apperrors "github.com/spec-kit/salesflow/pkg/util/errorutil"
)

const maxResponseBytes = 16 << 20

// HTTPClient is the Gateway backed by the CRM REST API. Every call uses the
// service-level token, never the caller's identity.
type HTTPClient struct {
	baseURL     string
	token       string
	authHeader  string
	teamPath    string
	timeout     time.Duration
	concurrency int
	http        *http.Client
	logger      *zap.Logger
}

// NewHTTPClient builds a client from configuration.
func NewHTTPClient(cfg config.CRMConfig, logger *zap.Logger) *HTTPClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	header := cfg.AuthHeader
	if header == "" {
		header = "authtoken"
	}
	return &HTTPClient{
		baseURL:     cfg.BaseURL,
		token:       cfg.Token,
		authHeader:  header,
		teamPath:    cfg.TeamPath,
		timeout:     cfg.Timeout(),
		concurrency: cfg.LookupConcurrency,
		http:        &http.Client{},
		logger:      logger,
	}
}

// ListLeads returns every lead. A body that is not a JSON array yields an
// empty list.
func (c *HTTPClient) ListLeads(ctx context.Context) ([]Record, error) {
	body, err := c.get(ctx, "/leads/")
	if err != nil {
		return nil, err
	}
	leads, err := decodeList(body)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("crm leads fetched", zap.Int("count", len(leads)))
	return leads, nil
}

// ListTeam uses the configured team endpoint, or derives the team from the
// staff assigned to leads when none is configured.
func (c *HTTPClient) ListTeam(ctx context.Context) ([]Record, error) {
	if c.teamPath != "" {
		body, err := c.get(ctx, c.teamPath)
		if err != nil {
			return nil, err
		}
		team, err := decodeList(body)
		if err != nil {
			return nil, err
		}
		for _, staff := range team {
			decorateStaff(staff)
		}
		return team, nil
	}

	leads, err := c.ListLeads(ctx)
	if err != nil {
		return nil, err
	}
	return DeriveTeam(ctx, c, leads, c.concurrency, c.logger)
}

// GetStaff fetches one staff record.
func (c *HTTPClient) GetStaff(ctx context.Context, staffID string) (Record, error) {
	body, err := c.get(ctx, "/staffs/"+url.PathEscape(staffID))
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := decodeJSON(body, &rec); err != nil || rec == nil {
		return nil, apperrors.NewUpstreamError(0, "", fmt.Errorf("staff %s: response is not an object", staffID))
	}
	return rec, nil
}

// LeadActivities returns the activity history of a lead as the CRM sent it.
func (c *HTTPClient) LeadActivities(ctx context.Context, leadID string) (json.RawMessage, error) {
	return c.getRaw(ctx, "/leads/"+url.PathEscape(leadID)+"/activities")
}

// LeadReminders returns the reminders of a lead as the CRM sent it.
func (c *HTTPClient) LeadReminders(ctx context.Context, leadID string) (json.RawMessage, error) {
	return c.getRaw(ctx, "/reminders/lead/"+url.PathEscape(leadID))
}

func (c *HTTPClient) getRaw(ctx context.Context, path string) (json.RawMessage, error) {
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, apperrors.NewUpstreamError(0, "", fmt.Errorf("%s: invalid JSON response", path))
	}
	return json.RawMessage(body), nil
}

func (c *HTTPClient) get(ctx context.Context, path string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	req.Header.Set(c.authHeader, c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.transportError(path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, c.transportError(path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("crm request failed",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", truncate(body, 512)))
		return nil, apperrors.NewUpstreamError(resp.StatusCode, string(body), nil)
	}
	return body, nil
}

func (c *HTTPClient) transportError(path string, err error) error {
	if isTimeout(err) {
		c.logger.Warn("crm request timed out", zap.String("path", path), zap.Duration("timeout", c.timeout))
		return apperrors.NewUpstreamTimeout(err)
	}
	c.logger.Warn("crm request error", zap.String("path", path), zap.Error(err))
	return apperrors.NewUpstreamError(0, "", err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func decodeJSON(body []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	return dec.Decode(v)
}

// decodeList keeps the object elements of a JSON array; any other JSON value
// becomes an empty list.
func decodeList(body []byte) ([]Record, error) {
	var raw any
	if err := decodeJSON(body, &raw); err != nil {
		return nil, apperrors.NewUpstreamError(0, "", fmt.Errorf("invalid JSON response: %w", err))
	}
	items, ok := raw.([]any)
	if !ok {
		return []Record{}, nil
	}
	records := make([]Record, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			records = append(records, Record(obj))
		}
	}
	return records, nil
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
