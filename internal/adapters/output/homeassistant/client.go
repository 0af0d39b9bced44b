package homeassistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"homekit-bridge/internal/domain/model"
)

// callTimeout bounds a fire-and-forget service call, which is detached from
// the caller's context.
const callTimeout = 10 * time.Second

// Client talks to the Home Assistant REST API.
type Client struct {
	url        string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *slog.Logger
}

func NewClient(baseURL, token string, log *slog.Logger) *Client {
	return &Client{
		url:        strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: callTimeout},
		// Keeps a misbehaving controller from hammering the HA instance.
		limiter: rate.NewLimiter(rate.Limit(5), 10),
		log:     log,
	}
}

// EntityState fetches and parses the current snapshot of one entity.
func (c *Client) EntityState(ctx context.Context, entityID string) (*model.EntityState, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := c.url + "/api/states/" + url.PathEscape(entityID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("state of %s: HA API status %d", entityID, resp.StatusCode)
	}

	var raw rawState
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}
	return parseEntityState(entityID, raw.State, raw.Attributes), nil
}

// CallService posts a service call in the background and returns immediately;
// delivery failures are logged, not surfaced.
func (c *Client) CallService(ctx context.Context, domain, service string, params map[string]interface{}, description string) error {
	body, err := json.Marshal(params)
	if err != nil {
		return err
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()

		log := c.log.With("domain", domain, "service", service, "changed", description)
		if err := c.limiter.Wait(ctx); err != nil {
			log.Warn("service call dropped", "error", err)
			return
		}

		endpoint := fmt.Sprintf("%s/api/services/%s/%s", c.url, domain, service)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			log.Warn("service call dropped", "error", err)
			return
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			log.Warn("service call failed", "error", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			log.Warn("service call rejected", "status", resp.StatusCode)
			return
		}
		log.Info("service call dispatched")
	}()

	return nil
}
