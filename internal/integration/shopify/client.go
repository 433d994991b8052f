package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/loopcart/loopcart/internal/config"
	ierr "github.com/loopcart/loopcart/internal/errors"
	"github.com/loopcart/loopcart/internal/logger"
)

// Client defines the storefront operations the order coordinator needs.
type Client interface {
	// CreateOrder creates a paid order on the storefront.
	CreateOrder(ctx context.Context, req *CreateOrderRequest) (*Order, error)
}

type client struct {
	cfg        config.ShopifyConfig
	logger     *logger.Logger
	httpClient *http.Client
}

// NewClient creates a new storefront admin API client.
func NewClient(cfg *config.Configuration, log *logger.Logger) Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 2
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.HTTPClient.Timeout = 30 * time.Second
	retryClient.Logger = log.GetRetryableHTTPLogger()

	return &client{
		cfg:        cfg.Shopify,
		logger:     log,
		httpClient: retryClient.StandardClient(),
	}
}

func (c *client) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*Order, error) {
	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Invalid order request data").
			Mark(ierr.ErrInternal)
	}

	url := fmt.Sprintf("https://%s/admin/api/%s/orders.json", c.cfg.ShopDomain, c.cfg.APIVersion)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrInternal)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Shopify-Access-Token", c.cfg.AdminToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Errorw("storefront order request failed", "error", err)
		return nil, ierr.WithError(err).
			WithHint("Unable to connect to storefront API").
			Mark(ierr.ErrGateway)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to read storefront response").
			Mark(ierr.ErrGateway)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp errorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Errors != nil {
			c.logger.Errorw("storefront API error",
				"status", resp.StatusCode,
				"errors", errResp.Errors)
			return nil, ierr.NewErrorf("storefront rejected order: %v", errResp.Errors).
				WithHint("Storefront order creation failed").
				Mark(ierr.ErrGateway)
		}
		return nil, ierr.NewError("storefront API error").
			WithHint(fmt.Sprintf("HTTP status %d", resp.StatusCode)).
			Mark(ierr.ErrGateway)
	}

	var created createOrderResponse
	if err := json.Unmarshal(respBody, &created); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to parse storefront response").
			Mark(ierr.ErrGateway)
	}

	c.logger.Infow("created storefront order",
		"order_id", created.Order.ID,
		"order_name", created.Order.Name)

	return &created.Order, nil
}
