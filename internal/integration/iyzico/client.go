package iyzico

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
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

// Client defines the interface for iyzico API operations used by the
// reconciliation core.
type Client interface {
	// RetrieveCheckoutResult exchanges a callback token for the final checkout
	// outcome.
	RetrieveCheckoutResult(ctx context.Context, token, conversationID string) (*CheckoutResult, error)

	// ChargeWithSavedCard charges a stored card token.
	ChargeWithSavedCard(ctx context.Context, req *ChargeSavedCardRequest) (*ChargeResult, error)

	// CancelSubscription cancels a gateway-native subscription. A non-success
	// gateway response surfaces as a wrapped *APIError.
	CancelSubscription(ctx context.Context, subscriptionRef string) error

	// VerifyWebhookSignature checks the HMAC-SHA256 webhook signature.
	VerifyWebhookSignature(payload []byte, signature string) error
}

type client struct {
	cfg        config.IyzicoConfig
	logger     *logger.Logger
	httpClient *http.Client
}

// NewClient creates a new iyzico client.
func NewClient(cfg *config.Configuration, log *logger.Logger) Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 2
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.HTTPClient.Timeout = 30 * time.Second
	retryClient.Logger = log.GetRetryableHTTPLogger()

	return &client{
		cfg:        cfg.Iyzico,
		logger:     log,
		httpClient: retryClient.StandardClient(),
	}
}

func (c *client) RetrieveCheckoutResult(ctx context.Context, token, conversationID string) (*CheckoutResult, error) {
	req := &retrieveCheckoutRequest{Token: token, ConversationID: conversationID}

	var result CheckoutResult
	if err := c.post(ctx, "/payment/iyzipos/checkoutform/auth/ecom/detail", req, &result); err != nil {
		return nil, err
	}

	c.logger.Infow("retrieved checkout result",
		"status", result.Status,
		"payment_id", result.PaymentID,
		"conversation_id", result.ConversationID)

	return &result, nil
}

func (c *client) ChargeWithSavedCard(ctx context.Context, req *ChargeSavedCardRequest) (*ChargeResult, error) {
	var result ChargeResult
	if err := c.post(ctx, "/payment/auth", req, &result); err != nil {
		return nil, err
	}

	c.logger.Infow("saved-card charge attempted",
		"status", result.Status,
		"payment_id", result.PaymentID,
		"conversation_id", req.ConversationID)

	return &result, nil
}

func (c *client) CancelSubscription(ctx context.Context, subscriptionRef string) error {
	req := &cancelSubscriptionRequest{SubscriptionReferenceCode: subscriptionRef}

	var envelope gatewayEnvelope
	if err := c.post(ctx, "/v2/subscription/subscriptions/"+subscriptionRef+"/cancel", req, &envelope); err != nil {
		return err
	}

	if envelope.Status != StatusSuccess {
		c.logger.Warnw("gateway refused subscription cancel",
			"subscription_ref", subscriptionRef,
			"error_code", envelope.ErrorCode,
			"error_message", envelope.ErrorMessage)
		return ierr.WithError(&APIError{Code: envelope.ErrorCode, Message: envelope.ErrorMessage}).
			WithHint("Gateway refused the cancellation").
			WithReportableDetails(map[string]interface{}{
				"error_code": envelope.ErrorCode,
			}).
			Mark(ierr.ErrGateway)
	}

	c.logger.Infow("cancelled subscription at gateway", "subscription_ref", subscriptionRef)
	return nil
}

// VerifyWebhookSignature checks the hex HMAC-SHA256 of the raw payload
// against the configured webhook secret.
func (c *client) VerifyWebhookSignature(payload []byte, signature string) error {
	if c.cfg.WebhookSecret == "" {
		return ierr.NewError("webhook secret not configured").
			WithHint("Configure iyzico webhook secret").
			Mark(ierr.ErrValidation)
	}

	decoded, err := hex.DecodeString(signature)
	if err != nil {
		return ierr.NewError("invalid webhook signature format").
			WithHint("Signature must be a valid hex string").
			Mark(ierr.ErrValidation)
	}

	mac := hmac.New(sha256.New, []byte(c.cfg.WebhookSecret))
	mac.Write(payload)
	if !hmac.Equal(mac.Sum(nil), decoded) {
		return ierr.NewError("webhook signature verification failed").
			WithHint("Invalid webhook signature").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// post executes an authenticated JSON request and decodes the response into
// out. Transport failures and non-2xx statuses surface as gateway errors.
func (c *client) post(ctx context.Context, path string, body, out interface{}) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Invalid gateway request data").
			Mark(ierr.ErrInternal)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return ierr.WithError(err).Mark(ierr.ErrInternal)
	}

	randomKey := randomHex(8)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-iyzi-rnd", randomKey)
	httpReq.Header.Set("Authorization", c.authHeader(randomKey, bodyBytes))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Errorw("gateway request failed", "path", path, "error", err)
		return ierr.WithError(err).
			WithHint("Unable to connect to payment gateway").
			Mark(ierr.ErrGateway)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to read gateway response").
			Mark(ierr.ErrGateway)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var envelope gatewayEnvelope
		if err := json.Unmarshal(respBody, &envelope); err == nil && envelope.ErrorMessage != "" {
			return ierr.WithError(&APIError{Code: envelope.ErrorCode, Message: envelope.ErrorMessage}).
				WithHint("Payment gateway rejected the request").
				WithReportableDetails(map[string]interface{}{
					"error_code": envelope.ErrorCode,
				}).
				Mark(ierr.ErrGateway)
		}
		return ierr.NewError("gateway API error").
			WithHint(fmt.Sprintf("HTTP status %d", resp.StatusCode)).
			Mark(ierr.ErrGateway)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to parse gateway response").
			Mark(ierr.ErrGateway)
	}
	return nil
}

// authHeader computes the v2 request signature: HMAC-SHA256 of the random key
// and body, keyed by the secret, tagged with the API key.
func (c *client) authHeader(randomKey string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(c.cfg.SecretKey))
	mac.Write([]byte(randomKey))
	mac.Write(body)
	signature := hex.EncodeToString(mac.Sum(nil))

	token := fmt.Sprintf("apiKey:%s&randomKey:%s&signature:%s", c.cfg.APIKey, randomKey, signature)
	return "IYZWSv2 " + base64.StdEncoding.EncodeToString([]byte(token))
}

func randomHex(n int) string {
	buf := make([]byte, n)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
