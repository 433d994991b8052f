package v1

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/loopcart/loopcart/internal/config"
	ierr "github.com/loopcart/loopcart/internal/errors"
	"github.com/loopcart/loopcart/internal/service"
)

// RenewalHandler exposes the scheduler-triggered renewal sweep.
type RenewalHandler struct {
	service service.RenewalService
	cfg     *config.Configuration
}

// NewRenewalHandler creates a new renewal handler.
func NewRenewalHandler(service service.RenewalService, cfg *config.Configuration) *RenewalHandler {
	return &RenewalHandler{service: service, cfg: cfg}
}

// Run handles GET /v1/renewals/run. The caller authenticates with the shared
// scheduler secret; an unauthenticated request performs no work at all.
func (h *RenewalHandler) Run(c *gin.Context) {
	if !h.authorized(c) {
		c.Error(ierr.NewError("invalid scheduler secret").
			WithHint("Scheduler authentication failed").
			Mark(ierr.ErrPermissionDenied))
		return
	}

	result, err := h.service.RunDueRenewals(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// authorized accepts the secret as a bearer token, a query parameter or the
// X-Scheduler-Token header, matching what common cron-as-a-service providers
// can send.
func (h *RenewalHandler) authorized(c *gin.Context) bool {
	secret := h.cfg.Renewal.SchedulerSecret
	if secret == "" {
		return false
	}

	candidates := []string{
		strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "),
		c.Query("secret"),
		c.GetHeader("X-Scheduler-Token"),
	}
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		if subtle.ConstantTimeCompare([]byte(candidate), []byte(secret)) == 1 {
			return true
		}
	}
	return false
}
