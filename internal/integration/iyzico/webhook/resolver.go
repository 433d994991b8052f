package webhook

import (
	"context"
	"regexp"

	"github.com/loopcart/loopcart/internal/domain/subscription"
	ierr "github.com/loopcart/loopcart/internal/errors"
	"github.com/loopcart/loopcart/internal/integration/iyzico"
	"github.com/loopcart/loopcart/internal/logger"
)

// uuidPattern matches a local subscription id embedded anywhere in an event
// field. Gateways truncate, prefix and concatenate correlation fields, so the
// scan is a substring search rather than an exact parse.
var uuidPattern = regexp.MustCompile(`(?i)[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}`)

// Resolver maps an inbound gateway event to a local subscription. Resolution
// is ranked: the gateway-issued reference code is authoritative, the UUID
// scan over correlation fields is the fallback for events that predate the
// reference code or come from the legacy checkout flow.
type Resolver struct {
	subRepo subscription.Repository
	logger  *logger.Logger
}

// NewResolver creates a new event identity resolver.
func NewResolver(subRepo subscription.Repository, log *logger.Logger) *Resolver {
	return &Resolver{subRepo: subRepo, logger: log}
}

// Resolve returns the subscription an event belongs to, plus which strategy
// matched. A nil subscription with a nil error means the event is
// unresolvable and must be skipped without side effects.
func (r *Resolver) Resolve(ctx context.Context, event *Event) (*subscription.Subscription, string, error) {
	if ref := event.GatewayRef(); ref != "" {
		sub, err := r.subRepo.GetByGatewayRef(ctx, ref)
		if err == nil {
			r.logger.Debugw("resolved webhook event",
				"matched_by", "gateway_ref",
				"subscription_id", sub.ID)
			return sub, "gateway_ref", nil
		}
		if !ierr.IsNotFound(err) {
			return nil, "", err
		}
		// Unknown reference code: fall through to the UUID scan rather than
		// dropping the event, the checkout may not have stored the ref yet.
	}

	for _, candidate := range event.CorrelationCandidates() {
		if candidate == "" {
			continue
		}
		// Strip any embedded delivery-metadata block before scanning.
		id, _ := iyzico.SplitConversationID(candidate)
		match := uuidPattern.FindString(id)
		if match == "" {
			continue
		}

		sub, err := r.subRepo.Get(ctx, match)
		if err == nil {
			r.logger.Debugw("resolved webhook event",
				"matched_by", "uuid_fallback",
				"subscription_id", sub.ID)
			return sub, "uuid_fallback", nil
		}
		if !ierr.IsNotFound(err) {
			return nil, "", err
		}
		// First UUID only. Scanning further fields after a miss risks
		// attaching the event to the wrong subscription.
		break
	}

	return nil, "", nil
}
