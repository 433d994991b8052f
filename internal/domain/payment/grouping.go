package payment

import (
	"sort"

	"github.com/loopcart/loopcart/internal/types"
	"github.com/samber/lo"
)

// GroupLatest collapses the payment history for display: rows sharing a dedup
// key form one group, each group is represented by its most recent SUCCESS
// row (falling back to the most recent row of any status), and at most limit
// groups are returned, newest first. This is a read-side concern only; the
// write-path de-duplication lives in the ledger writer.
func GroupLatest(payments []*Payment, limit int) []*Payment {
	groups := lo.GroupBy(payments, func(p *Payment) string {
		return p.DedupKey()
	})

	representatives := make([]*Payment, 0, len(groups))
	for _, group := range groups {
		representatives = append(representatives, pickRepresentative(group))
	}

	sort.Slice(representatives, func(i, j int) bool {
		return representatives[i].CreatedAt.After(representatives[j].CreatedAt)
	})

	if limit > 0 && len(representatives) > limit {
		representatives = representatives[:limit]
	}
	return representatives
}

func pickRepresentative(group []*Payment) *Payment {
	var best *Payment
	for _, p := range group {
		if best == nil {
			best = p
			continue
		}
		bestSuccess := best.Status == types.PaymentStatusSuccess
		pSuccess := p.Status == types.PaymentStatusSuccess
		switch {
		case pSuccess && !bestSuccess:
			best = p
		case pSuccess == bestSuccess && p.CreatedAt.After(best.CreatedAt):
			best = p
		}
	}
	return best
}
