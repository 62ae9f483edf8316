package service

import (
	"sort"

	"lightning-payment-gateway/internal/core/domain"
	"lightning-payment-gateway/pkg/apperror"
)

type rotationCandidate struct {
	address  string
	index    int
	lastUsed int64
}

// SelectAddress picks the receiving address for the next payment.
//
// With rotation disabled or fewer than two addresses the primary is returned.
// Otherwise the first rotationCount non-empty addresses (all when 0) are
// ranked by last use, oldest first, and drawn with weight N-rank so the
// least recently used address is the most likely pick. rnd must return a
// value in [0, 1). The selector does not record the selection.
func SelectAddress(addresses []string, usage domain.AddressUsage, rotationEnabled bool, rotationCount int, rnd func() float64) (domain.Selection, error) {
	if len(addresses) == 0 {
		return domain.Selection{}, apperror.ErrNoAddressesAvailable()
	}
	primary := domain.Selection{Address: addresses[0], AccountIndex: 0}
	if !rotationEnabled || len(addresses) < 2 {
		return primary, nil
	}

	candidates := make([]rotationCandidate, 0, len(addresses))
	for i, addr := range addresses {
		if rotationCount > 0 && i >= rotationCount {
			break
		}
		if addr == "" {
			continue
		}
		candidates = append(candidates, rotationCandidate{address: addr, index: i, lastUsed: usage.LastUsed(i)})
	}

	switch len(candidates) {
	case 0:
		primary.Fallback = true
		return primary, nil
	case 1:
		return domain.Selection{Address: candidates[0].address, AccountIndex: candidates[0].index}, nil
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].lastUsed < candidates[b].lastUsed
	})

	n := len(candidates)
	total := n * (n + 1) / 2
	cursor := rnd() * float64(total)
	for rank, c := range candidates {
		cursor -= float64(n - rank)
		if cursor <= 0 {
			return domain.Selection{Address: c.address, AccountIndex: c.index}, nil
		}
	}
	// Only reachable if rnd returned >= 1.
	last := candidates[0]
	return domain.Selection{Address: last.address, AccountIndex: last.index}, nil
}
