// README: Option ranking strategies for quote sessions.
package quote

import (
	"sort"

	"shipquote/internal/modules/pricing"
)

// Ranker orders priced options and assigns each a score. Lower scores rank
// first. Implementations must be deterministic for a given option set.
type Ranker interface {
	Rank(options []Option) []Option
}

// PriceConfidenceRanker blends price position against the cheapest option
// with a penalty for low-confidence cost data. With the default weights a
// cheap computed quote can still outrank a pricier table-backed one, but
// at equal prices table-backed always wins.
type PriceConfidenceRanker struct {
	PriceWeight      float64
	ConfidenceWeight float64
}

func NewDefaultRanker() PriceConfidenceRanker {
	return PriceConfidenceRanker{PriceWeight: 0.7, ConfidenceWeight: 0.3}
}

func (r PriceConfidenceRanker) Rank(options []Option) []Option {
	ranked := make([]Option, len(options))
	copy(ranked, options)
	if len(ranked) == 0 {
		return ranked
	}

	min, max := ranked[0].SellAmount.Amount, ranked[0].SellAmount.Amount
	for _, o := range ranked[1:] {
		if o.SellAmount.Amount < min {
			min = o.SellAmount.Amount
		}
		if o.SellAmount.Amount > max {
			max = o.SellAmount.Amount
		}
	}

	for i := range ranked {
		var norm float64
		if max > min {
			norm = float64(ranked[i].SellAmount.Amount-min) / float64(max-min)
		}
		var penalty float64
		if ranked[i].Confidence != pricing.ConfidenceHigh {
			penalty = 1
		}
		ranked[i].RankScore = r.PriceWeight*norm + r.ConfidenceWeight*penalty
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].RankScore != ranked[j].RankScore {
			return ranked[i].RankScore < ranked[j].RankScore
		}
		if ranked[i].SellAmount.Amount != ranked[j].SellAmount.Amount {
			return ranked[i].SellAmount.Amount < ranked[j].SellAmount.Amount
		}
		return ranked[i].Carrier < ranked[j].Carrier
	})
	return ranked
}
