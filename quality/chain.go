package quality

import "github.com/tubelink/tubelink/source"

// Chain is the ordered list of candidates probed for a tier.
type Chain []Candidate

const (
	p = source.Primary
	a = source.Alternate
)

// Chains is the fallback table. Each chain descends strictly in tier, probes the
// primary variant of a tier before its alternate, and ends at Baseline.
var Chains = map[Tier]Chain{
	Tier1080: {{Tier1080, p}, {Tier1080, a}, {Tier720, p}, {Tier720, a}, {Tier480, p}, {Tier480, a}, {Tier360, p}, {Tier360, a}, {Tier240, p}, {Tier240, a}, {Tier144, p}, {Tier144, a}},
	Tier720:  {{Tier720, p}, {Tier720, a}, {Tier480, p}, {Tier480, a}, {Tier360, p}, {Tier360, a}, {Tier240, p}, {Tier240, a}, {Tier144, p}, {Tier144, a}},
	Tier480:  {{Tier480, p}, {Tier480, a}, {Tier360, p}, {Tier360, a}, {Tier240, p}, {Tier240, a}, {Tier144, p}, {Tier144, a}},
	Tier360:  {{Tier360, p}, {Tier360, a}, {Tier240, p}, {Tier240, a}, {Tier144, p}, {Tier144, a}},
	Tier240:  {{Tier240, p}, {Tier240, a}, {Tier144, p}, {Tier144, a}},
	Tier144:  {{Tier144, p}, {Tier144, a}},
}

// ChainFor returns the chain of a tier, resolving Default first.
func ChainFor(t Tier) (Chain, bool) {
	c, ok := Chains[t.Resolve()]
	return c, ok
}
