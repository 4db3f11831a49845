package aggregate

import (
	"sort"
	"strings"

	"rideprice/internal/fare"
)

// tierKey identifies a provider-specific service key.
type tierKey struct {
	Provider fare.Provider
	Service  string
}

// aliasMap maps provider service keys to a canonical ride tier.
//
//	Tapsi STANDARD -> standard, WAIT_AND_SAVE -> economy, PLUS -> plus
//	Snapp 1 -> standard, 2 -> plus
var aliasMap = map[tierKey]string{
	{fare.Tapsi, "standard"}:      "standard",
	{fare.Tapsi, "wait_and_save"}: "economy",
	{fare.Tapsi, "plus"}:          "plus",
	{fare.Snapp, "1"}:             "standard",
	{fare.Snapp, "2"}:             "plus",
}

// Tier returns the canonical tier of a service. Unknown keys fall back to the
// lower-cased key.
func Tier(p fare.Provider, serviceKey string) string {
	k := strings.ToLower(strings.TrimSpace(serviceKey))
	if t, ok := aliasMap[tierKey{p, k}]; ok {
		return t
	}
	return k
}

// Best is the cheapest record found for a tier.
type Best struct {
	Tier   string      `json:"tier"`
	Record fare.Record `json:"record"`
}

// Cheapest keeps the lowest priced record per tier across providers.
// Records without a price are skipped. For equal prices, later input wins.
// Output is sorted by tier, then provider.
func Cheapest(records []fare.Record) []Best {
	best := make(map[string]fare.Record, len(records))
	for _, r := range records {
		if !r.HasPrice() {
			continue
		}
		tier := Tier(r.Provider, r.ServiceKey)
		if cur, ok := best[tier]; ok && cur.PriceValue() < r.PriceValue() {
			continue
		}
		best[tier] = r
	}

	out := make([]Best, 0, len(best))
	for tier, r := range best {
		out = append(out, Best{Tier: tier, Record: r})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Tier != out[j].Tier {
			return out[i].Tier < out[j].Tier
		}
		return out[i].Record.Provider < out[j].Record.Provider
	})
	return out
}
