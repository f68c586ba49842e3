// Package grade contains the pure business logic for customer tiers.
//
// A customer's grade is a deterministic function of the total amount of
// that customer's delivered orders and four externally configured
// ascending thresholds. No I/O here; persistence and reporting live in
// the recalculator.
package grade

// Tier is a customer grade tier.
type Tier string

const (
	TierBasic  Tier = "basic"
	TierBronze Tier = "bronze"
	TierSilver Tier = "silver"
	TierGold   Tier = "gold"
	TierVIP    Tier = "vip"
)

// tierRanks orders tiers from default upward. Rank comparisons decide
// whether a change is an upgrade.
var tierRanks = map[Tier]int{
	TierBasic:  0,
	TierBronze: 1,
	TierSilver: 2,
	TierGold:   3,
	TierVIP:    4,
}

// Rank returns the tier's rank. A never-computed grade (empty string)
// ranks as basic, so the first recomputation of a fresh customer is not
// reported as an upgrade. Garbage values rank below basic and any
// recomputed grade counts as an upgrade from them.
func Rank(t Tier) int {
	if t == "" {
		return tierRanks[TierBasic]
	}
	if r, ok := tierRanks[t]; ok {
		return r
	}
	return -1
}

// Thresholds are the four ascending amounts that gate each tier above
// basic. Thresholds[0] gates bronze, Thresholds[3] gates vip.
type Thresholds [4]int64

// Compute returns the tier for a delivered-order total.
//
// Deterministic: same total and thresholds always yield the same tier.
// A total exactly at a threshold reaches that tier.
func Compute(total float64, th Thresholds) Tier {
	switch {
	case total >= float64(th[3]):
		return TierVIP
	case total >= float64(th[2]):
		return TierGold
	case total >= float64(th[1]):
		return TierSilver
	case total >= float64(th[0]):
		return TierBronze
	default:
		return TierBasic
	}
}

// IsUpgrade reports whether moving from old to new is a strict rank
// increase. Downgrades and lateral moves are not upgrades.
func IsUpgrade(old, new Tier) bool {
	return Rank(new) > Rank(old)
}
