// internal/booking/weight.go
package booking

// Tier is a member's account tier as stored on the member record.
type Tier string

const (
	TierPriority Tier = "priority"
	TierStandard Tier = "standard"
)

const (
	priorityBaseWeight = 2.0
	standardBaseWeight = 1.0
	// usageDecay dampens the weight of members who already completed
	// reservations since the last reset.
	usageDecay = 0.15
)

// Weight derives the lottery selection weight from tier and recent usage.
// It is non-increasing in usage and always higher for priority members than
// standard members at equal usage.
func Weight(tier Tier, usageCount int64) float64 {
	if usageCount < 0 {
		usageCount = 0
	}
	return baseWeight(tier) / (1.0 + float64(usageCount)*usageDecay)
}

func baseWeight(tier Tier) float64 {
	if tier == TierPriority {
		return priorityBaseWeight
	}
	return standardBaseWeight
}
