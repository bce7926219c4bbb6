package fulfillment

import (
	"strings"
	"time"
)

type Tier struct {
	Name string
	Days int
}

const (
	TierFast     = "fast"
	TierStandard = "standard"
)

// ETAResolver maps a destination postal code to a delivery tier.
type ETAResolver struct {
	fast         map[string]struct{}
	fastDays     int
	standardDays int
}

func NewETAResolver(fastPostalCodes []string, fastDays, standardDays int) *ETAResolver {
	fast := make(map[string]struct{}, len(fastPostalCodes))
	for _, code := range fastPostalCodes {
		code = strings.TrimSpace(code)
		if code != "" {
			fast[code] = struct{}{}
		}
	}
	return &ETAResolver{fast: fast, fastDays: fastDays, standardDays: standardDays}
}

func (r *ETAResolver) TierFor(postalCode string) Tier {
	if _, ok := r.fast[strings.TrimSpace(postalCode)]; ok {
		return Tier{Name: TierFast, Days: r.fastDays}
	}
	return Tier{Name: TierStandard, Days: r.standardDays}
}

// ExpectedDelivery is from plus the tier length.
func ExpectedDelivery(from time.Time, tier Tier, dayLength time.Duration) time.Time {
	return from.Add(time.Duration(tier.Days) * dayLength)
}
