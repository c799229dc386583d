// Package ave estimates the advertising value equivalency of a clipping.
package ave

import (
	"math"

	"github.com/AImitSK/skamp-monitoring/internal/domain"
)

// CPM rates in currency units per thousand reach.
const (
	cpmPrint     = 35
	cpmBroadcast = 25
	cpmOnline    = 15
	cpmBlog      = 10
)

// Sentiment multipliers.
const (
	multiplierPositive = 3.0
	multiplierNeutral  = 1.5
	multiplierNegative = 0.5
)

// readershipMultiplier converts print circulation to estimated reach.
const readershipMultiplier = 10

const perThousand = 1000

// Calculate returns the AVE for a clipping with known reach. The second
// return value is false when reach is not positive, in which case no
// value must be stored. Unknown outlet types are priced as online and a
// missing sentiment counts as neutral.
func Calculate(reach int, sentiment domain.Sentiment, outlet domain.OutletType) (int, bool) {
	if reach <= 0 {
		return 0, false
	}

	value := float64(reach) / perThousand * baseCPM(outlet) * sentimentMultiplier(sentiment)
	return int(math.Round(value)), true
}

// ReachOrCirculation resolves the reach figure used for AVE: direct reach
// when known, otherwise circulation times the industry readership
// multiplier. Returns false when neither is known.
func ReachOrCirculation(reach, circulation int) (int, bool) {
	if reach > 0 {
		return reach, true
	}

	if circulation > 0 {
		return circulation * readershipMultiplier, true
	}

	return 0, false
}

func baseCPM(outlet domain.OutletType) float64 {
	switch outlet {
	case domain.OutletTypePrint:
		return cpmPrint
	case domain.OutletTypeBroadcast:
		return cpmBroadcast
	case domain.OutletTypeBlog:
		return cpmBlog
	case domain.OutletTypeOnline:
		return cpmOnline
	default:
		return cpmOnline
	}
}

func sentimentMultiplier(sentiment domain.Sentiment) float64 {
	switch sentiment {
	case domain.SentimentPositive:
		return multiplierPositive
	case domain.SentimentNegative:
		return multiplierNegative
	case domain.SentimentNeutral:
		return multiplierNeutral
	default:
		return multiplierNeutral
	}
}
