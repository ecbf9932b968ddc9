package timing

import (
	"fmt"
	"time"
)

// FeatureContract fixes the layout of the predictor input vector. One contract
// is chosen per deployment and must match the model artifact.
type FeatureContract string

const (
	// FeaturesCount is [vehicle_count].
	FeaturesCount FeatureContract = "count"
	// FeaturesCountHourWeekday is [vehicle_count, hour, weekday] with Monday = 0.
	FeaturesCountHourWeekday FeatureContract = "count_hour_weekday"
)

// ParseFeatureContract validates a contract name.
func ParseFeatureContract(s string) (FeatureContract, error) {
	switch FeatureContract(s) {
	case FeaturesCount, FeaturesCountHourWeekday:
		return FeatureContract(s), nil
	default:
		return "", fmt.Errorf("unknown feature contract %q", s)
	}
}

// Size returns the length of the feature vector.
func (c FeatureContract) Size() int {
	if c == FeaturesCountHourWeekday {
		return 3
	}
	return 1
}

// Build assembles the feature vector for count vehicles observed at now.
func (c FeatureContract) Build(count int, now time.Time) []float32 {
	if c == FeaturesCountHourWeekday {
		weekday := (int(now.Weekday()) + 6) % 7
		return []float32{float32(count), float32(now.Hour()), float32(weekday)}
	}
	return []float32{float32(count)}
}
