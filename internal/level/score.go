package level

import (
	"time"

	"github.com/tomz197/clicktest/internal/loop/config"
)

// Score converts the time left on a won level into points:
// ceil(PointsPerLevel * remaining / total). Nothing left scores 0 and the
// result never exceeds PointsPerLevel.
func Score(remaining, total time.Duration) int {
	if remaining <= 0 || total <= 0 {
		return 0
	}
	if remaining >= total {
		return config.PointsPerLevel
	}
	// Integer ceiling division keeps exact tenths exact.
	num := int64(config.PointsPerLevel) * int64(remaining)
	return int((num + int64(total) - 1) / int64(total))
}
