package measure

import (
	"math"

	"github.com/jcortez/swinglab/internal/domain/model"
)

// Pixel coordinates have y growing downward, so vertical deltas are negated
// wherever an angle is reported in the athlete's frame of reference.

// pathAngleDeg is the angle of the displacement (dx,dy) above horizontal,
// in degrees, positive upward.
func pathAngleDeg(dx, dy float64) float64 {
	return math.Atan2(-dy, dx) * 180 / math.Pi
}

// lineAngleDeg is the angle of the segment a->b against the horizontal, in
// degrees in (-90, 90].
func lineAngleDeg(a, b model.Keypoint) float64 {
	deg := math.Atan2(-(b.Y - a.Y), b.X-a.X) * 180 / math.Pi
	if deg > 90 {
		deg -= 180
	}
	if deg <= -90 {
		deg += 180
	}
	return deg
}

// angleBetweenDeg is the unsigned angle between two direction angles,
// folded into [0, 180].
func angleBetweenDeg(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360)
	if d > 180 {
		d = 360 - d
	}
	return d
}

func distancePx(a, b model.Keypoint) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

func midpoint(a, b model.Keypoint) (float64, float64) {
	return (a.X + b.X) / 2, (a.Y + b.Y) / 2
}
