package domain

import (
	"math"
	"strconv"
)

// Volume is a linear gain applied to the decoded stream, 1.0 being unchanged.
type Volume float64

const (
	MinVolume     Volume = 0.0
	MaxVolume     Volume = 2.0
	DefaultVolume Volume = 1.0

	// VolumeStep is the amount the volume controls move by.
	VolumeStep Volume = 0.1
)

// Clamp limits v to [MinVolume, MaxVolume]. NaN clamps to MinVolume.
func (v Volume) Clamp() Volume {
	if math.IsNaN(float64(v)) || v < MinVolume {
		return MinVolume
	}
	if v > MaxVolume {
		return MaxVolume
	}
	return v
}

// Step returns v moved by delta, clamped. The sum is rounded to hundredths
// so repeated steps land on exact tenths instead of accumulating float drift.
func (v Volume) Step(delta Volume) Volume {
	return Volume(math.Round(float64(v+delta)*100) / 100).Clamp()
}

// Percent returns the volume as a whole percentage.
func (v Volume) Percent() int {
	return int(math.Round(float64(v) * 100))
}

// String formats the volume as a percentage, e.g. "120%".
func (v Volume) String() string {
	return strconv.Itoa(v.Percent()) + "%"
}
