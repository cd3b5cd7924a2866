package reward

import (
	"math"
	"strings"
)

// DefaultLabels is the prize order printed on the wheel, clockwise from the pointer.
var DefaultLabels = []string{
	"+5 Coins",
	"+10 Coins",
	"+15 Coins",
	"+20 Coins",
	"+30 Coins",
	"+50 Coins",
	"Mystery Box",
	"Extra Spin",
}

// Minimum and maximum (exclusive) whole turns before the wheel settles.
const (
	minFullRotations = 5
	maxFullRotations = 8
)

// Wheel is the fixed, ordered list of displayed prize labels.
type Wheel struct {
	labels []string
}

// NewWheel returns a wheel with labels, or DefaultLabels when labels is empty.
func NewWheel(labels []string) *Wheel {
	if len(labels) == 0 {
		labels = DefaultLabels
	}
	return &Wheel{labels: append([]string(nil), labels...)}
}

// Labels returns a copy of the wheel's labels.
func (w *Wheel) Labels() []string {
	return append([]string(nil), w.labels...)
}

// Len returns the number of segments.
func (w *Wheel) Len() int {
	return len(w.labels)
}

// SegmentAngle returns the width of one segment in degrees.
func (w *Wheel) SegmentAngle() float64 {
	return 360 / float64(len(w.labels))
}

// TargetRotation is the clockwise rotation, in degrees, that stops the
// pointer in the middle of segment index after fullRotations whole turns.
func (w *Wheel) TargetRotation(index, fullRotations int) float64 {
	seg := w.SegmentAngle()
	return float64(fullRotations)*360 + (360 - float64(index)*seg) - seg/2
}

// SegmentAt returns the segment under the pointer after rotating by angle degrees.
func (w *Wheel) SegmentAt(angle float64) int {
	a := math.Mod(angle, 360)
	if a < 0 {
		a += 360
	}
	pos := math.Mod(360-a, 360)
	i := int(pos / w.SegmentAngle())
	if i >= len(w.labels) {
		i = len(w.labels) - 1
	}
	return i
}

// IndexOf returns the segment showing label. Matching ignores case and
// surrounding whitespace.
func (w *Wheel) IndexOf(label string) (int, bool) {
	for i, l := range w.labels {
		if l == label {
			return i, true
		}
	}
	label = strings.TrimSpace(label)
	for i, l := range w.labels {
		if strings.EqualFold(strings.TrimSpace(l), label) {
			return i, true
		}
	}
	return -1, false
}
