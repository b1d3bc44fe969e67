package vod

// DefaultStride is the distance in seconds between two fetch windows.
const DefaultStride = 300

// PlanWindows returns the window offsets 0, stride, 2*stride, ... that are
// strictly below duration. A non-positive stride falls back to DefaultStride.
func PlanWindows(duration, stride int) []int {
	if stride <= 0 {
		stride = DefaultStride
	}
	if duration <= 0 {
		return nil
	}
	out := make([]int, 0, (duration+stride-1)/stride)
	for off := 0; off < duration; off += stride {
		out = append(out, off)
	}
	return out
}
