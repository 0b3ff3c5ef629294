package label

// Rect is a box in label coordinates (dots).
type Rect struct {
	X int
	Y int
	W int
	H int
}

// Right is the x coordinate just past the box.
func (r Rect) Right() int {
	return r.X + r.W
}

// TextAdvance estimates the horizontal extent of text rendered at a fixed pitch.
func TextAdvance(text string, pitch int) int {
	return len([]rune(text)) * pitch
}

// Beside places a w-by-h box after text rendered inside anchor, separated by
// gap, nudged vertically by dy. It keeps a live field next to the static
// value it annotates.
func Beside(anchor Rect, text string, pitch, gap, dy, w, h int) Rect {
	return Rect{
		X: anchor.X + TextAdvance(text, pitch) + gap,
		Y: anchor.Y + dy,
		W: w,
		H: h,
	}
}
