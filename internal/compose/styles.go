package compose

import "github.com/danmuck/inkctl/internal/label"

// Style maps are returned fresh on every call; callers may mutate them.

// DefaultTextStyle is the style of a plain text object.
func DefaultTextStyle() map[string]any {
	return map[string]any{
		"x": 0, "y": 23, "w": 777, "h": 110,
		"pivot_x": 0, "pivot_y": 0, "rotate": 0.0,
		"scale_x": 1.0, "scale_y": 1.0,
		"paint_style": "fill", "line_cap": "butt", "line_join": "miter",
		"line_width": 0, "miter_limit": 4,
		"font_style": "ttf-default-r*nnn*-378-378-UTF-8",
		"visiblity":  "visible",
	}
}

// FieldTextStyle is the OCR-B line style of product label fields placed at r.
func FieldTextStyle(r label.Rect) map[string]any {
	return map[string]any{
		"x": r.X, "y": r.Y, "w": r.W, "h": r.H,
		"font_style": "ttf-OCR_B-r*nnn*-40-40-UTF-8",
		"rotate":     0, "mirror": 0, "stretch": 0, "reverse": 0,
		"visiblity": "visible", "halign": 0, "valign": 0,
		"row_space": 1, "letter_space": 10, "fh_ratio": 0, "fw_ratio": 0,
		"pivot_x": 0, "pivot_y": 0, "scale_x": 1, "scale_y": 1,
		"paint_style": "fill", "line_cap": "butt", "line_join": "miter",
		"line_width": 0, "line_miter": 1, "letter_spacing": 0, "text_skewx": -0.25,
	}
}

// DataMatrixStyle is the GS1 Data Matrix symbol on the left of a product label.
func DataMatrixStyle() map[string]any {
	return map[string]any{
		"x": 10, "y": 0, "w": 294, "h": 294,
		"rotate": 0, "mirror": 0, "stretch": 0, "reverse": 0,
		"visiblity": "visible", "halign": 0, "valign": 0,
		"font_style":      "ttf-default-r*nnn*-80-80-UTF-8",
		"format":          "data_matrix",
		"human_readable":  "bottom",
		"bearer_bar_type": "none",
		"extras":          map[string]any{"dm_size": 0, "gs1_gs_separator": false},
		"data_type":       "unicode",
		"text_margin":     3, "x_dimension": 14, "bar_height": 180,
		"quiet_zone": 0, "bearer_bar_thickness": 0,
		"gs1_nocheck": false, "escape_seq": false,
		"pivot_x": 0, "pivot_y": 0, "scale_x": 1, "scale_y": 1,
		"paint_style": "fill", "line_cap": "butt", "line_join": "miter",
		"line_width": 0, "line_miter": 0, "dot": false,
		"gs1_ai_delimiter": "auto", "fast_encoding": false,
	}
}

// fieldLayout positions the human-readable lines to the right of the symbol.
var fieldLayout = map[string]label.Rect{
	label.FieldGTIN:  {X: 310, Y: 2, W: 311, H: 40},
	label.FieldMFG:   {X: 315, Y: 53, W: 414, H: 40},
	label.FieldEXP:   {X: 317, Y: 108, W: 414, H: 40},
	label.FieldBatch: {X: 315, Y: 161, W: 445, H: 40},
	label.FieldSN:    {X: 314, Y: 202, W: 752, H: 40},
}

// Placement of the live time stamp after the SN line.
const (
	fieldPitch    = 15
	serialGap     = 19
	serialDY      = 3
	serialDateW   = 207
	serialDateH   = 40
	productMargin = 60
)
