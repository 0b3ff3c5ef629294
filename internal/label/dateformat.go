package label

import "strings"

// Radix names the digit alphabet a dynamic field is rendered in.
type Radix struct {
	Name   string
	Digits string
}

var DecimalRadix = Radix{Name: "dec", Digits: "0123456789"}

// FormatItem is one token of a date format, e.g. {date HH}.
type FormatItem struct {
	Type    string
	Content string
}

// DateFormat describes how the printer synthesizes a date source at print
// time. A source built from it has no literal content.
type DateFormat struct {
	Name          string
	Radix         Radix
	Locale        string
	Items         []FormatItem
	Expiry        int
	ExpiryUnit    string
	Zero          int
	LeadingZero   string
	Calendar      string
	DaylightSave  string
	Page          int
	BestDate      bool
	BestDateMonth int
	BestDateType  string
	LoseDays      int
}

// ClockFormat builds a format from clock tokens such as "HH", "mm", "ss".
// The format name is the tokens joined.
func ClockFormat(tokens ...string) DateFormat {
	items := make([]FormatItem, 0, len(tokens))
	for _, tok := range tokens {
		items = append(items, FormatItem{Type: "date", Content: tok})
	}
	return DateFormat{
		Name:         strings.Join(tokens, ""),
		Radix:        DecimalRadix,
		Locale:       "default",
		Items:        items,
		ExpiryUnit:   "year",
		LeadingZero:  "leading_zeros",
		Calendar:     "gregorian",
		DaylightSave: "off",
		BestDateType: "last_day",
	}
}

// SerialTimeFormat is the HHmmss stamp used beside serial numbers.
func SerialTimeFormat() DateFormat {
	return ClockFormat("HH", "mm", "ss")
}

// Attribute renders the format as the attribute of a date source.
func (f DateFormat) Attribute() map[string]any {
	items := make([]any, 0, len(f.Items))
	for _, it := range f.Items {
		items = append(items, map[string]any{"type": it.Type, "content": it.Content})
	}
	return map[string]any{
		"format": map[string]any{
			"name":   f.Name,
			"radix":  map[string]any{"name": f.Radix.Name, "radix_digits": f.Radix.Digits},
			"locale": f.Locale,
			"items":  items,
		},
		"expiry":               f.Expiry,
		"zero":                 f.Zero,
		"expiry_unit":          f.ExpiryUnit,
		"leading_zero":         f.LeadingZero,
		"calendar":             f.Calendar,
		"daylight_saving_time": f.DaylightSave,
		"page":                 f.Page,
		"best_date":            f.BestDate,
		"best_date_month":      f.BestDateMonth,
		"best_date_type":       f.BestDateType,
		"lose_days":            f.LoseDays,
	}
}
