package command

import "github.com/danmuck/inkctl/internal/protocol"

// Source kinds.
const (
	SourceText     = "text"
	SourceImage    = "image"
	SourceDate     = "date"
	SourceCounter  = "counter"
	SourceSchedule = "schedule"
)

// Object kinds.
const (
	ObjectText    = "text"
	ObjectImage   = "image"
	ObjectBarcode = "barcode"
)

// PrintheadCount is the fixed length of a message's print_prefs.
const PrintheadCount = 4

func ValidSourceKind(kind string) bool {
	switch kind {
	case SourceText, SourceImage, SourceDate, SourceCounter, SourceSchedule:
		return true
	}
	return false
}

func ValidObjectKind(kind string) bool {
	switch kind {
	case ObjectText, ObjectImage, ObjectBarcode:
		return true
	}
	return false
}

// SourceSpec is the body of a source create or modify.
type SourceSpec struct {
	Type      string
	Name      string
	Attribute map[string]any
}

// TextAttribute is the attribute of a literal text source. exported=false
// keeps the content editable on the device.
func TextAttribute(content string, editable bool, limit int) map[string]any {
	attr := map[string]any{"content": content, "exported": !editable}
	if limit > 0 {
		attr["limit"] = limit
	}
	return attr
}

// ImageAttribute references an image previously uploaded with DownloadImage.
func ImageAttribute(imageName string) map[string]any {
	return map[string]any{"content": imageName}
}

// ObjectSpec is the body of an object create or modify.
type ObjectSpec struct {
	Type      string
	Name      string
	Style     map[string]any
	Attribute map[string]any
	Sources   []protocol.Ref
}

// PrintPref holds the margins of one printhead.
type PrintPref struct {
	FFMargin        float64 `json:"ff_margin"`
	FRMargin        float64 `json:"fr_margin"`
	BFMargin        float64 `json:"bf_margin"`
	BRMargin        float64 `json:"br_margin"`
	ContinuousPrint bool    `json:"continuous_print"`
}

// UniformPrintPrefs repeats p for every printhead.
func UniformPrintPrefs(p PrintPref) []PrintPref {
	out := make([]PrintPref, PrintheadCount)
	for i := range out {
		out[i] = p
	}
	return out
}

func DefaultPrintPrefs() []PrintPref {
	return UniformPrintPrefs(PrintPref{})
}

// MessageSpec is the body of a message create or modify.
type MessageSpec struct {
	Name    string
	Objects []protocol.Ref
	Prefs   []PrintPref
}

// Source is the device's record of a source.
type Source struct {
	ID        int            `json:"id"`
	Type      string         `json:"type"`
	Name      string         `json:"name"`
	Attribute map[string]any `json:"attribute"`
}

// Object is the device's record of an object.
type Object struct {
	ID         int            `json:"id"`
	Type       string         `json:"type"`
	Name       string         `json:"name"`
	Style      map[string]any `json:"style"`
	Attribute  map[string]any `json:"attribute"`
	SourceList []protocol.Ref `json:"source_list"`
}

// Spec returns the object as a full replacement body.
func (o Object) Spec() ObjectSpec {
	return ObjectSpec{
		Type:      o.Type,
		Name:      o.Name,
		Style:     o.Style,
		Attribute: o.Attribute,
		Sources:   append([]protocol.Ref(nil), o.SourceList...),
	}
}

// Message is the device's record of a message. With detail, ObjectList
// entries carry full objects; Objects holds them.
type Message struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Attribute struct {
		PrintDataPref struct {
			PrintPrefs []PrintPref `json:"print_prefs"`
		} `json:"printdata_pref"`
	} `json:"attribute"`
	ObjectList []protocol.Ref `json:"object_list"`
	Objects    []Object       `json:"-"`
}

func (m Message) PrintPrefs() []PrintPref {
	return m.Attribute.PrintDataPref.PrintPrefs
}

// Spec returns the message as a full replacement body.
func (m Message) Spec() MessageSpec {
	return MessageSpec{
		Name:    m.Name,
		Objects: append([]protocol.Ref(nil), m.ObjectList...),
		Prefs:   append([]PrintPref(nil), m.PrintPrefs()...),
	}
}

// MessageSummary is one entry of the message listing.
type MessageSummary struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func messageAttribute(prefs []PrintPref) map[string]any {
	return map[string]any{
		"printdata_pref": map[string]any{"print_prefs": prefs},
	}
}
