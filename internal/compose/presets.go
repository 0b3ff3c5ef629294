package compose

import (
	"errors"
	"fmt"
	"strings"

	"github.com/danmuck/inkctl/internal/command"
	"github.com/danmuck/inkctl/internal/label"
)

var ErrBarcodeMode = errors.New("compose: invalid barcode mode")

// BarcodeMode selects which sources feed the Data Matrix symbol.
type BarcodeMode string

const (
	// BarcodeSingle encodes the full GS1 string as one static text source.
	BarcodeSingle BarcodeMode = "single"
	// BarcodeMulti appends the live time stamp to the static GS1 string.
	BarcodeMulti BarcodeMode = "multi"
	// BarcodeDynamic splices prefix, serial, suffix and the live time stamp.
	BarcodeDynamic BarcodeMode = "dynamic"
)

// ParseBarcodeMode normalizes a mode name; "" selects BarcodeDynamic.
func ParseBarcodeMode(s string) (BarcodeMode, error) {
	switch mode := BarcodeMode(strings.ToLower(strings.TrimSpace(s))); mode {
	case "":
		return BarcodeDynamic, nil
	case BarcodeSingle, BarcodeMulti, BarcodeDynamic:
		return mode, nil
	}
	return "", fmt.Errorf("%w: %q (want single, multi or dynamic)", ErrBarcodeMode, s)
}

// Options tune the product label preset.
type Options struct {
	Barcode BarcodeMode
	// SNDate adds a live HHmmss field next to the SN line.
	SNDate bool
}

func DefaultOptions() Options {
	return Options{Barcode: BarcodeDynamic, SNDate: true}
}

// SerialDateName names the live time stamp object and its own source.
const SerialDateName = "SN-DATE"

func textContent(s string) map[string]any {
	return map[string]any{"content": s}
}

// TextLabel is one text source shown by one text object.
func TextLabel(name, content string) (*Plan, error) {
	p := NewPlan()
	src := p.AddSource(name, command.SourceText, textContent(content))
	obj, err := p.AddObject(name, command.ObjectText, DefaultTextStyle(), src)
	if err != nil {
		return nil, err
	}
	if err := p.SetMessage(name, nil, obj); err != nil {
		return nil, err
	}
	return p, nil
}

// ImageLabel shows an image previously uploaded under imageName at r.
func ImageLabel(name, imageName string, r label.Rect) (*Plan, error) {
	p := NewPlan()
	src := p.AddSource(name, command.SourceImage, command.ImageAttribute(imageName))
	style := DefaultTextStyle()
	style["x"], style["y"], style["w"], style["h"] = r.X, r.Y, r.W, r.H
	obj, err := p.AddObject(name, command.ObjectImage, style, src)
	if err != nil {
		return nil, err
	}
	if err := p.SetMessage(name, nil, obj); err != nil {
		return nil, err
	}
	return p, nil
}

// ProductLabel lays out a GS1 Data Matrix on the left and the GTIN, MFG,
// EXP, BATCH and SN lines on the right. The message lists the text lines,
// then the symbol, then the SN time stamp.
func ProductLabel(name string, fields label.ProductFields, opts Options) (*Plan, error) {
	mode, err := ParseBarcodeMode(string(opts.Barcode))
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: message has no name", ErrInvalidStep)
	}
	p := NewPlan()

	var lines []label.Field
	textSources := make(map[string]SourceHandle)
	for _, f := range label.FieldTexts(fields) {
		if _, ok := fieldLayout[f.Name]; !ok {
			continue
		}
		lines = append(lines, f)
		textSources[f.Name] = p.AddSource(f.Name, command.SourceText, textContent(f.Text))
	}

	dateAttr := label.SerialTimeFormat().Attribute()
	var symbol []SourceHandle
	var stamp SourceHandle
	hasStamp := false
	switch mode {
	case BarcodeSingle:
		symbol = append(symbol, p.AddSource(name+"_QRData", command.SourceText, textContent(gs1Serial(fields))))
	case BarcodeMulti:
		data := p.AddSource(name+"_QRData", command.SourceText, textContent(gs1Serial(fields)))
		stamp, hasStamp = p.AddSource(name+"_QRDate", command.SourceDate, dateAttr), true
		symbol = append(symbol, data, stamp)
	case BarcodeDynamic:
		prefix, suffix := label.GS1Parts(fields.GTIN, fields.EXP, fields.Batch)
		pre := p.AddSource(name+"_QRPrefix", command.SourceText, textContent(prefix))
		sn := p.AddSource(name+"_SN", command.SourceText, textContent(fields.SN))
		suf := p.AddSource(name+"_QRSuffix", command.SourceText, textContent(suffix))
		stamp, hasStamp = p.AddSource(name+"_QRDate", command.SourceDate, dateAttr), true
		symbol = append(symbol, pre, sn, suf, stamp)
	}
	if opts.SNDate && !hasStamp {
		stamp, hasStamp = p.AddSource(SerialDateName, command.SourceDate, dateAttr), true
	}

	order := make([]ObjectHandle, 0, len(lines)+2)
	var snText string
	for _, f := range lines {
		obj, err := p.AddObject(f.Name, command.ObjectText, FieldTextStyle(fieldLayout[f.Name]), textSources[f.Name])
		if err != nil {
			return nil, err
		}
		order = append(order, obj)
		if f.Name == label.FieldSN {
			snText = f.Text
		}
	}

	var stampObj *ObjectHandle
	if opts.SNDate && hasStamp {
		at := label.Beside(fieldLayout[label.FieldSN], snText, fieldPitch, serialGap, serialDY, serialDateW, serialDateH)
		obj, err := p.AddObject(SerialDateName, command.ObjectText, FieldTextStyle(at), stamp)
		if err != nil {
			return nil, err
		}
		stampObj = &obj
	}

	barcode, err := p.AddObject("Barcode", command.ObjectBarcode, DataMatrixStyle(), symbol...)
	if err != nil {
		return nil, err
	}
	order = append(order, barcode)
	if stampObj != nil {
		order = append(order, *stampObj)
	}

	prefs := command.UniformPrintPrefs(command.PrintPref{FFMargin: productMargin})
	if err := p.SetMessage(name, prefs, order...); err != nil {
		return nil, err
	}
	return p, nil
}

// gs1Serial is the full payload; an empty serial encodes as "0".
func gs1Serial(f label.ProductFields) string {
	sn := f.SN
	if sn == "" {
		sn = "0"
	}
	return label.GS1(f.GTIN, sn, f.EXP, f.Batch)
}
