// Package config loads label design documents.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/danmuck/inkctl/internal/command"
	"github.com/danmuck/inkctl/internal/compose"
	"github.com/danmuck/inkctl/internal/label"
	"github.com/pelletier/go-toml/v2"
)

var ErrInvalidDesign = errors.New("invalid design")

// Design kinds.
const (
	KindText    = "text"
	KindImage   = "image"
	KindProduct = "product"
	KindCustom  = "custom"
)

// Design is one label document. Kind picks which of the sections is read.
type Design struct {
	Name    string         `toml:"name"`
	Kind    string         `toml:"kind"`
	Text    TextDesign     `toml:"text"`
	Image   ImageDesign    `toml:"image"`
	Product ProductDesign  `toml:"product"`
	Sources []SourceDesign `toml:"sources"`
	Objects []ObjectDesign `toml:"objects"`
	Message MessageDesign  `toml:"message"`
}

type TextDesign struct {
	Content string `toml:"content"`
}

type ImageDesign struct {
	Image string `toml:"image"`
	Box   Box    `toml:"box"`
}

type ProductDesign struct {
	GTIN    string `toml:"gtin"`
	MFG     string `toml:"mfg"`
	EXP     string `toml:"exp"`
	Batch   string `toml:"batch"`
	SN      string `toml:"sn"`
	TMDAReg string `toml:"tmda_reg"`
	Barcode string `toml:"barcode"`
	SNDate  *bool  `toml:"sn_date"`
}

// SourceDesign declares a source of a custom design. Text sources take
// Content, date sources take DateFormat tokens; Attribute overrides both.
type SourceDesign struct {
	Name       string         `toml:"name"`
	Type       string         `toml:"type"`
	Content    string         `toml:"content"`
	DateFormat []string       `toml:"date_format"`
	Attribute  map[string]any `toml:"attribute"`
}

// ObjectDesign declares an object over named sources. Style keys are laid
// over the default text style.
type ObjectDesign struct {
	Name    string         `toml:"name"`
	Type    string         `toml:"type"`
	Sources []string       `toml:"sources"`
	Box     *Box           `toml:"box"`
	Style   map[string]any `toml:"style"`
}

// MessageDesign lists objects in display order.
type MessageDesign struct {
	Objects  []string `toml:"objects"`
	FFMargin float64  `toml:"ff_margin"`
}

type Box struct {
	X int `toml:"x"`
	Y int `toml:"y"`
	W int `toml:"w"`
	H int `toml:"h"`
}

func (b Box) Rect() label.Rect {
	return label.Rect{X: b.X, Y: b.Y, W: b.W, H: b.H}
}

func LoadDesign(path string) (Design, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Design{}, fmt.Errorf("design load failed (%s): %w", path, err)
	}
	d, err := ParseDesign(data)
	if err != nil {
		return Design{}, fmt.Errorf("design %s: %w", path, err)
	}
	return d, nil
}

func ParseDesign(data []byte) (Design, error) {
	var d Design
	if err := toml.Unmarshal(data, &d); err != nil {
		return Design{}, fmt.Errorf("design parse failed: %w", err)
	}
	d.Kind = strings.ToLower(strings.TrimSpace(d.Kind))
	if d.Kind == "" {
		d.Kind = KindCustom
	}
	if err := ValidateDesign(d); err != nil {
		return Design{}, err
	}
	return d, nil
}

func ValidateDesign(d Design) error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidDesign)
	}
	switch d.Kind {
	case KindText:
		if d.Text.Content == "" {
			return fmt.Errorf("%w: text.content is required", ErrInvalidDesign)
		}
	case KindImage:
		if strings.TrimSpace(d.Image.Image) == "" {
			return fmt.Errorf("%w: image.image is required", ErrInvalidDesign)
		}
	case KindProduct:
		p := d.Product
		if p.GTIN == "" || p.EXP == "" || p.Batch == "" {
			return fmt.Errorf("%w: product gtin, exp, and batch are required", ErrInvalidDesign)
		}
		if _, err := compose.ParseBarcodeMode(p.Barcode); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidDesign, err)
		}
	case KindCustom:
		return validateCustom(d)
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidDesign, d.Kind)
	}
	return nil
}

func validateCustom(d Design) error {
	sources := make(map[string]bool, len(d.Sources))
	for i, s := range d.Sources {
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("%w: sources[%d] missing name", ErrInvalidDesign, i)
		}
		if sources[s.Name] {
			return fmt.Errorf("%w: duplicate source %q", ErrInvalidDesign, s.Name)
		}
		if !command.ValidSourceKind(s.Type) {
			return fmt.Errorf("%w: source %q type %q", ErrInvalidDesign, s.Name, s.Type)
		}
		sources[s.Name] = true
	}
	objects := make(map[string]bool, len(d.Objects))
	for i, o := range d.Objects {
		if strings.TrimSpace(o.Name) == "" {
			return fmt.Errorf("%w: objects[%d] missing name", ErrInvalidDesign, i)
		}
		if objects[o.Name] {
			return fmt.Errorf("%w: duplicate object %q", ErrInvalidDesign, o.Name)
		}
		if len(o.Sources) == 0 {
			return fmt.Errorf("%w: object %q has no sources", ErrInvalidDesign, o.Name)
		}
		for _, ref := range o.Sources {
			if !sources[ref] {
				return fmt.Errorf("%w: object %q references unknown source %q", ErrInvalidDesign, o.Name, ref)
			}
		}
		objects[o.Name] = true
	}
	if len(d.Message.Objects) == 0 {
		return fmt.Errorf("%w: message.objects is required", ErrInvalidDesign)
	}
	for _, ref := range d.Message.Objects {
		if !objects[ref] {
			return fmt.Errorf("%w: message references unknown object %q", ErrInvalidDesign, ref)
		}
	}
	return nil
}

// Plan turns the design into a compose plan.
func (d Design) Plan() (*compose.Plan, error) {
	switch d.Kind {
	case KindText:
		return compose.TextLabel(d.Name, d.Text.Content)
	case KindImage:
		return compose.ImageLabel(d.Name, d.Image.Image, d.Image.Box.Rect())
	case KindProduct:
		return compose.ProductLabel(d.Name, d.Product.Fields(), d.Product.Options())
	case KindCustom:
		return d.customPlan()
	}
	return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidDesign, d.Kind)
}

func (p ProductDesign) Fields() label.ProductFields {
	return label.ProductFields{
		GTIN:    p.GTIN,
		MFG:     p.MFG,
		EXP:     p.EXP,
		Batch:   p.Batch,
		SN:      p.SN,
		TMDAReg: p.TMDAReg,
	}
}

// Options maps the document onto preset options; sn_date defaults to true.
func (p ProductDesign) Options() compose.Options {
	opts := compose.DefaultOptions()
	if mode, err := compose.ParseBarcodeMode(p.Barcode); err == nil {
		opts.Barcode = mode
	}
	if p.SNDate != nil {
		opts.SNDate = *p.SNDate
	}
	return opts
}

func (d Design) customPlan() (*compose.Plan, error) {
	plan := compose.NewPlan()
	sources := make(map[string]compose.SourceHandle, len(d.Sources))
	for _, s := range d.Sources {
		sources[s.Name] = plan.AddSource(s.Name, s.Type, s.attribute())
	}
	objects := make(map[string]compose.ObjectHandle, len(d.Objects))
	for _, o := range d.Objects {
		refs := make([]compose.SourceHandle, 0, len(o.Sources))
		for _, name := range o.Sources {
			refs = append(refs, sources[name])
		}
		kind := o.Type
		if kind == "" {
			kind = command.ObjectText
		}
		h, err := plan.AddObject(o.Name, kind, o.style(), refs...)
		if err != nil {
			return nil, err
		}
		objects[o.Name] = h
	}
	order := make([]compose.ObjectHandle, 0, len(d.Message.Objects))
	for _, name := range d.Message.Objects {
		order = append(order, objects[name])
	}
	prefs := command.UniformPrintPrefs(command.PrintPref{FFMargin: d.Message.FFMargin})
	if err := plan.SetMessage(d.Name, prefs, order...); err != nil {
		return nil, err
	}
	return plan, nil
}

func (s SourceDesign) attribute() map[string]any {
	if s.Attribute != nil {
		return s.Attribute
	}
	switch s.Type {
	case command.SourceDate:
		tokens := s.DateFormat
		if len(tokens) == 0 {
			return label.SerialTimeFormat().Attribute()
		}
		return label.ClockFormat(tokens...).Attribute()
	case command.SourceImage:
		return command.ImageAttribute(s.Content)
	}
	return map[string]any{"content": s.Content}
}

func (o ObjectDesign) style() map[string]any {
	style := compose.DefaultTextStyle()
	if o.Box != nil {
		style["x"], style["y"], style["w"], style["h"] = o.Box.X, o.Box.Y, o.Box.W, o.Box.H
	}
	for k, v := range o.Style {
		style[k] = v
	}
	return style
}
