package compose

import (
	"errors"
	"fmt"
	"strings"

	"github.com/danmuck/inkctl/internal/command"
)

var (
	ErrForeignHandle = errors.New("compose: handle belongs to another plan")
	ErrEmptyPlan     = errors.New("compose: plan is incomplete")
	ErrMessageSet    = errors.New("compose: message already set")
	ErrInvalidStep   = errors.New("compose: invalid step")
)

// SourceHandle refers to a source declared in a plan.
type SourceHandle struct {
	plan  *Plan
	index int
}

// ObjectHandle refers to an object declared in a plan.
type ObjectHandle struct {
	plan  *Plan
	index int
}

type sourceStep struct {
	name      string
	kind      string
	attribute map[string]any
}

type objectStep struct {
	name      string
	kind      string
	style     map[string]any
	attribute map[string]any
	sources   []int
}

type messageStep struct {
	name    string
	prefs   []command.PrintPref
	objects []int
}

// Plan is an ordered declaration of one label.
type Plan struct {
	sources []sourceStep
	objects []objectStep
	message *messageStep
}

func NewPlan() *Plan {
	return &Plan{}
}

// AddSource declares a source. Sources are created in declaration order.
func (p *Plan) AddSource(name, kind string, attribute map[string]any) SourceHandle {
	p.sources = append(p.sources, sourceStep{name: name, kind: kind, attribute: attribute})
	return SourceHandle{plan: p, index: len(p.sources) - 1}
}

// AddObject declares an object over sources already in this plan. Its
// rendered value is the concatenation of the sources in the given order.
func (p *Plan) AddObject(name, kind string, style map[string]any, sources ...SourceHandle) (ObjectHandle, error) {
	if !command.ValidObjectKind(kind) {
		return ObjectHandle{}, fmt.Errorf("%w: object %q kind %q", ErrInvalidStep, name, kind)
	}
	if len(sources) == 0 {
		return ObjectHandle{}, fmt.Errorf("%w: object %q has no sources", ErrInvalidStep, name)
	}
	idx := make([]int, 0, len(sources))
	for _, h := range sources {
		if h.plan != p {
			return ObjectHandle{}, fmt.Errorf("%w: object %q", ErrForeignHandle, name)
		}
		idx = append(idx, h.index)
	}
	p.objects = append(p.objects, objectStep{
		name:      name,
		kind:      kind,
		style:     style,
		attribute: map[string]any{},
		sources:   idx,
	})
	return ObjectHandle{plan: p, index: len(p.objects) - 1}, nil
}

// SetMessage declares the message; objects are listed in display order,
// which need not match creation order. Nil prefs use the default margins.
func (p *Plan) SetMessage(name string, prefs []command.PrintPref, objects ...ObjectHandle) error {
	if p.message != nil {
		return ErrMessageSet
	}
	if len(objects) == 0 {
		return fmt.Errorf("%w: message %q has no objects", ErrInvalidStep, name)
	}
	if prefs == nil {
		prefs = command.DefaultPrintPrefs()
	}
	if len(prefs) != command.PrintheadCount {
		return fmt.Errorf("%w: message %q needs %d print prefs, got %d", ErrInvalidStep, name, command.PrintheadCount, len(prefs))
	}
	idx := make([]int, 0, len(objects))
	for _, h := range objects {
		if h.plan != p {
			return fmt.Errorf("%w: message %q", ErrForeignHandle, name)
		}
		idx = append(idx, h.index)
	}
	p.message = &messageStep{name: name, prefs: prefs, objects: idx}
	return nil
}

// MessageName is the declared message name, or "" before SetMessage.
func (p *Plan) MessageName() string {
	if p.message == nil {
		return ""
	}
	return p.message.name
}

// Counts reports how many sources and objects the plan declares.
func (p *Plan) Counts() (sources, objects int) {
	return len(p.sources), len(p.objects)
}

// Validate checks the plan can be executed without sending anything.
func (p *Plan) Validate() error {
	if p.message == nil {
		return fmt.Errorf("%w: no message", ErrEmptyPlan)
	}
	if strings.TrimSpace(p.message.name) == "" {
		return fmt.Errorf("%w: message has no name", ErrInvalidStep)
	}
	for _, s := range p.sources {
		if strings.TrimSpace(s.name) == "" {
			return fmt.Errorf("%w: source has no name", ErrInvalidStep)
		}
		if !command.ValidSourceKind(s.kind) {
			return fmt.Errorf("%w: source %q kind %q", ErrInvalidStep, s.name, s.kind)
		}
		if s.attribute == nil {
			return fmt.Errorf("%w: source %q has no attribute", ErrInvalidStep, s.name)
		}
	}
	for _, o := range p.objects {
		if strings.TrimSpace(o.name) == "" {
			return fmt.Errorf("%w: object has no name", ErrInvalidStep)
		}
		if o.style == nil {
			return fmt.Errorf("%w: object %q has no style", ErrInvalidStep, o.name)
		}
	}
	return nil
}
