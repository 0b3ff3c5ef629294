package compose

import (
	"context"
	"fmt"

	"github.com/danmuck/inkctl/internal/command"
	"github.com/danmuck/inkctl/internal/observability"
	"github.com/danmuck/inkctl/internal/protocol"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Stage is the hierarchy level a step belongs to.
type Stage string

const (
	StageSource  Stage = "source"
	StageObject  Stage = "object"
	StageMessage Stage = "message"
)

// Artifact is one entity the device created during a run.
type Artifact struct {
	Name string
	Ref  protocol.Ref
}

// StepError reports the first failed step and what already exists on the
// device at that point.
type StepError struct {
	Stage   Stage
	Name    string
	Err     error
	Created []Artifact
}

func (e *StepError) Error() string {
	return fmt.Sprintf("compose: %s %q failed with %d created: %v", e.Stage, e.Name, len(e.Created), e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Report is the outcome of one run.
type Report struct {
	RunID     uuid.UUID
	Message   string
	Sources   []Artifact
	Objects   []Artifact
	MessageID int
	Failed    *StepError
}

// Created lists every artifact of the run in creation order.
func (r Report) Created() []Artifact {
	out := make([]Artifact, 0, len(r.Sources)+len(r.Objects)+1)
	out = append(out, r.Sources...)
	out = append(out, r.Objects...)
	if r.MessageID > 0 {
		out = append(out, Artifact{Name: r.Message, Ref: protocol.Ref{ID: r.MessageID}})
	}
	return out
}

// Composer executes plans against one device.
type Composer struct {
	client *command.Client
}

func New(client *command.Client) *Composer {
	return &Composer{client: client}
}

// Run creates the plan's sources, then objects, then the message. The first
// failure halts the run; the returned error is the report's *StepError.
func (c *Composer) Run(ctx context.Context, plan *Plan) (Report, error) {
	report := Report{RunID: uuid.New(), Message: plan.MessageName()}
	if err := plan.Validate(); err != nil {
		return report, err
	}
	log.Info().Msgf("compose.Composer.Run run=%s message=%q sources=%d objects=%d",
		report.RunID, report.Message, len(plan.sources), len(plan.objects))

	sourceRefs := make([]protocol.Ref, len(plan.sources))
	for i, step := range plan.sources {
		id, err := created(c.client.AddSource(ctx, command.SourceSpec{
			Type:      step.kind,
			Name:      step.name,
			Attribute: step.attribute,
		}))
		if err != nil {
			return c.fail(report, StageSource, step.name, err)
		}
		sourceRefs[i] = protocol.Ref{ID: id, Type: step.kind}
		report.Sources = append(report.Sources, Artifact{Name: step.name, Ref: sourceRefs[i]})
		log.Debug().Msgf("compose.Composer.Run run=%s source=%q id=%d", report.RunID, step.name, id)
	}

	objectRefs := make([]protocol.Ref, len(plan.objects))
	for i, step := range plan.objects {
		refs := make([]protocol.Ref, len(step.sources))
		for j, s := range step.sources {
			refs[j] = sourceRefs[s]
		}
		id, err := created(c.client.AddObject(ctx, command.ObjectSpec{
			Type:      step.kind,
			Name:      step.name,
			Style:     step.style,
			Attribute: step.attribute,
			Sources:   refs,
		}))
		if err != nil {
			return c.fail(report, StageObject, step.name, err)
		}
		objectRefs[i] = protocol.Ref{ID: id, Type: step.kind}
		report.Objects = append(report.Objects, Artifact{Name: step.name, Ref: objectRefs[i]})
		log.Debug().Msgf("compose.Composer.Run run=%s object=%q id=%d", report.RunID, step.name, id)
	}

	msg := plan.message
	refs := make([]protocol.Ref, len(msg.objects))
	for i, o := range msg.objects {
		refs[i] = objectRefs[o]
	}
	id, err := created(c.client.NewMessage(ctx, command.MessageSpec{
		Name:    msg.name,
		Objects: refs,
		Prefs:   msg.prefs,
	}))
	if err != nil {
		return c.fail(report, StageMessage, msg.name, err)
	}
	report.MessageID = id
	observability.RecordComposeRun(true, "")
	log.Info().Msgf("compose.Composer.Run run=%s message=%q id=%d", report.RunID, msg.name, id)
	return report, nil
}

func (c *Composer) fail(report Report, stage Stage, name string, err error) (Report, error) {
	report.Failed = &StepError{
		Stage:   stage,
		Name:    name,
		Err:     err,
		Created: report.Created(),
	}
	observability.RecordComposeRun(false, string(stage))
	log.Error().Err(err).Msgf("compose.Composer.Run run=%s stage=%s name=%q created=%d",
		report.RunID, stage, name, len(report.Failed.Created))
	return report, report.Failed
}

func created(resp protocol.Response, err error) (int, error) {
	if err != nil {
		return 0, err
	}
	return command.Created(resp)
}
