package compose

import (
	"context"
	"errors"
	"fmt"

	"github.com/danmuck/inkctl/internal/protocol"
	"github.com/rs/zerolog/log"
)

// The device replaces whole records on put, so every updater reads the
// current record first and resubmits it with one field changed.

// RenameMessage changes a message's name, keeping its objects and prefs.
func (c *Composer) RenameMessage(ctx context.Context, id int, name string) error {
	msg, err := c.client.GetMessage(ctx, id)
	if err != nil {
		return err
	}
	spec := msg.Spec()
	spec.Name = name
	_, err = c.client.ModifyMessage(ctx, id, spec)
	return err
}

// ReplaceMessageObjects sets a message's full object list. Objects left out
// are removed from the message but stay on the device.
func (c *Composer) ReplaceMessageObjects(ctx context.Context, id int, objects []protocol.Ref) error {
	msg, err := c.client.GetMessage(ctx, id)
	if err != nil {
		return err
	}
	spec := msg.Spec()
	spec.Objects = append([]protocol.Ref(nil), objects...)
	_, err = c.client.ModifyMessage(ctx, id, spec)
	return err
}

// SetObjectSources sets an object's full source list.
func (c *Composer) SetObjectSources(ctx context.Context, id int, sources []protocol.Ref) error {
	obj, err := c.client.GetObject(ctx, id)
	if err != nil {
		return err
	}
	spec := obj.Spec()
	spec.Sources = append([]protocol.Ref(nil), sources...)
	_, err = c.client.ModifyObject(ctx, id, spec)
	return err
}

// Cleanup deletes what a run created: the message, then objects and sources
// in reverse creation order. It keeps going past failures and returns them
// joined. Run never calls it.
func (c *Composer) Cleanup(ctx context.Context, report Report) error {
	var errs []error
	if report.MessageID > 0 {
		if _, err := c.client.DeleteMessage(ctx, report.MessageID); err != nil {
			errs = append(errs, fmt.Errorf("message %d: %w", report.MessageID, err))
		}
	}
	for i := len(report.Objects) - 1; i >= 0; i-- {
		a := report.Objects[i]
		if _, err := c.client.DeleteObject(ctx, a.Ref.ID); err != nil {
			errs = append(errs, fmt.Errorf("object %q (%d): %w", a.Name, a.Ref.ID, err))
		}
	}
	for i := len(report.Sources) - 1; i >= 0; i-- {
		a := report.Sources[i]
		if _, err := c.client.DeleteSource(ctx, a.Ref.ID, a.Ref.Type); err != nil {
			errs = append(errs, fmt.Errorf("source %q (%d): %w", a.Name, a.Ref.ID, err))
		}
	}
	err := errors.Join(errs...)
	if err != nil {
		log.Warn().Err(err).Msgf("compose.Composer.Cleanup run=%s failed=%d", report.RunID, len(errs))
	} else {
		log.Info().Msgf("compose.Composer.Cleanup run=%s removed=%d", report.RunID, len(report.Created()))
	}
	return err
}
