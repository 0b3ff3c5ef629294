package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/danmuck/inkctl/internal/protocol"
)

func validateSource(path string, spec SourceSpec) error {
	if strings.TrimSpace(spec.Type) == "" {
		return missing(path, "type")
	}
	if !ValidSourceKind(spec.Type) {
		return fmt.Errorf("%w: source type %q", ErrInvalidKind, spec.Type)
	}
	if strings.TrimSpace(spec.Name) == "" {
		return missing(path, "name")
	}
	if spec.Attribute == nil {
		return missing(path, "attribute")
	}
	return nil
}

func validateObject(path string, spec ObjectSpec) error {
	if strings.TrimSpace(spec.Type) == "" {
		return missing(path, "type")
	}
	if !ValidObjectKind(spec.Type) {
		return fmt.Errorf("%w: object type %q", ErrInvalidKind, spec.Type)
	}
	if strings.TrimSpace(spec.Name) == "" {
		return missing(path, "name")
	}
	if spec.Style == nil {
		return missing(path, "style")
	}
	if len(spec.Sources) == 0 {
		return missing(path, "source_list")
	}
	for i, ref := range spec.Sources {
		if ref.ID <= 0 || !ValidSourceKind(ref.Type) {
			return fmt.Errorf("%w: %s source_list[%d]=%+v", ErrInvalidKind, path, i, ref)
		}
	}
	return nil
}

func validateMessage(path string, spec MessageSpec) error {
	if strings.TrimSpace(spec.Name) == "" {
		return missing(path, "name")
	}
	if len(spec.Objects) == 0 {
		return missing(path, "object_list")
	}
	for i, ref := range spec.Objects {
		if ref.ID <= 0 || !ValidObjectKind(ref.Type) {
			return fmt.Errorf("%w: %s object_list[%d]=%+v", ErrInvalidKind, path, i, ref)
		}
	}
	if len(spec.Prefs) != PrintheadCount {
		return fmt.Errorf("%w: %s requires %d print_prefs, got %d", ErrMissingField, path, PrintheadCount, len(spec.Prefs))
	}
	return nil
}

func attributeOrEmpty(attr map[string]any) map[string]any {
	if attr == nil {
		return map[string]any{}
	}
	return attr
}

// AddSource creates a source; the response carries its id.
func (c *Client) AddSource(ctx context.Context, spec SourceSpec) (protocol.Response, error) {
	if err := validateSource(protocol.PathSource, spec); err != nil {
		return nil, err
	}
	return c.create(ctx, protocol.Request{
		Verb:      protocol.VerbPost,
		Path:      protocol.PathSource,
		Type:      spec.Type,
		Name:      spec.Name,
		Attribute: spec.Attribute,
	})
}

func (c *Client) FindSource(ctx context.Context, id int, kind string) (protocol.Response, error) {
	return c.Do(ctx, protocol.Request{
		Verb: protocol.VerbGet,
		Path: protocol.PathSource,
		ID:   protocol.IntID(id),
		Type: kind,
	})
}

// GetSource reads and decodes one source.
func (c *Client) GetSource(ctx context.Context, id int, kind string) (Source, error) {
	var out Source
	_, err := c.decode(ctx, protocol.Request{
		Verb: protocol.VerbGet,
		Path: protocol.PathSource,
		ID:   protocol.IntID(id),
		Type: kind,
	}, &out)
	return out, err
}

// ModifySource replaces the source's name and attribute.
func (c *Client) ModifySource(ctx context.Context, id int, spec SourceSpec) (protocol.Response, error) {
	if id <= 0 {
		return nil, missing(protocol.PathSource, "id")
	}
	if err := validateSource(protocol.PathSource, spec); err != nil {
		return nil, err
	}
	return c.Do(ctx, protocol.Request{
		Verb:      protocol.VerbPut,
		Path:      protocol.PathSource,
		ID:        protocol.IntID(id),
		Type:      spec.Type,
		Name:      spec.Name,
		Attribute: spec.Attribute,
	})
}

func (c *Client) DeleteSource(ctx context.Context, id int, kind string) (protocol.Response, error) {
	if !ValidSourceKind(kind) {
		return nil, fmt.Errorf("%w: source type %q", ErrInvalidKind, kind)
	}
	return c.Do(ctx, protocol.Request{
		Verb: protocol.VerbDelete,
		Path: protocol.PathSource,
		ID:   protocol.IntID(id),
		Type: kind,
	})
}

// AddObject creates an object over already-created sources.
func (c *Client) AddObject(ctx context.Context, spec ObjectSpec) (protocol.Response, error) {
	if err := validateObject(protocol.PathObject, spec); err != nil {
		return nil, err
	}
	return c.create(ctx, protocol.Request{
		Verb:       protocol.VerbPost,
		Path:       protocol.PathObject,
		Type:       spec.Type,
		Name:       spec.Name,
		Style:      spec.Style,
		Attribute:  attributeOrEmpty(spec.Attribute),
		SourceList: spec.Sources,
	})
}

func (c *Client) FindObject(ctx context.Context, id int) (protocol.Response, error) {
	return c.Do(ctx, protocol.Request{
		Verb: protocol.VerbGet,
		Path: protocol.PathObject,
		ID:   protocol.IntID(id),
	})
}

// GetObject reads and decodes one object.
func (c *Client) GetObject(ctx context.Context, id int) (Object, error) {
	var out Object
	_, err := c.decode(ctx, protocol.Request{
		Verb: protocol.VerbGet,
		Path: protocol.PathObject,
		ID:   protocol.IntID(id),
	}, &out)
	return out, err
}

// ModifyObject replaces the whole object, including its source_list.
func (c *Client) ModifyObject(ctx context.Context, id int, spec ObjectSpec) (protocol.Response, error) {
	if id <= 0 {
		return nil, missing(protocol.PathObject, "id")
	}
	if err := validateObject(protocol.PathObject, spec); err != nil {
		return nil, err
	}
	return c.Do(ctx, protocol.Request{
		Verb:       protocol.VerbPut,
		Path:       protocol.PathObject,
		ID:         protocol.IntID(id),
		Type:       spec.Type,
		Name:       spec.Name,
		Style:      spec.Style,
		Attribute:  attributeOrEmpty(spec.Attribute),
		SourceList: spec.Sources,
	})
}

func (c *Client) DeleteObject(ctx context.Context, id int) (protocol.Response, error) {
	return c.Do(ctx, protocol.Request{
		Verb: protocol.VerbDelete,
		Path: protocol.PathObject,
		ID:   protocol.IntID(id),
	})
}

// NewMessage creates a message. Nil prefs default to zero margins on every head.
func (c *Client) NewMessage(ctx context.Context, spec MessageSpec) (protocol.Response, error) {
	if spec.Prefs == nil {
		spec.Prefs = DefaultPrintPrefs()
	}
	if err := validateMessage(protocol.PathMessage, spec); err != nil {
		return nil, err
	}
	return c.create(ctx, protocol.Request{
		Verb:       protocol.VerbPost,
		Path:       protocol.PathMessage,
		Name:       spec.Name,
		Attribute:  messageAttribute(spec.Prefs),
		ObjectList: spec.Objects,
	})
}

func (c *Client) FindMessage(ctx context.Context, id int, detail bool) (protocol.Response, error) {
	return c.Do(ctx, findMessageRequest(id, detail))
}

func findMessageRequest(id int, detail bool) protocol.Request {
	d := 0
	if detail {
		d = 1
	}
	return protocol.Request{
		Verb:  protocol.VerbGet,
		Path:  protocol.PathMessage,
		ID:    protocol.IntID(id),
		Extra: map[string]any{"detail": d},
	}
}

// GetMessage reads one message with detail, keeping the full objects when
// the device returns them inline.
func (c *Client) GetMessage(ctx context.Context, id int) (Message, error) {
	var out Message
	resp, err := c.decode(ctx, findMessageRequest(id, true), &out)
	if err != nil {
		return Message{}, err
	}
	var inline struct {
		ObjectList []Object `json:"object_list"`
	}
	if err := resp.Decode(&inline); err == nil {
		out.Objects = inline.ObjectList
	}
	return out, nil
}

// ModifyMessage replaces the whole message. Every object and all four print
// prefs must be supplied; omitted objects are removed from the message.
func (c *Client) ModifyMessage(ctx context.Context, id int, spec MessageSpec) (protocol.Response, error) {
	if id <= 0 {
		return nil, missing(protocol.PathMessage, "id")
	}
	if err := validateMessage(protocol.PathMessage, spec); err != nil {
		return nil, err
	}
	return c.Do(ctx, protocol.Request{
		Verb:       protocol.VerbPut,
		Path:       protocol.PathMessage,
		ID:         protocol.IntID(id),
		Name:       spec.Name,
		Attribute:  messageAttribute(spec.Prefs),
		ObjectList: spec.Objects,
	})
}

func (c *Client) DeleteMessage(ctx context.Context, id int) (protocol.Response, error) {
	return c.Do(ctx, protocol.Request{
		Verb: protocol.VerbDelete,
		Path: protocol.PathMessage,
		ID:   protocol.IntID(id),
	})
}

func (c *Client) ListMessages(ctx context.Context, offset, num int) (protocol.Response, error) {
	return c.Do(ctx, listRequest(protocol.PathMessageList, offset, num))
}

// MessageList decodes data_list of the message listing.
func (c *Client) MessageList(ctx context.Context, offset, num int) ([]MessageSummary, error) {
	var out struct {
		DataList []MessageSummary `json:"data_list"`
	}
	if _, err := c.decode(ctx, listRequest(protocol.PathMessageList, offset, num), &out); err != nil {
		return nil, err
	}
	return out.DataList, nil
}

// FindMessageByName pages through the listing until name matches.
func (c *Client) FindMessageByName(ctx context.Context, name string) (MessageSummary, bool, error) {
	const page = 50
	for offset := 0; ; offset += page {
		list, err := c.MessageList(ctx, offset, page)
		if err != nil {
			return MessageSummary{}, false, err
		}
		for _, m := range list {
			if m.Name == name {
				return m, true, nil
			}
		}
		if len(list) < page {
			return MessageSummary{}, false, nil
		}
	}
}

// SourceDetail is one resolved source of a message, or the reason it was not.
type SourceDetail struct {
	Ref    protocol.Ref
	Source Source
	Err    error
}

// MessageDetail is a message with its objects and every distinct source.
type MessageDetail struct {
	Message Message
	Sources []SourceDetail
}

// MessageWithSources fetches a message and resolves each distinct source once,
// in first-reference order. A source that cannot be read is kept with Err set.
func (c *Client) MessageWithSources(ctx context.Context, id int) (MessageDetail, error) {
	msg, err := c.GetMessage(ctx, id)
	if err != nil {
		return MessageDetail{}, err
	}
	out := MessageDetail{Message: msg}
	seen := make(map[protocol.Ref]bool)
	for _, obj := range msg.Objects {
		for _, ref := range obj.SourceList {
			if ref.ID == 0 || ref.Type == "" || seen[ref] {
				continue
			}
			seen[ref] = true
			src, err := c.GetSource(ctx, ref.ID, ref.Type)
			if errors.Is(err, protocol.ErrConnection) {
				return out, err
			}
			out.Sources = append(out.Sources, SourceDetail{Ref: ref, Source: src, Err: err})
		}
	}
	return out, nil
}

func listRequest(path string, offset, num int) protocol.Request {
	return protocol.Request{
		Verb:  protocol.VerbGet,
		Path:  path,
		Extra: map[string]any{"offset": offset, "num": num},
	}
}
