package command

import (
	"context"
	"strings"
	"time"

	"github.com/danmuck/inkctl/internal/protocol"
)

func (c *Client) get(ctx context.Context, path string) (protocol.Response, error) {
	return c.Do(ctx, protocol.Request{Verb: protocol.VerbGet, Path: path})
}

func (c *Client) put(ctx context.Context, path string, fields map[string]any) (protocol.Response, error) {
	return c.Do(ctx, protocol.Request{Verb: protocol.VerbPut, Path: path, Extra: fields})
}

func (c *Client) Printers(ctx context.Context) (protocol.Response, error) {
	return c.get(ctx, protocol.PathPrinter)
}

func (c *Client) UpdatePrinters(ctx context.Context, list []map[string]any) (protocol.Response, error) {
	return c.put(ctx, protocol.PathPrinter, map[string]any{"printer_list": list})
}

func (c *Client) Printheads(ctx context.Context) (protocol.Response, error) {
	return c.get(ctx, protocol.PathPrintheadList)
}

func (c *Client) UpdatePrintheads(ctx context.Context, list []map[string]any) (protocol.Response, error) {
	return c.put(ctx, protocol.PathPrintheadList, map[string]any{"printhead_list": list})
}

func (c *Client) PrintSettings(ctx context.Context) (protocol.Response, error) {
	return c.get(ctx, protocol.PathPrintSettings)
}

// UpdatePrintSettings sends fields as top-level keys of the request.
func (c *Client) UpdatePrintSettings(ctx context.Context, fields map[string]any) (protocol.Response, error) {
	return c.put(ctx, protocol.PathPrintSettings, fields)
}

func (c *Client) SystemSettings(ctx context.Context) (protocol.Response, error) {
	return c.get(ctx, protocol.PathSystemConfig)
}

func (c *Client) UpdateSystemSettings(ctx context.Context, fields map[string]any) (protocol.Response, error) {
	return c.put(ctx, protocol.PathSystemConfig, fields)
}

func (c *Client) SystemTime(ctx context.Context) (protocol.Response, error) {
	return c.get(ctx, protocol.PathDateGet)
}

func (c *Client) SetSystemTime(ctx context.Context, t time.Time) (protocol.Response, error) {
	return c.put(ctx, protocol.PathDateSet, map[string]any{
		"year":   t.Year(),
		"month":  int(t.Month()),
		"day":    t.Day(),
		"hour":   t.Hour(),
		"minute": t.Minute(),
		"second": t.Second(),
	})
}

// FactoryReset restores factory settings. The device exposes it as a get.
func (c *Client) FactoryReset(ctx context.Context) (protocol.Response, error) {
	return c.get(ctx, protocol.PathReset)
}

func (c *Client) ListRadix(ctx context.Context, offset, num int) (protocol.Response, error) {
	return c.Do(ctx, listRequest(protocol.PathRadixList, offset, num))
}

func (c *Client) AddRadix(ctx context.Context, name string) (protocol.Response, error) {
	if strings.TrimSpace(name) == "" {
		return nil, missing(protocol.PathRadix, "name")
	}
	return c.create(ctx, protocol.Request{Verb: protocol.VerbPost, Path: protocol.PathRadix, Name: name})
}

func (c *Client) FindRadix(ctx context.Context, id int) (protocol.Response, error) {
	return c.Do(ctx, protocol.Request{Verb: protocol.VerbGet, Path: protocol.PathRadix, ID: protocol.IntID(id)})
}

// DeleteRadix targets the list path; the device has no delete on /system/radix.
func (c *Client) DeleteRadix(ctx context.Context, id int) (protocol.Response, error) {
	return c.Do(ctx, protocol.Request{Verb: protocol.VerbDelete, Path: protocol.PathRadixList, ID: protocol.IntID(id)})
}

func (c *Client) ModifyRadix(ctx context.Context, id int, name string) (protocol.Response, error) {
	if strings.TrimSpace(name) == "" {
		return nil, missing(protocol.PathRadix, "name")
	}
	return c.Do(ctx, protocol.Request{Verb: protocol.VerbPut, Path: protocol.PathRadix, ID: protocol.IntID(id), Name: name})
}

// namedResource covers the date-format and schedule endpoints, which share
// one shape: list path, item path, name plus attribute bodies.
type namedResource struct {
	list string
	item string
}

var (
	dateFormats = namedResource{list: protocol.PathDateFmtList, item: protocol.PathDateFmt}
	schedules   = namedResource{list: protocol.PathScheduleList, item: protocol.PathSchedule}
)

func (c *Client) listNamed(ctx context.Context, r namedResource, offset, num int) (protocol.Response, error) {
	return c.Do(ctx, listRequest(r.list, offset, num))
}

func (c *Client) addNamed(ctx context.Context, r namedResource, name string, attr map[string]any) (protocol.Response, error) {
	if strings.TrimSpace(name) == "" {
		return nil, missing(r.item, "name")
	}
	if attr == nil {
		return nil, missing(r.item, "attribute")
	}
	return c.create(ctx, protocol.Request{Verb: protocol.VerbPost, Path: r.item, Name: name, Attribute: attr})
}

func (c *Client) findNamed(ctx context.Context, r namedResource, id int) (protocol.Response, error) {
	return c.Do(ctx, protocol.Request{Verb: protocol.VerbGet, Path: r.item, ID: protocol.IntID(id)})
}

func (c *Client) deleteNamed(ctx context.Context, r namedResource, id int) (protocol.Response, error) {
	return c.Do(ctx, protocol.Request{Verb: protocol.VerbDelete, Path: r.item, ID: protocol.IntID(id)})
}

func (c *Client) updateNamed(ctx context.Context, r namedResource, id int, name string, attr map[string]any) (protocol.Response, error) {
	if strings.TrimSpace(name) == "" {
		return nil, missing(r.item, "name")
	}
	if attr == nil {
		return nil, missing(r.item, "attribute")
	}
	return c.Do(ctx, protocol.Request{Verb: protocol.VerbPut, Path: r.item, ID: protocol.IntID(id), Name: name, Attribute: attr})
}

func (c *Client) ListDateFormats(ctx context.Context, offset, num int) (protocol.Response, error) {
	return c.listNamed(ctx, dateFormats, offset, num)
}

func (c *Client) AddDateFormat(ctx context.Context, name string, attr map[string]any) (protocol.Response, error) {
	return c.addNamed(ctx, dateFormats, name, attr)
}

func (c *Client) FindDateFormat(ctx context.Context, id int) (protocol.Response, error) {
	return c.findNamed(ctx, dateFormats, id)
}

func (c *Client) DeleteDateFormat(ctx context.Context, id int) (protocol.Response, error) {
	return c.deleteNamed(ctx, dateFormats, id)
}

func (c *Client) UpdateDateFormat(ctx context.Context, id int, name string, attr map[string]any) (protocol.Response, error) {
	return c.updateNamed(ctx, dateFormats, id, name, attr)
}

func (c *Client) ListSchedules(ctx context.Context, offset, num int) (protocol.Response, error) {
	return c.listNamed(ctx, schedules, offset, num)
}

func (c *Client) AddSchedule(ctx context.Context, name string, attr map[string]any) (protocol.Response, error) {
	return c.addNamed(ctx, schedules, name, attr)
}

func (c *Client) FindSchedule(ctx context.Context, id int) (protocol.Response, error) {
	return c.findNamed(ctx, schedules, id)
}

func (c *Client) DeleteSchedule(ctx context.Context, id int) (protocol.Response, error) {
	return c.deleteNamed(ctx, schedules, id)
}

func (c *Client) UpdateSchedule(ctx context.Context, id int, name string, attr map[string]any) (protocol.Response, error) {
	return c.updateNamed(ctx, schedules, id, name, attr)
}

func (c *Client) AlarmConfig(ctx context.Context) (protocol.Response, error) {
	return c.get(ctx, protocol.PathSignalConfig)
}

func (c *Client) SetAlarmConfig(ctx context.Context, signals []map[string]any) (protocol.Response, error) {
	return c.put(ctx, protocol.PathSignalConfig, map[string]any{"signals": signals})
}

func (c *Client) RestoreAlarmConfig(ctx context.Context) (protocol.Response, error) {
	return c.Do(ctx, protocol.Request{Verb: protocol.VerbDelete, Path: protocol.PathSignalConfig})
}

func (c *Client) Heartbeat(ctx context.Context) (protocol.Response, error) {
	return c.get(ctx, protocol.PathHeartbeat)
}

func (c *Client) Status(ctx context.Context) (protocol.Response, error) {
	return c.get(ctx, protocol.PathStatus)
}
