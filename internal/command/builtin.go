package command

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/danmuck/inkctl/internal/protocol"
)

const defaultPageSize = 10

type builtin struct {
	key   Key
	entry Entry
}

func intArg(args []string, i int, name string) (int, error) {
	v, err := strconv.Atoi(args[i])
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", ErrUsage, name, args[i])
	}
	return v, nil
}

func optIntArg(args []string, i int, name string, def int) (int, error) {
	if len(args) <= i {
		return def, nil
	}
	return intArg(args, i, name)
}

func jsonArg(args []string, i int, name string, out any) error {
	if err := json.Unmarshal([]byte(args[i]), out); err != nil {
		return fmt.Errorf("%w: %s must be JSON: %v", ErrUsage, name, err)
	}
	return nil
}

// page handles the "[offset] [num]" arguments of list actions.
func page(fn func(*Client, context.Context, int, int) (protocol.Response, error)) Handler {
	return func(ctx context.Context, c *Client, args []string) (protocol.Response, error) {
		offset, err := optIntArg(args, 0, "offset", 0)
		if err != nil {
			return nil, err
		}
		num, err := optIntArg(args, 1, "num", defaultPageSize)
		if err != nil {
			return nil, err
		}
		return fn(c, ctx, offset, num)
	}
}

// byID handles actions taking a single "<id>" argument.
func byID(fn func(*Client, context.Context, int) (protocol.Response, error)) Handler {
	return func(ctx context.Context, c *Client, args []string) (protocol.Response, error) {
		id, err := intArg(args, 0, "id")
		if err != nil {
			return nil, err
		}
		return fn(c, ctx, id)
	}
}

func noArgs(fn func(*Client, context.Context) (protocol.Response, error)) Handler {
	return func(ctx context.Context, c *Client, _ []string) (protocol.Response, error) {
		return fn(c, ctx)
	}
}

func jsonList(fn func(*Client, context.Context, []map[string]any) (protocol.Response, error)) Handler {
	return func(ctx context.Context, c *Client, args []string) (protocol.Response, error) {
		var list []map[string]any
		if err := jsonArg(args, 0, "list", &list); err != nil {
			return nil, err
		}
		return fn(c, ctx, list)
	}
}

func jsonFields(fn func(*Client, context.Context, map[string]any) (protocol.Response, error)) Handler {
	return func(ctx context.Context, c *Client, args []string) (protocol.Response, error) {
		var fields map[string]any
		if err := jsonArg(args, 0, "fields", &fields); err != nil {
			return nil, err
		}
		return fn(c, ctx, fields)
	}
}

func namedAdd(fn func(*Client, context.Context, string, map[string]any) (protocol.Response, error)) Handler {
	return func(ctx context.Context, c *Client, args []string) (protocol.Response, error) {
		var attr map[string]any
		if err := jsonArg(args, 1, "attribute", &attr); err != nil {
			return nil, err
		}
		return fn(c, ctx, args[0], attr)
	}
}

func namedUpdate(fn func(*Client, context.Context, int, string, map[string]any) (protocol.Response, error)) Handler {
	return func(ctx context.Context, c *Client, args []string) (protocol.Response, error) {
		id, err := intArg(args, 0, "id")
		if err != nil {
			return nil, err
		}
		var attr map[string]any
		if err := jsonArg(args, 2, "attribute", &attr); err != nil {
			return nil, err
		}
		return fn(c, ctx, id, args[1], attr)
	}
}

func startPrint(ctx context.Context, c *Client, args []string) (protocol.Response, error) {
	return c.StartPrint(ctx, args[0])
}

func modifyParm(ctx context.Context, c *Client, args []string) (protocol.Response, error) {
	id, err := intArg(args, 1, "id")
	if err != nil {
		return nil, err
	}
	value, err := intArg(args, 2, "value")
	if err != nil {
		return nil, err
	}
	return c.ModifyInitialValue(ctx, []ParmUpdate{{Type: args[0], ID: id, Value: value}})
}

func cleanNozzle(ctx context.Context, c *Client, _ []string) (protocol.Response, error) {
	return c.CleanNozzle(ctx, nil, nil)
}

func setTime(ctx context.Context, c *Client, args []string) (protocol.Response, error) {
	names := []string{"year", "month", "day", "hour", "minute", "second"}
	parts := make([]int, len(names))
	for i, name := range names {
		v, err := intArg(args, i, name)
		if err != nil {
			return nil, err
		}
		parts[i] = v
	}
	t := time.Date(parts[0], time.Month(parts[1]), parts[2], parts[3], parts[4], parts[5], 0, time.Local)
	return c.SetSystemTime(ctx, t)
}

func addRadix(ctx context.Context, c *Client, args []string) (protocol.Response, error) {
	return c.AddRadix(ctx, args[0])
}

func modifyRadix(ctx context.Context, c *Client, args []string) (protocol.Response, error) {
	id, err := intArg(args, 0, "id")
	if err != nil {
		return nil, err
	}
	return c.ModifyRadix(ctx, id, args[1])
}

func setAlarm(ctx context.Context, c *Client, args []string) (protocol.Response, error) {
	var signals []map[string]any
	if err := jsonArg(args, 0, "signals", &signals); err != nil {
		return nil, err
	}
	return c.SetAlarmConfig(ctx, signals)
}

func findMessage(ctx context.Context, c *Client, args []string) (protocol.Response, error) {
	id, err := intArg(args, 0, "id")
	if err != nil {
		return nil, err
	}
	detail, err := optIntArg(args, 1, "detail", 1)
	if err != nil {
		return nil, err
	}
	return c.FindMessage(ctx, id, detail != 0)
}

func addSource(ctx context.Context, c *Client, args []string) (protocol.Response, error) {
	var attr map[string]any
	if err := jsonArg(args, 2, "attribute", &attr); err != nil {
		return nil, err
	}
	return c.AddSource(ctx, SourceSpec{Type: args[0], Name: args[1], Attribute: attr})
}

func sourceByID(fn func(*Client, context.Context, int, string) (protocol.Response, error)) Handler {
	return func(ctx context.Context, c *Client, args []string) (protocol.Response, error) {
		id, err := intArg(args, 0, "id")
		if err != nil {
			return nil, err
		}
		return fn(c, ctx, id, args[1])
	}
}

func modifySource(ctx context.Context, c *Client, args []string) (protocol.Response, error) {
	id, err := intArg(args, 0, "id")
	if err != nil {
		return nil, err
	}
	var attr map[string]any
	if err := jsonArg(args, 3, "attribute", &attr); err != nil {
		return nil, err
	}
	return c.ModifySource(ctx, id, SourceSpec{Type: args[1], Name: args[2], Attribute: attr})
}

func objectSpecArgs(args []string) (ObjectSpec, error) {
	spec := ObjectSpec{Type: args[0], Name: args[1]}
	if err := jsonArg(args, 2, "style", &spec.Style); err != nil {
		return ObjectSpec{}, err
	}
	if err := jsonArg(args, 3, "sources", &spec.Sources); err != nil {
		return ObjectSpec{}, err
	}
	return spec, nil
}

func addObject(ctx context.Context, c *Client, args []string) (protocol.Response, error) {
	spec, err := objectSpecArgs(args)
	if err != nil {
		return nil, err
	}
	return c.AddObject(ctx, spec)
}

func modifyObject(ctx context.Context, c *Client, args []string) (protocol.Response, error) {
	id, err := intArg(args, 0, "id")
	if err != nil {
		return nil, err
	}
	spec, err := objectSpecArgs(args[1:])
	if err != nil {
		return nil, err
	}
	return c.ModifyObject(ctx, id, spec)
}

func newMessage(ctx context.Context, c *Client, args []string) (protocol.Response, error) {
	var objects []protocol.Ref
	if err := jsonArg(args, 1, "objects", &objects); err != nil {
		return nil, err
	}
	return c.NewMessage(ctx, MessageSpec{Name: args[0], Objects: objects})
}

// modifyMessage keeps the message's current print prefs; the device
// replaces the whole record on put.
func modifyMessage(ctx context.Context, c *Client, args []string) (protocol.Response, error) {
	id, err := intArg(args, 0, "id")
	if err != nil {
		return nil, err
	}
	var objects []protocol.Ref
	if err := jsonArg(args, 2, "objects", &objects); err != nil {
		return nil, err
	}
	current, err := c.GetMessage(ctx, id)
	if err != nil {
		return nil, err
	}
	prefs := current.PrintPrefs()
	if len(prefs) == 0 {
		prefs = DefaultPrintPrefs()
	}
	return c.ModifyMessage(ctx, id, MessageSpec{Name: args[1], Objects: objects, Prefs: prefs})
}

func def(category, action, usage string, minArgs int, h Handler) builtin {
	return builtin{
		key:   Key{Category: category, Action: action},
		entry: Entry{Usage: usage, MinArgs: minArgs, Handler: h},
	}
}

var builtins = []builtin{
	def("print", "start", "<message-name>", 1, startPrint),
	def("print", "stop", "", 0, noArgs((*Client).StopPrint)),
	def("print", "clear", "", 0, noArgs((*Client).ClearCache)),
	def("print", "status", "", 0, noArgs((*Client).PrintStatus)),
	def("print", "modify_parm", "<type> <id> <value>", 3, modifyParm),
	def("print", "nozzle", "", 0, cleanNozzle),

	def("printer", "list", "", 0, noArgs((*Client).Printers)),
	def("printer", "update", "<printer-list-json>", 1, jsonList((*Client).UpdatePrinters)),
	def("printhead", "list", "", 0, noArgs((*Client).Printheads)),
	def("printhead", "update", "<printhead-list-json>", 1, jsonList((*Client).UpdatePrintheads)),

	def("settings", "get", "", 0, noArgs((*Client).PrintSettings)),
	def("settings", "update", "<fields-json>", 1, jsonFields((*Client).UpdatePrintSettings)),

	def("system", "get", "", 0, noArgs((*Client).SystemSettings)),
	def("system", "update", "<fields-json>", 1, jsonFields((*Client).UpdateSystemSettings)),
	def("system", "time_get", "", 0, noArgs((*Client).SystemTime)),
	def("system", "time_set", "<year> <month> <day> <hour> <minute> <second>", 6, setTime),
	def("system", "reset", "", 0, noArgs((*Client).FactoryReset)),

	def("radix", "list", "[offset] [num]", 0, page((*Client).ListRadix)),
	def("radix", "add", "<name>", 1, addRadix),
	def("radix", "find", "<id>", 1, byID((*Client).FindRadix)),
	def("radix", "delete", "<id>", 1, byID((*Client).DeleteRadix)),
	def("radix", "modify", "<id> <name>", 2, modifyRadix),

	def("dateformat", "list", "[offset] [num]", 0, page((*Client).ListDateFormats)),
	def("dateformat", "add", "<name> <attribute-json>", 2, namedAdd((*Client).AddDateFormat)),
	def("dateformat", "find", "<id>", 1, byID((*Client).FindDateFormat)),
	def("dateformat", "delete", "<id>", 1, byID((*Client).DeleteDateFormat)),
	def("dateformat", "update", "<id> <name> <attribute-json>", 3, namedUpdate((*Client).UpdateDateFormat)),

	def("shift", "list", "[offset] [num]", 0, page((*Client).ListSchedules)),
	def("shift", "create", "<name> <attribute-json>", 2, namedAdd((*Client).AddSchedule)),
	def("shift", "find", "<id>", 1, byID((*Client).FindSchedule)),
	def("shift", "delete", "<id>", 1, byID((*Client).DeleteSchedule)),
	def("shift", "edit", "<id> <name> <attribute-json>", 3, namedUpdate((*Client).UpdateSchedule)),

	def("alarm", "get", "", 0, noArgs((*Client).AlarmConfig)),
	def("alarm", "set", "<signals-json>", 1, setAlarm),
	def("alarm", "restore", "", 0, noArgs((*Client).RestoreAlarmConfig)),

	def("status", "heartbeat", "", 0, noArgs((*Client).Heartbeat)),
	def("status", "system", "", 0, noArgs((*Client).Status)),

	def("message", "list", "[offset] [num]", 0, page((*Client).ListMessages)),
	def("message", "find", "<id> [detail]", 1, findMessage),
	def("message", "delete", "<id>", 1, byID((*Client).DeleteMessage)),
	def("message", "new", "<name> <objects-json>", 2, newMessage),
	def("message", "modify", "<id> <name> <objects-json>", 3, modifyMessage),
	def("message", "source_add", "<type> <name> <attribute-json>", 3, addSource),
	def("message", "source_find", "<id> <type>", 2, sourceByID((*Client).FindSource)),
	def("message", "source_delete", "<id> <type>", 2, sourceByID((*Client).DeleteSource)),
	def("message", "source_modify", "<id> <type> <name> <attribute-json>", 4, modifySource),
	def("message", "object_add", "<type> <name> <style-json> <sources-json>", 4, addObject),
	def("message", "object_find", "<id>", 1, byID((*Client).FindObject)),
	def("message", "object_delete", "<id>", 1, byID((*Client).DeleteObject)),
	def("message", "object_modify", "<id> <type> <name> <style-json> <sources-json>", 5, modifyObject),
}
