package fakeprinter

import (
	"sort"
	"sync"
)

// Device is a Handler that keeps sources, objects, and messages in memory
// and assigns ids the way the printer does.
type Device struct {
	mu       sync.Mutex
	nextID   int
	sources  map[int]map[string]any
	objects  map[int]map[string]any
	messages map[int]map[string]any
	counts   map[string]int
	failures map[string]failure
}

type failure struct {
	nth    int
	status string
}

func NewDevice() *Device {
	return &Device{
		nextID:   100,
		sources:  make(map[int]map[string]any),
		objects:  make(map[int]map[string]any),
		messages: make(map[int]map[string]any),
		counts:   make(map[string]int),
		failures: make(map[string]failure),
	}
}

// FailOn makes the nth (1-based) request with verb and path reply with status.
func (d *Device) FailOn(verb, path string, nth int, status string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failures[verb+" "+path] = failure{nth: nth, status: status}
}

// Counts returns how many entities of each kind currently exist.
func (d *Device) Counts() (sources, objects, messages int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sources), len(d.objects), len(d.messages)
}

func (d *Device) Source(id int) (map[string]any, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.sources[id]
	return v, ok
}

func (d *Device) Object(id int) (map[string]any, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.objects[id]
	return v, ok
}

func (d *Device) Message(id int) (map[string]any, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.messages[id]
	return v, ok
}

func (d *Device) Handle(req map[string]any) Reply {
	d.mu.Lock()
	defer d.mu.Unlock()

	verb, _ := req["request_type"].(string)
	path, _ := req["path"].(string)
	key := verb + " " + path
	d.counts[key]++
	if f, ok := d.failures[key]; ok && f.nth == d.counts[key] {
		return Status(f.status)
	}

	switch path {
	case "/data/source":
		return d.crud(d.sources, verb, req, []string{"type", "name", "attribute"})
	case "/data/object":
		return d.crud(d.objects, verb, req, []string{"type", "name", "style", "attribute", "source_list"})
	case "/data/data":
		if verb == "get" {
			return d.messageDetail(req)
		}
		return d.crud(d.messages, verb, req, []string{"name", "attribute", "object_list"})
	case "/data/list":
		return d.list(req)
	case "/engine/real":
		return OK(map[string]any{"state": "stopped", "output": 0})
	}
	return OK(nil)
}

func (d *Device) crud(store map[int]map[string]any, verb string, req map[string]any, fields []string) Reply {
	switch verb {
	case "post":
		d.nextID++
		id := d.nextID
		store[id] = pick(id, req, fields)
		return OK(map[string]any{"id": id})
	case "put":
		id := intOf(req["id"])
		if _, ok := store[id]; !ok {
			return Status("Error")
		}
		store[id] = pick(id, req, fields)
		return OK(nil)
	case "delete":
		id := intOf(req["id"])
		if _, ok := store[id]; !ok {
			return Status("Error")
		}
		delete(store, id)
		return OK(nil)
	case "get":
		rec, ok := store[intOf(req["id"])]
		if !ok {
			return Status("Error")
		}
		return OK(rec)
	}
	return Status("Error")
}

func (d *Device) messageDetail(req map[string]any) Reply {
	msg, ok := d.messages[intOf(req["id"])]
	if !ok {
		return Status("Error")
	}
	out := make(map[string]any, len(msg))
	for k, v := range msg {
		out[k] = v
	}
	if refs, ok := msg["object_list"].([]any); ok {
		expanded := make([]any, 0, len(refs))
		for _, ref := range refs {
			m, _ := ref.(map[string]any)
			id := intOf(m["id"])
			if obj, ok := d.objects[id]; ok {
				expanded = append(expanded, obj)
			} else {
				expanded = append(expanded, m)
			}
		}
		out["object_list"] = expanded
	}
	return OK(out)
}

func (d *Device) list(req map[string]any) Reply {
	ids := make([]int, 0, len(d.messages))
	for id := range d.messages {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	offset, num := intOf(req["offset"]), intOf(req["num"])
	if offset > len(ids) {
		offset = len(ids)
	}
	ids = ids[offset:]
	if num > 0 && num < len(ids) {
		ids = ids[:num]
	}
	list := make([]any, 0, len(ids))
	for _, id := range ids {
		list = append(list, map[string]any{"id": id, "name": d.messages[id]["name"]})
	}
	return OK(map[string]any{"data_list": list, "total": len(d.messages)})
}

func pick(id int, req map[string]any, fields []string) map[string]any {
	out := map[string]any{"id": id}
	for _, f := range fields {
		if v, ok := req[f]; ok {
			out[f] = v
		}
	}
	return out
}

func intOf(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return 0
}
