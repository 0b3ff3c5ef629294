package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Verb is the request_type field.
type Verb string

const (
	VerbGet    Verb = "get"
	VerbPost   Verb = "post"
	VerbPut    Verb = "put"
	VerbDelete Verb = "delete"
)

func (v Verb) Valid() bool {
	switch v {
	case VerbGet, VerbPost, VerbPut, VerbDelete:
		return true
	}
	return false
}

// Resource paths used by the command model.
const (
	PathSource        = "/data/source"
	PathObject        = "/data/object"
	PathMessage       = "/data/data"
	PathMessageList   = "/data/list"
	PathPrintJob      = "/engine/printjob"
	PathClearCache    = "/engine/clear_cache"
	PathRealtime      = "/engine/real"
	PathParmModify    = "/engine/parm_modify"
	PathNozzleClean   = "/engine/printhead_clear"
	PathDynamic       = "/engine/dynamic"
	PathDownloadImage = "/engine/download_image"
	PathPrinter       = "/system/printer"
	PathPrintheadList = "/system/printhead_list"
	PathPrintSettings = "/system/print_settings"
	PathSystemConfig  = "/system/system_settings"
	PathDateGet       = "/system/date_get"
	PathDateSet       = "/system/date_set"
	PathReset         = "/system/reset"
	PathRadixList     = "/system/radix_list"
	PathRadix         = "/system/radix"
	PathDateFmtList   = "/system/dateformat_list"
	PathDateFmt       = "/system/dateformat"
	PathScheduleList  = "/system/schedule_list"
	PathSchedule      = "/system/schedule"
	PathSignalConfig  = "/system/signal_config"
	PathHeartbeat     = "/info/heart_beat"
	PathStatus        = "/info/status"
)

// StatusOK is the only success value of a response status.
const StatusOK = "ok"

// Ref is one entry of a source_list or object_list.
type Ref struct {
	ID   int    `json:"id"`
	Type string `json:"type"`
}

// Request is one structured command document.
//
// Extra carries path-specific top-level fields (print_mode, parm, size, ...).
// Keys in Extra never override the typed fields.
type Request struct {
	Verb       Verb
	Path       string
	ID         *int
	Type       string
	Name       string
	Hash       int64
	Attribute  map[string]any
	Style      map[string]any
	SourceList []Ref
	ObjectList []Ref
	Extra      map[string]any
}

// MarshalJSON renders the request as one flat object with only the populated fields.
func (r Request) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any, len(r.Extra)+8)
	for k, v := range r.Extra {
		doc[k] = v
	}
	doc["request_type"] = r.Verb
	doc["path"] = r.Path
	if r.ID != nil {
		doc["id"] = *r.ID
	}
	if r.Type != "" {
		doc["type"] = r.Type
	}
	if r.Name != "" {
		doc["name"] = r.Name
	}
	if r.Hash != 0 {
		doc["hash"] = r.Hash
	}
	if r.Attribute != nil {
		doc["attribute"] = r.Attribute
	}
	if r.Style != nil {
		doc["style"] = r.Style
	}
	if r.SourceList != nil {
		doc["source_list"] = r.SourceList
	}
	if r.ObjectList != nil {
		doc["object_list"] = r.ObjectList
	}
	return json.Marshal(doc)
}

// Validate checks the fields every request needs regardless of path.
func (r Request) Validate() error {
	if !r.Verb.Valid() {
		return fmt.Errorf("protocol: invalid request_type %q", r.Verb)
	}
	if r.Path == "" || r.Path[0] != '/' {
		return fmt.Errorf("protocol: invalid path %q", r.Path)
	}
	return nil
}

// IntID is a helper for the optional id field.
func IntID(id int) *int {
	return &id
}

// Response is a decoded response document. A nil Response means the
// device sent nothing back.
type Response map[string]any

// DecodeResponse parses one response body. Empty input yields (nil, nil).
func DecodeResponse(body []byte) (Response, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &ProtocolError{Raw: append([]byte(nil), body...), Err: err}
	}
	if resp == nil {
		return nil, &ProtocolError{Raw: append([]byte(nil), body...), Err: fmt.Errorf("response is not an object")}
	}
	return resp, nil
}

func (r Response) Status() string {
	return r.String("status")
}

func (r Response) OK() bool {
	return r.Status() == StatusOK
}

// ID returns the device-assigned id of a creation response.
func (r Response) ID() (int, bool) {
	return r.Int("id")
}

func (r Response) String(key string) string {
	if r == nil {
		return ""
	}
	switch v := r[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func (r Response) Int(key string) (int, bool) {
	if r == nil {
		return 0, false
	}
	switch v := r[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	case string:
		n, err := strconv.Atoi(v)
		return n, err == nil
	}
	return 0, false
}

// Decode re-marshals the response into a typed value.
func (r Response) Decode(out any) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
