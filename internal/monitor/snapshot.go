package monitor

import (
	"fmt"
	"time"

	"github.com/danmuck/inkctl/internal/protocol"
)

// Engine states reported by the printer.
const (
	StateStarted = "started"
	StateRunning = "running"
	StateStopped = "stopped"
)

// SourceInfo is one live source of the running message.
type SourceInfo struct {
	ID          int    `json:"id"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	Content     string `json:"content"`
	Current     any    `json:"current,omitempty"`
	CopiesIndex any    `json:"copies_index,omitempty"`
	Alarm       *bool  `json:"alarm,omitempty"`
}

// Snapshot is one observation of the engine. Error is set when the poll
// failed; the remaining fields then hold whatever the printer returned.
type Snapshot struct {
	Seq        uint64            `json:"seq"`
	Time       time.Time         `json:"time"`
	Outcome    string            `json:"outcome"`
	Error      string            `json:"error,omitempty"`
	Status     string            `json:"status,omitempty"`
	State      string            `json:"state,omitempty"`
	DataName   string            `json:"data_name,omitempty"`
	DataID     int               `json:"data_id,omitempty"`
	Output     int               `json:"output"`
	InkUsed    float64           `json:"ink_used"`
	StartTime  *time.Time        `json:"start_time,omitempty"`
	Reprint    bool              `json:"reprint"`
	TransReady *bool             `json:"trans_ready,omitempty"`
	Sources    []SourceInfo      `json:"sources,omitempty"`
	Raw        protocol.Response `json:"raw,omitempty"`
}

// Printing reports whether the engine is producing output.
func (s Snapshot) Printing() bool {
	return s.State == StateStarted || s.State == StateRunning
}

// ParseRealtime reads the engine fields of a /engine/real response.
func ParseRealtime(resp protocol.Response) Snapshot {
	var snap Snapshot
	if resp == nil {
		return snap
	}
	snap.Raw = resp
	snap.Status = resp.Status()
	snap.State = resp.String("state")
	snap.DataName = resp.String("data_name")
	snap.DataID, _ = resp.Int("data_id")
	snap.Output, _ = resp.Int("output")
	if v, ok := resp["ink_used"].(float64); ok {
		snap.InkUsed = v
	}
	if v, ok := resp.Int("start_time"); ok && v > 0 {
		t := time.Unix(int64(v), 0)
		snap.StartTime = &t
	}
	snap.Reprint, _ = resp["reprint"].(bool)
	if v, ok := resp["trans_ready"].(bool); ok {
		snap.TransReady = &v
	}

	var decoded struct {
		SourceInfo []struct {
			ID          int    `json:"id"`
			Type        string `json:"type"`
			Name        string `json:"name"`
			Content     any    `json:"content"`
			Current     any    `json:"current"`
			CopiesIndex any    `json:"copies_index"`
			AlarmStatus *bool  `json:"alarm_status"`
		} `json:"source_info"`
	}
	if err := resp.Decode(&decoded); err == nil {
		for _, s := range decoded.SourceInfo {
			snap.Sources = append(snap.Sources, SourceInfo{
				ID:          s.ID,
				Type:        s.Type,
				Name:        s.Name,
				Content:     contentString(s.Content),
				Current:     s.Current,
				CopiesIndex: s.CopiesIndex,
				Alarm:       s.AlarmStatus,
			})
		}
	}
	return snap
}

func contentString(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	default:
		return fmt.Sprint(c)
	}
}
