package command

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/danmuck/inkctl/internal/protocol"
)

// StartPrint starts a print job for the message with the given name.
func (c *Client) StartPrint(ctx context.Context, messageName string) (protocol.Response, error) {
	if strings.TrimSpace(messageName) == "" {
		return nil, missing(protocol.PathPrintJob, "print_data_name")
	}
	return c.create(ctx, protocol.Request{
		Verb:      protocol.VerbPost,
		Path:      protocol.PathPrintJob,
		Attribute: map[string]any{"print_data_name": messageName},
	})
}

func (c *Client) StopPrint(ctx context.Context) (protocol.Response, error) {
	return c.Do(ctx, protocol.Request{
		Verb: protocol.VerbDelete,
		Path: protocol.PathPrintJob,
		ID:   protocol.IntID(0),
	})
}

func (c *Client) ClearCache(ctx context.Context) (protocol.Response, error) {
	return c.Do(ctx, protocol.Request{Verb: protocol.VerbPut, Path: protocol.PathClearCache})
}

// PrintStatus reads the real-time engine state.
func (c *Client) PrintStatus(ctx context.Context) (protocol.Response, error) {
	return c.Do(ctx, protocol.Request{Verb: protocol.VerbGet, Path: protocol.PathRealtime})
}

// ParmUpdate sets the initial value of one counter-like source.
type ParmUpdate struct {
	Type  string `json:"type"`
	ID    int    `json:"id"`
	Value int    `json:"value"`
}

func (c *Client) ModifyInitialValue(ctx context.Context, parms []ParmUpdate) (protocol.Response, error) {
	if len(parms) == 0 {
		return nil, missing(protocol.PathParmModify, "parm")
	}
	return c.Do(ctx, protocol.Request{
		Verb:  protocol.VerbPost,
		Path:  protocol.PathParmModify,
		Extra: map[string]any{"cmd": "up_parm", "parm": parms},
	})
}

// CleanNozzle purges the given printheads. Nil arguments select every head
// with 200 columns each.
func (c *Client) CleanNozzle(ctx context.Context, heads, columns []int) (protocol.Response, error) {
	if heads == nil {
		heads = []int{0, 1, 2, 3}
	}
	if columns == nil {
		columns = make([]int, len(heads))
		for i := range columns {
			columns[i] = 200
		}
	}
	if len(heads) != len(columns) {
		return nil, fmt.Errorf("%w: %s needs one column count per head", ErrMissingField, protocol.PathNozzleClean)
	}
	return c.Do(ctx, protocol.Request{
		Verb:  protocol.VerbPut,
		Path:  protocol.PathNozzleClean,
		Extra: map[string]any{"id": heads, "columns": columns},
	})
}

// SendDynamicData pushes print-time values for dynamic sources.
func (c *Client) SendDynamicData(ctx context.Context, printMode string, data []map[string]any) (protocol.Response, error) {
	if strings.TrimSpace(printMode) == "" {
		return nil, missing(protocol.PathDynamic, "print_mode")
	}
	return c.Do(ctx, protocol.Request{
		Verb:  protocol.VerbPost,
		Path:  protocol.PathDynamic,
		Extra: map[string]any{"print_mode": printMode, "data": data},
	})
}

// DownloadImage uploads raster bytes under name; image sources reference the
// name. size is the length of the base64 text.
func (c *Client) DownloadImage(ctx context.Context, name string, raster []byte, parm int) (protocol.Response, error) {
	if strings.TrimSpace(name) == "" {
		return nil, missing(protocol.PathDownloadImage, "name")
	}
	if len(raster) == 0 {
		return nil, missing(protocol.PathDownloadImage, "content")
	}
	if parm == 0 {
		parm = 1
	}
	content := base64.StdEncoding.EncodeToString(raster)
	return c.Do(ctx, protocol.Request{
		Verb: protocol.VerbPost,
		Path: protocol.PathDownloadImage,
		Name: name,
		Extra: map[string]any{
			"parm":    parm,
			"size":    len(content),
			"content": content,
		},
	})
}
