package compose

import (
	"context"
	"errors"
	"testing"

	"github.com/danmuck/inkctl/internal/command"
	"github.com/danmuck/inkctl/internal/label"
	"github.com/danmuck/inkctl/internal/protocol"
	"github.com/danmuck/inkctl/internal/testutil/fakeprinter"
	"github.com/danmuck/inkctl/internal/testutil/testlog"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleFields = label.ProductFields{
	GTIN:  "08961101532710",
	MFG:   "012026",
	EXP:   "012029",
	Batch: "153A26",
	SN:    "02750082604216564872",
}

func newComposer(t *testing.T) (*Composer, *fakeprinter.Device, *fakeprinter.Direct) {
	t.Helper()
	dev := fakeprinter.NewDevice()
	direct := fakeprinter.NewDirect(dev.Handle)
	return New(command.New(direct)), dev, direct
}

func refsOf(t *testing.T, v any) []protocol.Ref {
	t.Helper()
	list, ok := v.([]any)
	require.True(t, ok, "not a list: %#v", v)
	out := make([]protocol.Ref, 0, len(list))
	for _, item := range list {
		m := item.(map[string]any)
		out = append(out, protocol.Ref{ID: int(m["id"].(float64)), Type: m["type"].(string)})
	}
	return out
}

func TestTextLabelCreatesSourceObjectMessageInOrder(t *testing.T) {
	testlog.Start(t)
	c, dev, direct := newComposer(t)

	plan, err := TextLabel("Hello", "World")
	require.NoError(t, err)
	report, err := c.Run(context.Background(), plan)
	require.NoError(t, err)
	assert.Nil(t, report.Failed)
	assert.NotEqual(t, uuid.Nil, report.RunID)

	assert.Equal(t, []string{"post /data/source", "post /data/object", "post /data/data"}, direct.Paths())
	reqs := direct.Requests()
	assert.Equal(t, "text", reqs[0]["type"])
	assert.Equal(t, map[string]any{"content": "World"}, reqs[0]["attribute"])

	require.Len(t, report.Sources, 1)
	require.Len(t, report.Objects, 1)
	srcID := report.Sources[0].Ref.ID
	objID := report.Objects[0].Ref.ID
	assert.Equal(t, []protocol.Ref{{ID: srcID, Type: "text"}}, refsOf(t, reqs[1]["source_list"]))
	assert.Equal(t, []protocol.Ref{{ID: objID, Type: "text"}}, refsOf(t, reqs[2]["object_list"]))

	msg, ok := dev.Message(report.MessageID)
	require.True(t, ok)
	assert.Equal(t, "Hello", msg["name"])
}

func TestRunHaltsAtFailedObjectAndReportsCreated(t *testing.T) {
	testlog.Start(t)
	c, dev, direct := newComposer(t)
	dev.FailOn("post", "/data/object", 3, "Error")

	plan, err := ProductLabel("Pharma", sampleFields, DefaultOptions())
	require.NoError(t, err)
	report, err := c.Run(context.Background(), plan)
	require.Error(t, err)
	assert.ErrorIs(t, err, protocol.ErrDevice)

	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, StageObject, stepErr.Stage)
	assert.Equal(t, label.FieldEXP, stepErr.Name)
	assert.Same(t, report.Failed, stepErr)
	assert.Len(t, report.Sources, 9)
	assert.Len(t, report.Objects, 2)
	assert.Len(t, stepErr.Created, 11)
	assert.Equal(t, report.Created(), stepErr.Created)
	for i, a := range stepErr.Created {
		assert.Equal(t, 101+i, a.Ref.ID, "artifact %d %q", i, a.Name)
	}
	for _, a := range report.Sources {
		rec, ok := dev.Source(a.Ref.ID)
		require.True(t, ok, "source %d not on device", a.Ref.ID)
		assert.Equal(t, a.Name, rec["name"])
		assert.Equal(t, a.Ref.Type, rec["type"])
	}
	for _, a := range report.Objects {
		rec, ok := dev.Object(a.Ref.ID)
		require.True(t, ok, "object %d not on device", a.Ref.ID)
		assert.Equal(t, a.Name, rec["name"])
	}
	assert.Zero(t, report.MessageID)
	assert.NotContains(t, direct.Paths(), "post /data/data")

	sources, objects, messages := dev.Counts()
	assert.Equal(t, 9, sources)
	assert.Equal(t, 2, objects)
	assert.Equal(t, 0, messages)

	require.NoError(t, c.Cleanup(context.Background(), report))
	sources, objects, messages = dev.Counts()
	assert.Equal(t, 0, sources+objects+messages)
}

func TestRunHaltsAtFailedSourceBeforeAnyObject(t *testing.T) {
	testlog.Start(t)
	c, dev, direct := newComposer(t)
	dev.FailOn("post", "/data/source", 1, "Error")

	plan, err := TextLabel("Hello", "World")
	require.NoError(t, err)
	report, err := c.Run(context.Background(), plan)
	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, StageSource, stepErr.Stage)
	assert.Empty(t, stepErr.Created)
	assert.Empty(t, report.Sources)
	assert.Equal(t, []string{"post /data/source"}, direct.Paths())
}

func TestRunTimeoutIsReportedWithTaxonomyError(t *testing.T) {
	testlog.Start(t)
	c := New(command.New(fakeprinter.NewDirect(func(map[string]any) fakeprinter.Reply {
		return fakeprinter.Reply{Silent: true}
	})))
	plan, err := TextLabel("Hello", "World")
	require.NoError(t, err)
	_, err = c.Run(context.Background(), plan)
	assert.ErrorIs(t, err, protocol.ErrTimeout)
}

func TestProductLabelDynamicOrderingAndSharedDate(t *testing.T) {
	testlog.Start(t)
	c, dev, _ := newComposer(t)

	plan, err := ProductLabel("Pharma", sampleFields, DefaultOptions())
	require.NoError(t, err)
	report, err := c.Run(context.Background(), plan)
	require.NoError(t, err)

	names := make([]string, 0, len(report.Sources))
	for _, a := range report.Sources {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{
		"GTIN", "MFG", "EXP", "BATCH", "SN",
		"Pharma_QRPrefix", "Pharma_SN", "Pharma_QRSuffix", "Pharma_QRDate",
	}, names)

	msg, ok := dev.Message(report.MessageID)
	require.True(t, ok)
	order := refsOf(t, msg["object_list"])
	require.Len(t, order, 7)
	for i := 0; i < 5; i++ {
		assert.Equal(t, "text", order[i].Type)
	}
	assert.Equal(t, "barcode", order[5].Type)
	assert.Equal(t, "text", order[6].Type)

	barcode, ok := dev.Object(order[5].ID)
	require.True(t, ok)
	symbol := refsOf(t, barcode["source_list"])
	require.Len(t, symbol, 4)
	assert.Equal(t, []string{"text", "text", "text", "date"},
		[]string{symbol[0].Type, symbol[1].Type, symbol[2].Type, symbol[3].Type})

	prefix, _ := dev.Source(symbol[0].ID)
	assert.Equal(t, map[string]any{"content": "010896110153271021"}, prefix["attribute"])
	suffix, _ := dev.Source(symbol[2].ID)
	assert.Equal(t, map[string]any{"content": "1729010010153A26"}, suffix["attribute"])

	stamp, ok := dev.Object(order[6].ID)
	require.True(t, ok)
	assert.Equal(t, SerialDateName, stamp["name"])
	assert.Equal(t, []protocol.Ref{symbol[3]}, refsOf(t, stamp["source_list"]))
	style := stamp["style"].(map[string]any)
	assert.Equal(t, float64(693), style["x"])
	assert.Equal(t, float64(205), style["y"])

	prefs := msg["attribute"].(map[string]any)["printdata_pref"].(map[string]any)["print_prefs"].([]any)
	require.Len(t, prefs, 4)
	assert.Equal(t, float64(60), prefs[0].(map[string]any)["ff_margin"])
}

func TestProductLabelSingleCreatesOwnSerialDate(t *testing.T) {
	testlog.Start(t)
	c, dev, _ := newComposer(t)

	plan, err := ProductLabel("Pharma", sampleFields, Options{Barcode: BarcodeSingle, SNDate: true})
	require.NoError(t, err)
	sources, objects := plan.Counts()
	assert.Equal(t, 7, sources)
	assert.Equal(t, 7, objects)

	report, err := c.Run(context.Background(), plan)
	require.NoError(t, err)
	data, ok := dev.Source(report.Sources[5].Ref.ID)
	require.True(t, ok)
	assert.Equal(t, map[string]any{
		"content": label.GS1(sampleFields.GTIN, sampleFields.SN, sampleFields.EXP, sampleFields.Batch),
	}, data["attribute"])
	assert.Equal(t, SerialDateName, report.Sources[6].Name)
	assert.Equal(t, "date", report.Sources[6].Ref.Type)
}

func TestProductLabelMultiWithoutSerialDate(t *testing.T) {
	testlog.Start(t)
	plan, err := ProductLabel("Pharma", sampleFields, Options{Barcode: BarcodeMulti})
	require.NoError(t, err)
	sources, objects := plan.Counts()
	assert.Equal(t, 7, sources)
	assert.Equal(t, 6, objects)
	assert.Equal(t, "Pharma", plan.MessageName())

	_, err = ProductLabel("Pharma", sampleFields, Options{Barcode: "qr"})
	assert.ErrorIs(t, err, ErrBarcodeMode)
	_, err = ProductLabel(" ", sampleFields, DefaultOptions())
	assert.ErrorIs(t, err, ErrInvalidStep)
}

func TestParseBarcodeMode(t *testing.T) {
	testlog.Start(t)
	mode, err := ParseBarcodeMode("")
	require.NoError(t, err)
	assert.Equal(t, BarcodeDynamic, mode)
	mode, err = ParseBarcodeMode(" Single ")
	require.NoError(t, err)
	assert.Equal(t, BarcodeSingle, mode)
	_, err = ParseBarcodeMode("matrix")
	assert.ErrorIs(t, err, ErrBarcodeMode)
}

func TestPlanRejectsForeignHandlesAndIncompletePlans(t *testing.T) {
	testlog.Start(t)
	a := NewPlan()
	b := NewPlan()
	src := a.AddSource("s", command.SourceText, textContent("x"))

	_, err := b.AddObject("o", command.ObjectText, DefaultTextStyle(), src)
	assert.ErrorIs(t, err, ErrForeignHandle)
	_, err = a.AddObject("o", "video", DefaultTextStyle(), src)
	assert.ErrorIs(t, err, ErrInvalidStep)
	_, err = a.AddObject("o", command.ObjectText, DefaultTextStyle())
	assert.ErrorIs(t, err, ErrInvalidStep)

	obj, err := a.AddObject("o", command.ObjectText, DefaultTextStyle(), src)
	require.NoError(t, err)
	assert.ErrorIs(t, b.SetMessage("m", nil, obj), ErrForeignHandle)
	assert.ErrorIs(t, a.Validate(), ErrEmptyPlan)
	assert.ErrorIs(t, a.SetMessage("m", command.DefaultPrintPrefs()[:2], obj), ErrInvalidStep)
	require.NoError(t, a.SetMessage("m", nil, obj))
	assert.ErrorIs(t, a.SetMessage("m", nil, obj), ErrMessageSet)
	assert.NoError(t, a.Validate())

	bad := NewPlan()
	s := bad.AddSource("s", "video", textContent("x"))
	o, err := bad.AddObject("o", command.ObjectText, DefaultTextStyle(), s)
	require.NoError(t, err)
	require.NoError(t, bad.SetMessage("m", nil, o))
	c, _, direct := newComposer(t)
	_, err = c.Run(context.Background(), bad)
	assert.ErrorIs(t, err, ErrInvalidStep)
	assert.Empty(t, direct.Requests())
}

func TestUpdatersResubmitFullRecords(t *testing.T) {
	testlog.Start(t)
	c, dev, direct := newComposer(t)
	ctx := context.Background()

	plan, err := ProductLabel("Pharma", sampleFields, Options{Barcode: BarcodeSingle})
	require.NoError(t, err)
	report, err := c.Run(ctx, plan)
	require.NoError(t, err)
	before, ok := dev.Message(report.MessageID)
	require.True(t, ok)
	objects := refsOf(t, before["object_list"])
	require.Len(t, objects, 6)

	require.NoError(t, c.RenameMessage(ctx, report.MessageID, "Renamed"))
	after, _ := dev.Message(report.MessageID)
	assert.Equal(t, "Renamed", after["name"])
	assert.Equal(t, objects, refsOf(t, after["object_list"]))
	assert.Equal(t, before["attribute"], after["attribute"])

	require.NoError(t, c.ReplaceMessageObjects(ctx, report.MessageID, objects[:2]))
	after, _ = dev.Message(report.MessageID)
	assert.Equal(t, objects[:2], refsOf(t, after["object_list"]))

	gtin := report.Objects[0].Ref.ID
	batch := report.Sources[3].Ref
	require.NoError(t, c.SetObjectSources(ctx, gtin, []protocol.Ref{batch}))
	obj, _ := dev.Object(gtin)
	assert.Equal(t, []protocol.Ref{batch}, refsOf(t, obj["source_list"]))
	assert.Equal(t, "GTIN", obj["name"])
	assert.NotNil(t, obj["style"])

	paths := direct.Paths()
	assert.Equal(t, "put /data/object", paths[len(paths)-1])
	assert.Equal(t, "get /data/object", paths[len(paths)-2])
}

func TestCleanupJoinsFailures(t *testing.T) {
	testlog.Start(t)
	c, _, _ := newComposer(t)
	err := c.Cleanup(context.Background(), Report{
		MessageID: 900,
		Objects:   []Artifact{{Name: "o", Ref: protocol.Ref{ID: 901, Type: "text"}}},
		Sources:   []Artifact{{Name: "s", Ref: protocol.Ref{ID: 902, Type: "text"}}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, protocol.ErrDevice)
	assert.Contains(t, err.Error(), "message 900")
	assert.Contains(t, err.Error(), `source "s" (902)`)
}
