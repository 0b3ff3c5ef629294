package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"testing"

	"github.com/danmuck/inkctl/internal/command"
	"github.com/danmuck/inkctl/internal/testutil/fakeprinter"
	"github.com/danmuck/inkctl/internal/testutil/testlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startDevice(t *testing.T) (*fakeprinter.Device, []string) {
	t.Helper()
	dev := fakeprinter.NewDevice()
	srv := fakeprinter.Start(t, dev.Handle)
	return dev, []string{"-host", srv.Host(), "-port", strconv.Itoa(srv.Port())}
}

func TestRunPrintStatusPrintsResponse(t *testing.T) {
	testlog.Start(t)
	_, flags := startDevice(t)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), append(flags, "print", "status"), &out))

	var resp map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, "stopped", resp["state"])
}

func TestRunUnknownCommandFailsBeforeDialing(t *testing.T) {
	testlog.Start(t)
	var out bytes.Buffer
	err := run(context.Background(), []string{"-host", "127.0.0.1", "-port", "1", "print", "explode"}, &out)
	require.ErrorIs(t, err, command.ErrUnknownCommand)
}

func TestRunMissingArgumentsIsUsageError(t *testing.T) {
	testlog.Start(t)
	_, flags := startDevice(t)
	var out bytes.Buffer
	err := run(context.Background(), append(flags, "message", "find"), &out)
	require.ErrorIs(t, err, command.ErrUsage)
}

func TestRunHelpPrintsUsage(t *testing.T) {
	testlog.Start(t)
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"help"}, &out))
	assert.Contains(t, out.String(), "inkctl [flags] label text")
}

func TestRunLabelTextCreatesHierarchy(t *testing.T) {
	testlog.Start(t)
	dev, flags := startDevice(t)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), append(flags, "label", "text", "Hello", "World"), &out))

	var view reportView
	require.NoError(t, json.Unmarshal(out.Bytes(), &view))
	assert.Equal(t, "Hello", view.Message)
	assert.NotZero(t, view.MessageID)
	assert.Empty(t, view.Failed)
	require.Len(t, view.Sources, 1)
	require.Len(t, view.Objects, 1)

	sources, objects, messages := dev.Counts()
	assert.Equal(t, [3]int{1, 1, 1}, [3]int{sources, objects, messages})
}

func TestRunLabelTextReportsFailedStep(t *testing.T) {
	testlog.Start(t)
	dev, flags := startDevice(t)
	dev.FailOn("post", "/data/object", 1, "error")

	var out bytes.Buffer
	err := run(context.Background(), append(flags, "label", "text", "Hello", "World"), &out)
	require.Error(t, err)

	var view reportView
	require.NoError(t, json.Unmarshal(out.Bytes(), &view))
	assert.Contains(t, view.Failed, "object")
	assert.Len(t, view.Sources, 1)
	assert.Empty(t, view.Objects)
}

func TestRunLabelProductRequiresFields(t *testing.T) {
	testlog.Start(t)
	var out bytes.Buffer
	err := run(context.Background(), []string{"label", "product", "-gtin", "08961101532710"}, &out)
	require.ErrorIs(t, err, command.ErrUsage)
}

func TestRunLabelProductComposes(t *testing.T) {
	testlog.Start(t)
	dev, flags := startDevice(t)

	args := append(flags, "label", "product", "-name", "Pharma",
		"-gtin", "08961101532710", "-mfg", "012024", "-exp", "012026",
		"-batch", "A26", "-sn", "1", "-barcode", "single", "-no-sn-date")
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), args, &out))

	_, objects, messages := dev.Counts()
	assert.Equal(t, 1, messages)
	assert.Equal(t, 6, objects)
}

func TestRunLabelShowListsSources(t *testing.T) {
	testlog.Start(t)
	_, flags := startDevice(t)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), append(flags, "label", "text", "Hello", "World"), &out))
	var view reportView
	require.NoError(t, json.Unmarshal(out.Bytes(), &view))

	out.Reset()
	require.NoError(t, run(context.Background(), append(flags, "label", "show", strconv.Itoa(view.MessageID)), &out))
	assert.Contains(t, out.String(), `"Hello"`)
	assert.Contains(t, out.String(), "content=World")
}

func TestRunMonitorOncePrintsSnapshot(t *testing.T) {
	testlog.Start(t)
	_, flags := startDevice(t)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), append(flags, "monitor", "-once"), &out))

	var snap map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &snap))
	assert.Equal(t, "stopped", snap["state"])
	assert.EqualValues(t, 1, snap["seq"])
}
