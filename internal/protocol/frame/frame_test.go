package frame

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/danmuck/inkctl/internal/testutil/testlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadWriteFrameRoundTrip(t *testing.T) {
	testlog.Start(t)
	payload := []byte(`{"status":"ok","id":7}`)
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, payload, DefaultLimits()))
	assert.True(t, bytes.HasSuffix(buf.Bytes(), Terminator))

	out, err := ReadFrame(bufio.NewReader(&buf), DefaultLimits())
	require.NoError(t, err)
	assert.True(t, out.Terminated)
	assert.Equal(t, payload, out.Payload)
}

func TestReadFrameAcrossSplitWrites(t *testing.T) {
	testlog.Start(t)
	pr, pw := io.Pipe()
	go func() {
		_, _ = pw.Write([]byte(`{"status":`))
		_, _ = pw.Write([]byte(`"ok"}` + "\r"))
		_, _ = pw.Write([]byte("\n"))
	}()
	out, err := ReadFrame(bufio.NewReader(pr), DefaultLimits())
	require.NoError(t, err)
	assert.Equal(t, `{"status":"ok"}`, string(out.Payload))
	_ = pr.Close()
}

func TestReadFrameBareNewlineIsNotTerminator(t *testing.T) {
	testlog.Start(t)
	r := bufio.NewReader(bytes.NewReader([]byte("{\"a\":\n1}\r\n")))
	out, err := ReadFrame(r, DefaultLimits())
	require.NoError(t, err)
	assert.True(t, out.Terminated)
	assert.Equal(t, "{\"a\":\n1}", string(out.Payload))
}

func TestReadFramePeerCloseReturnsAccumulated(t *testing.T) {
	testlog.Start(t)
	out, err := ReadFrame(bufio.NewReader(bytes.NewReader([]byte(`{"status":"ok"}`))), DefaultLimits())
	require.NoError(t, err)
	assert.False(t, out.Terminated)
	assert.Equal(t, `{"status":"ok"}`, string(out.Payload))

	out, err = ReadFrame(bufio.NewReader(bytes.NewReader(nil)), DefaultLimits())
	require.NoError(t, err)
	assert.False(t, out.Terminated)
	assert.Empty(t, out.Payload)
}

func TestReadFrameLargePayloadSpansBuffer(t *testing.T) {
	testlog.Start(t)
	big := bytes.Repeat([]byte("x"), 3*4096+17)
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, big, DefaultLimits()))
	out, err := ReadFrame(bufio.NewReaderSize(&buf, 16), DefaultLimits())
	require.NoError(t, err)
	assert.Equal(t, big, out.Payload)
}

func TestReadFramePayloadTooLarge(t *testing.T) {
	testlog.Start(t)
	data := append(bytes.Repeat([]byte("x"), 64), Terminator...)
	_, err := ReadFrame(bufio.NewReaderSize(bytes.NewReader(data), 16), Limits{MaxPayloadBytes: 32})
	assert.True(t, errors.Is(err, ErrPayloadTooLarge), "got %v", err)
}

func TestWriteFrameRejectsBadPayloads(t *testing.T) {
	testlog.Start(t)
	var buf bytes.Buffer
	assert.ErrorIs(t, WriteFrame(&buf, nil, DefaultLimits()), ErrEmptyPayload)
	assert.ErrorIs(t, WriteFrame(&buf, []byte("a\r\nb"), DefaultLimits()), ErrEmbeddedTerminator)
	assert.ErrorIs(t, WriteFrame(&buf, []byte("abcdef"), Limits{MaxPayloadBytes: 3}), ErrPayloadTooLarge)
	assert.Zero(t, buf.Len())
}
