package input

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyxwave/voxlink/internal/msg"
)

type recordingUI struct {
	ch chan msg.UiCmd
}

func newRecordingUI() *recordingUI { return &recordingUI{ch: make(chan msg.UiCmd, 32)} }

func (r *recordingUI) Send(c msg.UiCmd) { r.ch <- c }

func (r *recordingUI) expect(t *testing.T) msg.UiCmd {
	t.Helper()
	select {
	case c := <-r.ch:
		return c
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for ui command")
		return nil
	}
}

func encodeEvent(typ, code uint16, value int32) []byte {
	buf := make([]byte, rawEventSize)
	binary.LittleEndian.PutUint16(buf[16:18], typ)
	binary.LittleEndian.PutUint16(buf[18:20], code)
	binary.LittleEndian.PutUint32(buf[20:24], uint32(value))
	return buf
}

func writeFakeDevice(t *testing.T, events ...[]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "event0")
	f, err := os.Create(path)
	require.NoError(t, err)
	for _, ev := range events {
		_, err := f.Write(ev)
		require.NoError(t, err)
	}
	require.NoError(t, f.Close())
	return path
}

func TestKeyMappingForwardsExpectedCommands(t *testing.T) {
	cases := []struct {
		code uint16
		want msg.UiCmd
	}{
		{keyUp, msg.IncreaseVolume{}},
		{keyDown, msg.DecreaseVolume{}},
		{keyMute, msg.ToggleMute{}},
		{keySelect, msg.AcceptCall{}},
		{keyOk, msg.StopCall{}},
	}
	for _, c := range cases {
		got, ok := keyToCommand(c.code)
		require.True(t, ok)
		assert.Equal(t, c.want, got)
	}
}

func TestKeyMappingDiscardsUnmappedCodes(t *testing.T) {
	_, ok := keyToCommand(9999)
	assert.False(t, ok)
}

func TestNonKeyEventKindsAreDiscarded(t *testing.T) {
	path := writeFakeDevice(t,
		encodeEvent(0x02 /* EV_REL */, 0, 5),
		encodeEvent(evKey, keyUp, keyValuePress),
	)

	in := make(chan msg.EvtCmd, 1)
	ui := newRecordingUI()
	task := New(path, in, ui)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = task.Run(ctx) }()

	got := ui.expect(t)
	assert.Equal(t, msg.IncreaseVolume{}, got)

	in <- msg.Exit{}
}

func TestKeyReleaseIsIgnored(t *testing.T) {
	path := writeFakeDevice(t,
		encodeEvent(evKey, keyMute, 0), // release, not press
		encodeEvent(evKey, keyMute, keyValuePress),
	)

	in := make(chan msg.EvtCmd, 1)
	ui := newRecordingUI()
	task := New(path, in, ui)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = task.Run(ctx) }()

	got := ui.expect(t)
	assert.Equal(t, msg.ToggleMute{}, got)

	in <- msg.Exit{}
}

func TestExitStopsTheLoop(t *testing.T) {
	path := writeFakeDevice(t)

	in := make(chan msg.EvtCmd, 1)
	ui := newRecordingUI()
	task := New(path, in, ui)

	done := make(chan error, 1)
	go func() { done <- task.Run(context.Background()) }()

	in <- msg.Exit{}

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("task did not exit")
	}
}
