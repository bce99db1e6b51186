package tui

import (
	"io"
	"os"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ptySource adapts a pty's master end to byteSource for termKeyReader,
// since the real SetReadTimeout contract (github.com/pkg/term) isn't
// available over a plain os.File; tests only need "don't block forever".
type ptySource struct {
	f *os.File
}

func (p ptySource) SetReadTimeout(d time.Duration) error {
	return p.f.SetReadDeadline(time.Now().Add(d))
}

func (p ptySource) Read(buf []byte) (int, error) {
	return p.f.Read(buf)
}

func newPtyKeyReader(t *testing.T) (KeyReader, func(string)) {
	t.Helper()
	ptmx, tty, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() {
		ptmx.Close()
		tty.Close()
	})

	reader := NewKeyReaderFromSource(ptySource{f: ptmx})
	write := func(s string) {
		_, err := tty.Write([]byte(s))
		require.NoError(t, err)
	}
	return reader, write
}

func TestTermKeyReaderDecodesPlainChar(t *testing.T) {
	reader, write := newPtyKeyReader(t)
	write("q")

	ev, ok, err := reader.ReadKey(time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, KeyChar, ev.Key)
	assert.Equal(t, 'q', ev.Rune)
}

func TestTermKeyReaderDecodesEnterAndBackspace(t *testing.T) {
	reader, write := newPtyKeyReader(t)

	write("\r")
	ev, ok, err := reader.ReadKey(time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, KeyEnter, ev.Key)

	write("\x7f")
	ev, ok, err = reader.ReadKey(time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, KeyBackspace, ev.Key)
}

func TestTermKeyReaderDecodesArrowKeys(t *testing.T) {
	reader, write := newPtyKeyReader(t)

	write("\x1b[A")
	ev, ok, err := reader.ReadKey(time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, KeyUp, ev.Key)

	write("\x1b[B")
	ev, ok, err = reader.ReadKey(time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, KeyDown, ev.Key)
}

func TestTermKeyReaderBareEscIsEsc(t *testing.T) {
	reader, write := newPtyKeyReader(t)
	write("\x1b")

	ev, ok, err := reader.ReadKey(50 * time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, KeyEsc, ev.Key)
}

func TestTermKeyReaderTimesOutWithNothingPending(t *testing.T) {
	reader, _ := newPtyKeyReader(t)

	_, ok, err := reader.ReadKey(20 * time.Millisecond)
	if err != nil {
		require.ErrorIs(t, err, io.EOF, "a pty read deadline should either time out cleanly or report EOF-like no-data")
	}
	assert.False(t, ok)
}
