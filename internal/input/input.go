// Package input implements the hardware input-event forwarder: spec
// section 4.4. It opens the first input device node, decodes raw evdev
// key events, and forwards the handful the appliance cares about as UI
// commands.
//
// Grounded on original_source/src/events.rs: the original spins up its
// own thread, opens /dev/input/event0 directly via the evdev crate, and
// matches on a fixed table of Key constants (KEY_UP/KEY_DOWN/KEY_MUTE/
// KEY_SELECT/KEY_OK). This package keeps that table verbatim but
// enumerates for "the first input device node" via go-udev rather than
// hardcoding event0, and decodes the wire struct itself since there is
// no Go evdev crate equivalent in the pack (spec section 6 names the
// evdev source as an external collaborator; only its byte layout is
// ours to reproduce).
package input

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jochenvg/go-udev"
	"golang.org/x/sys/unix"

	"github.com/nyxwave/voxlink/internal/applog"
	"github.com/nyxwave/voxlink/internal/msg"
)

// Linux evdev wire constants (linux/input-event-codes.h). Not exposed by
// golang.org/x/sys/unix, so named here directly.
const (
	evKey = 0x01

	keyUp     = 103
	keyDown   = 108
	keyMute   = 113
	keySelect = 353
	keyOk     = 352

	keyValuePress = 1
)

// commandTimeout bounds the try-receive of one command per loop
// iteration, keeping the forwarder responsive to Exit even while no key
// events arrive.
const commandTimeout = 20 * time.Millisecond

// rawEvent mirrors struct input_event on 64-bit Linux: two 8-byte
// timeval fields, then a 16-bit type, 16-bit code, and 32-bit value.
type rawEvent struct {
	Sec, Usec int64
	Type      uint16
	Code      uint16
	Value     int32
}

const rawEventSize = 24

// Task runs the hardware input forwarder.
type Task struct {
	devicePath string
	in         <-chan msg.EvtCmd
	ui         msg.UISender
	log        *log.Logger
}

// New constructs an input Task. If devicePath is empty, Run discovers the
// first input device node via udev.
func New(devicePath string, in <-chan msg.EvtCmd, ui msg.UISender) *Task {
	return &Task{
		devicePath: devicePath,
		in:         in,
		ui:         ui,
		log:        applog.For("input"),
	}
}

// Run opens the device and forwards mapped key presses until ctx is
// cancelled or an Exit command arrives.
func (t *Task) Run(ctx context.Context) error {
	path := t.devicePath
	if path == "" {
		var err error
		path, err = firstInputDeviceNode()
		if err != nil {
			return err
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("input: open %s: %w", path, err)
	}
	defer f.Close()

	// Non-blocking so a read with nothing pending returns immediately
	// instead of starving the command-channel select below.
	if err := unix.SetNonblock(int(f.Fd()), true); err != nil {
		t.log.Warn("input: set non-blocking failed", "err", err)
	}

	buf := make([]byte, rawEventSize)

	for {
		if ctx.Err() != nil {
			return nil
		}

		t.pollOnce(f, buf)

		select {
		case cmd, ok := <-t.in:
			if !ok {
				return nil
			}
			if t.handle(cmd) {
				return nil
			}
		case <-time.After(commandTimeout):
		case <-ctx.Done():
			return nil
		}
	}
}

// pollOnce reads and forwards as many pending events as are immediately
// available; a short read or EAGAIN just means nothing is pending yet.
func (t *Task) pollOnce(f *os.File, buf []byte) {
	for {
		n, err := f.Read(buf)
		if err != nil || n < rawEventSize {
			return
		}

		ev := decodeEvent(buf)
		if ev.Type != evKey || ev.Value != keyValuePress {
			continue
		}

		if cmd, ok := keyToCommand(ev.Code); ok {
			t.ui.Send(cmd)
		}
	}
}

func decodeEvent(buf []byte) rawEvent {
	return rawEvent{
		Sec:   int64(binary.LittleEndian.Uint64(buf[0:8])),
		Usec:  int64(binary.LittleEndian.Uint64(buf[8:16])),
		Type:  binary.LittleEndian.Uint16(buf[16:18]),
		Code:  binary.LittleEndian.Uint16(buf[18:20]),
		Value: int32(binary.LittleEndian.Uint32(buf[20:24])),
	}
}

// keyToCommand implements the spec section 4.4 mapping table. All other
// event kinds (axes, LEDs, force-feedback, unmapped keys) are discarded.
func keyToCommand(code uint16) (msg.UiCmd, bool) {
	switch code {
	case keyUp:
		return msg.IncreaseVolume{}, true
	case keyDown:
		return msg.DecreaseVolume{}, true
	case keyMute:
		return msg.ToggleMute{}, true
	case keySelect:
		return msg.AcceptCall{}, true
	case keyOk:
		return msg.StopCall{}, true
	default:
		return nil, false
	}
}

func (t *Task) handle(cmd msg.EvtCmd) bool {
	switch cmd.(type) {
	case msg.Exit:
		return true
	}
	return false
}

// firstInputDeviceNode enumerates /dev/input/event* nodes via udev and
// returns the lexically first, matching spec section 4.4's "opens the
// first input device node".
func firstInputDeviceNode() (string, error) {
	u := udev.Udev{}
	e := u.NewEnumerate()
	if err := e.AddMatchSubsystem("input"); err != nil {
		return "", fmt.Errorf("input: udev match subsystem: %w", err)
	}

	devices, err := e.Devices()
	if err != nil {
		return "", fmt.Errorf("input: udev enumerate: %w", err)
	}

	var nodes []string
	for _, d := range devices {
		node := d.Devnode()
		if strings.HasPrefix(node, "/dev/input/event") {
			nodes = append(nodes, node)
		}
	}
	if len(nodes) == 0 {
		return "", fmt.Errorf("input: no /dev/input/event* device node found")
	}
	sort.Strings(nodes)
	return nodes[0], nil
}
