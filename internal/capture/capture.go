// Package capture implements the audio capture pipeline: spec section
// 4.2. It reads interleaved stereo PCM from a capture device and, while
// recording, forwards each buffer to the network task as SendAudio.
//
// Grounded on the teacher's recv.go / demod.go read-loop shape (pull a
// buffer from the device, hand it to the next stage) generalized from a
// demodulator pipeline to a pass-through forwarder, since this appliance
// does no DSP on the way out — capture is a dumb microphone, not a modem.
package capture

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nyxwave/voxlink/internal/applog"
	"github.com/nyxwave/voxlink/internal/audio"
	"github.com/nyxwave/voxlink/internal/msg"
)

// commandTimeout bounds the try-receive of one command per loop
// iteration, per spec section 5's ≤5ms suspension-point bound for
// Capture.
const commandTimeout = 5 * time.Millisecond

// bufferFrames sizes the reusable read buffer to roughly one capture
// period. Implementations may tune this but must preserve the ordering
// of emitted frames (spec section 4.2).
const bufferFrames = 960

// Task runs the capture pipeline.
type Task struct {
	device    audio.CaptureDevice
	in        <-chan msg.InCmd
	network   msg.NetSender
	log       *log.Logger
	recording bool
	buf       []int16
}

// New constructs a capture Task. device is opened and closed by Run, not
// by New, so construction never touches hardware.
func New(device audio.CaptureDevice, in <-chan msg.InCmd, network msg.NetSender) *Task {
	return &Task{
		device:  device,
		in:      in,
		network: network,
		log:     applog.For("capture"),
		buf:     make([]int16, bufferFrames*audio.Channels),
	}
}

// Run opens the device and loops until ctx is cancelled or an Exit
// command arrives.
func (t *Task) Run(ctx context.Context) error {
	if err := t.device.Open(); err != nil {
		return err
	}
	defer t.device.Close()

	for {
		if ctx.Err() != nil {
			return nil
		}

		t.readOnce()

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

// readOnce attempts one device read. Device errors are logged and
// recovered from on the next iteration (spec section 7); they never stop
// the task. Ordering invariant (a): because recording only flips via the
// command channel processed once per loop, a Start is always observed
// before the Stop that follows it, and no audio read after Stop is ever
// forwarded.
func (t *Task) readOnce() {
	frames, err := t.device.Read(t.buf)
	if err != nil {
		t.log.Warn("capture device read error, recovering", "err", err)
		return
	}
	if frames == 0 || !t.recording {
		return
	}

	samples := make([]int16, frames*audio.Channels)
	copy(samples, t.buf[:frames*audio.Channels])
	t.network.Send(msg.SendAudio{Samples: samples})
}

func (t *Task) handle(cmd msg.InCmd) bool {
	switch cmd.(type) {
	case msg.Start:
		t.recording = true
	case msg.Stop:
		t.recording = false
	case msg.Exit:
		return true
	}
	return false
}
