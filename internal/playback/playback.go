// Package playback implements the audio playback and mixer pipeline with
// buffered scheduling: spec section 4.3. It owns a FIFO of samples fed by
// Play commands and drains it onto the playback device only when the
// device reports idle — a deliberate jitter absorber (spec section 9),
// not an omission.
//
// Grounded on the teacher's tq.go transmit queue: many producers append,
// one consumer drains when the channel is clear. Here the "channel clear"
// condition is the playback device reporting !Running() instead of a
// CSMA carrier-sense result, and the queue itself is a plain slice FIFO
// rather than tq.go's linked list, since ordering is the only invariant
// that matters (spec section 3, "Playback queue").
package playback

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
// Playback.
const commandTimeout = 5 * time.Millisecond

// Task runs the playback pipeline.
type Task struct {
	device audio.PlaybackDevice
	in     <-chan msg.OutCmd
	log    *log.Logger

	queue []int16
}

// New constructs a playback Task.
func New(device audio.PlaybackDevice, in <-chan msg.OutCmd) *Task {
	return &Task{
		device: device,
		in:     in,
		log:    applog.For("playback"),
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

		t.drainOnce()

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

// drainOnce writes up to one device period's worth of samples from the
// front of the queue, provided there is anything queued and the device
// is not already draining a prior write.
func (t *Task) drainOnce() {
	if len(t.queue) == 0 || t.device.Running() {
		return
	}

	avail, err := t.device.AvailableFrames()
	if err != nil {
		t.log.Warn("playback device status error, recovering", "err", err)
		return
	}

	frames := avail
	if queuedFrames := len(t.queue) / audio.Channels; frames > queuedFrames {
		frames = queuedFrames
	}
	if frames == 0 {
		return
	}

	n := frames * audio.Channels
	chunk := t.queue[:n]
	if err := t.device.Write(chunk); err != nil {
		t.log.Warn("playback device write error, recovering", "err", err)
		return
	}
	t.queue = t.queue[n:]
}

func (t *Task) handle(cmd msg.OutCmd) bool {
	switch c := cmd.(type) {
	case msg.Play:
		t.queue = append(t.queue, c.Samples...)

	case msg.Stop:
		if err := t.device.Drop(); err != nil {
			t.log.Warn("playback device drop error", "err", err)
		}
		t.queue = t.queue[:0]

	case msg.SetVolume:
		if err := t.device.SetVolume(c.Volume); err != nil {
			t.log.Warn("playback set volume error", "err", err)
		}

	case msg.SetMute:
		if err := t.device.SetMute(c.Muted); err != nil {
			t.log.Warn("playback set mute error", "err", err)
		}

	case msg.Exit:
		return true
	}
	return false
}
