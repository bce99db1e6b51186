// Package audio defines the narrow device interfaces the capture and
// playback pipelines consume, and the PortAudio-backed implementation
// that satisfies them on real hardware.
//
// Spec section 1 scopes the specific ALSA-equivalent driver out of the
// core; this package is the seam: internal/capture and internal/playback
// depend only on CaptureDevice/PlaybackDevice, never on PortAudio types
// directly, grounded on the teacher's adev_s device abstraction in
// audio.go (per-device state behind a small set of operations, however
// many concrete backends exist underneath).
package audio

// SampleRate and Channels are fixed by spec section 6: 48kHz, stereo
// interleaved. The sample format, signed 16-bit, is carried by the []int16
// buffers below rather than a constant. There is no negotiation (spec
// section 1 non-goals: no codec negotiation).
const (
	SampleRate = 48000
	Channels   = 2
)

// CaptureDevice is the narrow view of a capture-direction device that
// internal/capture needs.
type CaptureDevice interface {
	// Open prepares the device for reading. Safe to call again after
	// Close.
	Open() error
	// Read fills buf with interleaved stereo samples and returns how many
	// frames (not samples) were read. A transient error is recoverable:
	// the caller logs it and retries on the next loop iteration.
	Read(buf []int16) (frames int, err error)
	Close() error
}

// PlaybackDevice is the narrow view of a playback-direction device that
// internal/playback needs. Volume/mute are modeled as a software gain
// stage (see SPEC_FULL.md section B.5) applied by the device
// implementation before frames reach the hardware.
type PlaybackDevice interface {
	Open() error
	// AvailableFrames reports how many frames can currently be written
	// without blocking. internal/playback uses it to decide how much of
	// its FIFO to drain on this tick.
	AvailableFrames() (int, error)
	// Running reports whether the device is actively draining a prior
	// write; the playback pipeline refuses to write while true (spec
	// section 9, "Playback admission").
	Running() bool
	// Write submits interleaved stereo samples for playback.
	Write(buf []int16) error
	// Drop halts playback immediately, discarding whatever the device
	// itself was still draining.
	Drop() error
	SetVolume(percent int) error
	SetMute(muted bool) error
	Close() error
}
