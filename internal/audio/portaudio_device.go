package audio

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"
)

// framesPerBuffer sizes the PortAudio ring buffer used by both capture
// and playback streams. 960 frames at 48kHz is a 20ms period, comfortably
// inside the suspension-point bound spec section 5 allows for blocking
// device writes.
const framesPerBuffer = 960

var (
	initMu    sync.Mutex
	initCount int
)

// initPortAudio and closePortAudio reference-count portaudio.Initialize
// since both the capture and playback pipeline construct a device from
// this package and PortAudio only wants to be initialized once per
// process.
func initPortAudio() error {
	initMu.Lock()
	defer initMu.Unlock()
	if initCount == 0 {
		if err := portaudio.Initialize(); err != nil {
			return fmt.Errorf("portaudio: initialize: %w", err)
		}
	}
	initCount++
	return nil
}

func closePortAudio() {
	initMu.Lock()
	defer initMu.Unlock()
	initCount--
	if initCount == 0 {
		_ = portaudio.Terminate()
	}
}

// PortAudioCapture is the default CaptureDevice implementation: the
// appliance's real "sound card", same format as PlaybackDevice (48kHz,
// S16, stereo interleaved). It uses PortAudio's blocking I/O mode — the
// stream's buffer is bound once at Open and Read/Write simply copy into
// or out of it — rather than a realtime callback, matching the
// read-then-forward shape spec section 4.2 describes.
type PortAudioCapture struct {
	deviceName string
	stream     *portaudio.Stream
	buffer     []int16
}

// NewPortAudioCapture names the device to open; an empty string or
// "default" selects the host API's default input device.
func NewPortAudioCapture(deviceName string) *PortAudioCapture {
	return &PortAudioCapture{deviceName: deviceName}
}

func (c *PortAudioCapture) Open() error {
	if err := initPortAudio(); err != nil {
		return err
	}

	dev, err := resolveInputDevice(c.deviceName)
	if err != nil {
		closePortAudio()
		return err
	}

	params := portaudio.LowLatencyParameters(dev, nil)
	params.Input.Channels = Channels
	params.SampleRate = SampleRate
	params.FramesPerBuffer = framesPerBuffer

	c.buffer = make([]int16, framesPerBuffer*Channels)

	stream, err := portaudio.OpenStream(params, c.buffer)
	if err != nil {
		closePortAudio()
		return fmt.Errorf("portaudio: open capture stream: %w", err)
	}
	c.stream = stream

	return stream.Start()
}

// Read blocks until one period's worth of frames has been captured, then
// copies as much of it as fits into buf. It returns the number of frames
// (not samples) copied.
func (c *PortAudioCapture) Read(buf []int16) (int, error) {
	if err := c.stream.Read(); err != nil {
		return 0, err
	}
	n := copy(buf, c.buffer)
	return n / Channels, nil
}

func (c *PortAudioCapture) Close() error {
	defer closePortAudio()
	if c.stream == nil {
		return nil
	}
	return c.stream.Close()
}

// PortAudioPlayback is the default PlaybackDevice implementation.
type PortAudioPlayback struct {
	deviceName string
	stream     *portaudio.Stream
	buffer     []int16

	running int32 // atomic bool: set while a Write has not yet drained

	volMu  sync.Mutex
	volume int // percent, 0-100
}

func NewPortAudioPlayback(deviceName string) *PortAudioPlayback {
	return &PortAudioPlayback{deviceName: deviceName, volume: 100}
}

func (p *PortAudioPlayback) Open() error {
	if err := initPortAudio(); err != nil {
		return err
	}

	dev, err := resolveOutputDevice(p.deviceName)
	if err != nil {
		closePortAudio()
		return err
	}

	params := portaudio.LowLatencyParameters(nil, dev)
	params.Output.Channels = Channels
	params.SampleRate = SampleRate
	params.FramesPerBuffer = framesPerBuffer

	p.buffer = make([]int16, framesPerBuffer*Channels)

	stream, err := portaudio.OpenStream(params, p.buffer)
	if err != nil {
		closePortAudio()
		return fmt.Errorf("portaudio: open playback stream: %w", err)
	}
	p.stream = stream

	return stream.Start()
}

// AvailableFrames reports the fixed period size; PortAudio's blocking
// Write call handles pacing internally, so the pipeline can always offer
// up to one full period per tick.
func (p *PortAudioPlayback) AvailableFrames() (int, error) {
	return framesPerBuffer, nil
}

func (p *PortAudioPlayback) Running() bool {
	return atomic.LoadInt32(&p.running) != 0
}

// Write copies buf (at most one period) into the stream's bound buffer,
// applies the current software gain, and blocks until PortAudio has
// accepted it.
func (p *PortAudioPlayback) Write(buf []int16) error {
	n := copy(p.buffer, buf)
	for i := n; i < len(p.buffer); i++ {
		p.buffer[i] = 0
	}
	p.applyGain(p.buffer)

	atomic.StoreInt32(&p.running, 1)
	err := p.stream.Write()
	atomic.StoreInt32(&p.running, 0)
	return err
}

func (p *PortAudioPlayback) Drop() error {
	atomic.StoreInt32(&p.running, 0)
	return p.stream.Abort()
}

func (p *PortAudioPlayback) SetVolume(percent int) error {
	p.volMu.Lock()
	p.volume = percent
	p.volMu.Unlock()
	return nil
}

func (p *PortAudioPlayback) SetMute(muted bool) error {
	// Spec section 4.3: mute sets the mixer to 0, unmute sets it to 100 —
	// it does not remember the volume that was active before mute.
	if muted {
		return p.SetVolume(0)
	}
	return p.SetVolume(100)
}

func (p *PortAudioPlayback) Close() error {
	defer closePortAudio()
	if p.stream == nil {
		return nil
	}
	return p.stream.Close()
}

// applyGain scales samples in place by the current software volume.
// PortAudio exposes no mixer element the way ALSA's simple-mixer API
// does, so volume/mute are implemented as a gain stage here instead
// (SPEC_FULL.md section B.5).
func (p *PortAudioPlayback) applyGain(buf []int16) {
	p.volMu.Lock()
	vol := p.volume
	p.volMu.Unlock()

	if vol == 100 {
		return
	}
	for i, s := range buf {
		buf[i] = int16(int32(s) * int32(vol) / 100)
	}
}

func resolveInputDevice(name string) (*portaudio.DeviceInfo, error) {
	if name == "" || name == "default" {
		return portaudio.DefaultInputDevice()
	}
	return findNamedDevice(name, true)
}

func resolveOutputDevice(name string) (*portaudio.DeviceInfo, error) {
	if name == "" || name == "default" {
		return portaudio.DefaultOutputDevice()
	}
	return findNamedDevice(name, false)
}

func findNamedDevice(name string, input bool) (*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	for _, d := range devices {
		if d.Name != name {
			continue
		}
		if input && d.MaxInputChannels >= Channels {
			return d, nil
		}
		if !input && d.MaxOutputChannels >= Channels {
			return d, nil
		}
	}
	return nil, fmt.Errorf("audio: device %q not found", name)
}
