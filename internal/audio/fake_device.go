package audio

import "sync"

// FakeCapture is a CaptureDevice test double: Read returns whatever was
// queued with Feed, in order, without touching real hardware.
type FakeCapture struct {
	mu      sync.Mutex
	frames  [][]int16
	opened  bool
	readErr error
}

func NewFakeCapture() *FakeCapture { return &FakeCapture{} }

func (f *FakeCapture) Open() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened = true
	return nil
}

// Feed queues one buffer of interleaved stereo samples for a future Read.
func (f *FakeCapture) Feed(samples []int16) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, samples)
}

// FailNextRead makes the next Read return err instead of data.
func (f *FakeCapture) FailNextRead(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readErr = err
}

func (f *FakeCapture) Read(buf []int16) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.readErr != nil {
		err := f.readErr
		f.readErr = nil
		return 0, err
	}

	if len(f.frames) == 0 {
		return 0, nil
	}

	next := f.frames[0]
	f.frames = f.frames[1:]
	n := copy(buf, next)
	return n / Channels, nil
}

func (f *FakeCapture) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened = false
	return nil
}

// FakePlayback is a PlaybackDevice test double that records every Write
// and tracks Running the same way a real device would: true only while a
// Write is not yet "drained" (simulated by the test explicitly calling
// FinishWrite).
type FakePlayback struct {
	mu       sync.Mutex
	Written  [][]int16
	volume   int
	muted    bool
	running  bool
	avail    int
	dropped  int
	opened   bool
}

func NewFakePlayback() *FakePlayback {
	return &FakePlayback{volume: 100, avail: 960}
}

func (f *FakePlayback) Open() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened = true
	return nil
}

func (f *FakePlayback) AvailableFrames() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.avail, nil
}

func (f *FakePlayback) SetAvailableFrames(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.avail = n
}

func (f *FakePlayback) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func (f *FakePlayback) Write(buf []int16) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]int16, len(buf))
	copy(cp, buf)
	f.Written = append(f.Written, cp)
	f.running = true
	return nil
}

// FinishWrite simulates the device reporting idle again, the way a real
// PCM device eventually does once its buffer drains.
func (f *FakePlayback) FinishWrite() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = false
}

func (f *FakePlayback) Drop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dropped++
	f.running = false
	return nil
}

// DroppedCount reports how many times Drop has been called.
func (f *FakePlayback) DroppedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dropped
}

func (f *FakePlayback) SetVolume(percent int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.volume = percent
	return nil
}

func (f *FakePlayback) SetMute(muted bool) error {
	if muted {
		return f.SetVolume(0)
	}
	return f.SetVolume(100)
}

func (f *FakePlayback) Volume() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.volume
}

func (f *FakePlayback) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened = false
	return nil
}
