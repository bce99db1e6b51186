// Package leds drives the appliance's nine-emitter RGB indicator ring:
// spec section 3 "LED indicator set" and section 4.5's ring animation.
// The LED files are owned exclusively by the UI task (spec section 5); this
// package has no goroutine of its own, it is only ever called synchronously
// from there.
//
// Grounded on the teacher's ptt.go sysfs-write pattern (open, WriteString an
// ASCII integer, close, on every set — no retained file handle) and on
// ptt_test.go's mock Line double for GPIO output, generalized from a single
// PTT line to nine independently addressable brightness lines.
package leds

import (
	"fmt"
	"os"
)

// Emitter names the nine files spec section 6 requires:
// /sys/class/leds/pca995x:{red,green,blue}{0,1,2}/brightness.
type Emitter int

const (
	Red0 Emitter = iota
	Green0
	Blue0
	Red1
	Green1
	Blue1
	Red2
	Green2
	Blue2
	emitterCount
)

func (e Emitter) sysfsName() string {
	names := [emitterCount]string{
		"pca995x:red0", "pca995x:green0", "pca995x:blue0",
		"pca995x:red1", "pca995x:green1", "pca995x:blue1",
		"pca995x:red2", "pca995x:green2", "pca995x:blue2",
	}
	return names[e]
}

// Line is a single brightness-controlled output. SetValue takes a
// brightness in [0,255]; sysfsLine and the go-gpiocdev backend both
// implement it, and tests use a mock the way ptt_test.go does for PTT.
type Line interface {
	SetValue(v int) error
	Close() error
}

// sysfsLine writes an ASCII brightness value to a sysfs brightness file on
// every call, the same open/write/close-per-call discipline ptt.go uses for
// GPIO value files — there is no retained file handle to go stale.
type sysfsLine struct {
	path string
}

func newSysfsLine(root string, e Emitter) *sysfsLine {
	return &sysfsLine{path: fmt.Sprintf("%s/%s/brightness", root, e.sysfsName())}
}

func (l *sysfsLine) SetValue(v int) error {
	f, err := os.OpenFile(l.path, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("leds: open %s: %w", l.path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(fmt.Sprintf("%d", v)); err != nil {
		return fmt.Errorf("leds: write %s: %w", l.path, err)
	}
	return nil
}

func (l *sysfsLine) Close() error { return nil }

// DefaultSysfsRoot is where the nine emitter directories live on the
// reference hardware.
const DefaultSysfsRoot = "/sys/class/leds"

// RGB is one emitter's three channel brightness values.
type RGB struct {
	R, G, B int
}

// phaseTable is the five-phase ring rotation from spec section 4.5.
var phaseTable = [5][3]RGB{
	{{0, 0, 0}, {0, 0, 0}, {0, 0, 0}},
	{{128, 128, 128}, {128, 128, 128}, {128, 128, 128}},
	{{128, 0, 0}, {0, 128, 0}, {0, 0, 128}},
	{{0, 128, 0}, {0, 0, 128}, {128, 0, 0}},
	{{0, 0, 128}, {128, 0, 0}, {0, 128, 0}},
}

// Ring owns the nine Lines (three per emitter position) and the animation
// phase counter. It is not safe for concurrent use; the UI task is its only
// caller.
type Ring struct {
	lines [emitterCount]Line
	phase int
}

// NewRing builds a Ring backed by sysfs brightness files under root.
func NewRing(root string) *Ring {
	r := &Ring{}
	for e := Emitter(0); e < emitterCount; e++ {
		r.lines[e] = newSysfsLine(root, e)
	}
	return r
}

// NewRingWithLines builds a Ring over caller-supplied Lines, for tests and
// for the go-gpiocdev-backed alternative in gpiocdev.go.
func NewRingWithLines(lines [9]Line) *Ring {
	return &Ring{lines: lines}
}

// Advance moves to the next animation phase (wrapping 0,1,2,3,4,0,...) and
// writes the corresponding brightness values, matching Scenario 6: five
// successive calls starting at phase 0 visit 1,2,3,4,0 in order.
func (r *Ring) Advance() error {
	r.phase = (r.phase + 1) % len(phaseTable)
	return r.writePhase(r.phase)
}

// Phase reports the current animation phase, for tests.
func (r *Ring) Phase() int { return r.phase }

func (r *Ring) writePhase(phase int) error {
	values := phaseTable[phase]
	sets := [emitterCount]int{
		values[0].R, values[0].G, values[0].B,
		values[1].R, values[1].G, values[1].B,
		values[2].R, values[2].G, values[2].B,
	}
	var firstErr error
	for e := Emitter(0); e < emitterCount; e++ {
		if err := r.lines[e].SetValue(sets[e]); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// StopAnimation writes "0" to all nine files and resets the phase counter to
// 0, per Scenario 6.
func (r *Ring) StopAnimation() error {
	r.phase = 0
	var firstErr error
	for e := Emitter(0); e < emitterCount; e++ {
		if err := r.lines[e].SetValue(0); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close releases any resources the underlying Lines hold (relevant to the
// go-gpiocdev backend; sysfsLine.Close is a no-op).
func (r *Ring) Close() error {
	var firstErr error
	for e := Emitter(0); e < emitterCount; e++ {
		if err := r.lines[e].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
