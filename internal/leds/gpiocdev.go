package leds

import "github.com/warthog618/go-gpiocdev"

// gpiocdevLine adapts a *gpiocdev.Line to the Line interface, for boards
// where the LED controller is exposed as gpiochip lines rather than the
// pca995x sysfs LED class driver.
type gpiocdevLine struct {
	line *gpiocdev.Line
}

func (g *gpiocdevLine) SetValue(v int) error {
	return g.line.SetValue(v)
}

func (g *gpiocdevLine) Close() error {
	return g.line.Close()
}

// NewGPIOCdevRing opens nine output lines on chip, at the nine offsets
// given in emitter order (Red0, Green0, Blue0, Red1, ...), as an
// alternative to the sysfs-backed Ring.
func NewGPIOCdevRing(chip string, offsets [9]int) (*Ring, error) {
	var lines [9]Line
	for i, off := range offsets {
		l, err := gpiocdev.RequestLine(chip, off, gpiocdev.AsOutput(0))
		if err != nil {
			for j := 0; j < i; j++ {
				_ = lines[j].Close()
			}
			return nil, err
		}
		lines[i] = &gpiocdevLine{line: l}
	}
	return NewRingWithLines(lines), nil
}
