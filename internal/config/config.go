// Package config loads the appliance's YAML configuration file. Spec
// section 6 specifies no command-line flags for the protocol itself, but
// the device-string knobs spec section 9's third open question leaves as
// "configuration input" have to live somewhere, so this package gives
// them a small on-disk home, loaded with gopkg.in/yaml.v3, the way the
// teacher's deviceid.go persists its own small YAML-shaped state.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the appliance's full runtime configuration.
type Config struct {
	// Port is the UDP port both the signalling and media protocol use,
	// default 33445 (spec section 6).
	Port int `yaml:"port"`

	// CaptureDevice and PlaybackDevice name the PortAudio device to open,
	// or "default" to use the host API's default (spec section 9, open
	// question 3).
	CaptureDevice  string `yaml:"capture_device"`
	PlaybackDevice string `yaml:"playback_device"`

	// LEDBackend selects the Line implementation internal/leds.Ring drives:
	// "sysfs" (default, the pca995x brightness files spec section 6 names)
	// or "gpiocdev" for boards exposing the LEDs as raw gpiochip lines.
	LEDBackend string `yaml:"led_backend"`

	// LEDSysfsRoot is the directory containing the nine pca995x LED
	// brightness files (spec section 6); used when LEDBackend is "sysfs".
	LEDSysfsRoot string `yaml:"led_sysfs_root"`

	// GPIOChip and GPIOOffsets name the gpiochip device and the nine line
	// offsets (Red0, Green0, Blue0, Red1, ...) to request when LEDBackend
	// is "gpiocdev".
	GPIOChip    string `yaml:"gpio_chip"`
	GPIOOffsets [9]int `yaml:"gpio_offsets"`

	// InputDevice overrides udev's "first input device node" discovery
	// (spec section 4.4); empty means auto-discover.
	InputDevice string `yaml:"input_device"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration a freshly unboxed appliance runs
// with, absent any config file.
func Default() Config {
	return Config{
		Port:           33445,
		CaptureDevice:  "default",
		PlaybackDevice: "default",
		LEDBackend:     "sysfs",
		LEDSysfsRoot:   "/sys/class/leds",
		GPIOChip:       "gpiochip0",
		GPIOOffsets:    [9]int{0, 1, 2, 3, 4, 5, 6, 7, 8},
		LogLevel:       "info",
	}
}

// Load reads and parses a YAML config file at path, starting from
// Default() so a partial file only overrides the fields it sets.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
