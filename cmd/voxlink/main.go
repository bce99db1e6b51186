// Command voxlink is the call appliance's entrypoint. It wires together
// the five concurrent tasks — Network, Capture, Playback, Input, UI — and
// drives the bootstrap/shutdown sequence spec section 4.1 and section 6
// describe.
//
// Grounded on original_source/src/main.rs's task construction and join
// order (Playback, Network, Capture, then the terminal task; a settle
// sleep; two bootstrap sends to Network; decode-and-play the startup
// tone; join the terminal task; then Exit the remaining tasks and join
// each in turn), adapted to this module's five-task split — the
// original's single "input_audio_task" corresponds to this module's
// Capture task, not Input, which forwards hardware keypresses and has no
// counterpart bootstrap handshake.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	flag "github.com/spf13/pflag"

	"github.com/nyxwave/voxlink/internal/applog"
	"github.com/nyxwave/voxlink/internal/assets"
	"github.com/nyxwave/voxlink/internal/audio"
	"github.com/nyxwave/voxlink/internal/capture"
	"github.com/nyxwave/voxlink/internal/chanutil"
	"github.com/nyxwave/voxlink/internal/config"
	"github.com/nyxwave/voxlink/internal/input"
	"github.com/nyxwave/voxlink/internal/leds"
	"github.com/nyxwave/voxlink/internal/msg"
	"github.com/nyxwave/voxlink/internal/network"
	"github.com/nyxwave/voxlink/internal/playback"
	"github.com/nyxwave/voxlink/internal/tones"
	"github.com/nyxwave/voxlink/internal/tui"
)

// bootstrapSettle is the pause between constructing every task and
// sending Network its two bootstrap handles, matching the original
// implementation's sleep before its first queue send.
const bootstrapSettle = 100 * time.Millisecond

func main() {
	configPath := flag.StringP("config", "c", "", "path to a YAML configuration file (defaults built in if omitted)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "voxlink: ", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil {
		applog.SetLevel(lvl)
	}

	logger := applog.For("main")
	logger.Info(applog.SessionBanner(time.Now()))

	if err := run(cfg, logger); err != nil {
		logger.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *log.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("voxlink: panic recovered: %v", r)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	uiQueue := chanutil.NewUnbounded[msg.UiCmd]()
	netQueue := chanutil.NewUnbounded[msg.NetCmd]()
	captureQueue := chanutil.NewUnbounded[msg.InCmd]()
	playbackQueue := chanutil.NewUnbounded[msg.OutCmd]()
	inputQueue := chanutil.NewUnbounded[msg.EvtCmd]()

	playbackDevice := audio.NewPortAudioPlayback(cfg.PlaybackDevice)
	captureDevice := audio.NewPortAudioCapture(cfg.CaptureDevice)

	playbackTask := playback.New(playbackDevice, playbackQueue.Out())

	netTask, err := network.New(fmt.Sprintf("0.0.0.0:%d", cfg.Port), netQueue.Out())
	if err != nil {
		return fmt.Errorf("voxlink: bind network task: %w", err)
	}

	captureTask := capture.New(captureDevice, captureQueue.Out(), netQueue)

	inputTask := input.New(cfg.InputDevice, inputQueue.Out(), uiQueue)

	keys, err := tui.NewTermKeyReader("/dev/tty")
	if err != nil {
		return fmt.Errorf("voxlink: open controlling terminal: %w", err)
	}
	defer keys.Close()

	ring, err := newRing(cfg)
	if err != nil {
		return fmt.Errorf("voxlink: open led ring: %w", err)
	}
	defer ring.Close()

	uiTask := tui.New(tui.Deps{
		Keys:     keys,
		Ring:     ring,
		Network:  netQueue,
		Capture:  captureQueue,
		Playback: playbackQueue,
		Decoder:  tones.NullDecoder{},
		RingTone: assets.IncomingCall(),
	})

	var wg sync.WaitGroup
	runTask := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				logger.Error("task exited with error", "task", name, "err", err)
			}
		}()
	}

	// Construction and launch order matches the original implementation:
	// Playback, Network, Capture, then the terminal task. Input has no
	// counterpart there; it is launched alongside Capture since neither
	// blocks on a bootstrap handshake.
	runTask("playback", playbackTask.Run)
	runTask("network", netTask.Run)
	runTask("capture", captureTask.Run)
	runTask("input", inputTask.Run)

	time.Sleep(bootstrapSettle)

	netQueue.Send(msg.MainTaskQueue{Queue: uiQueue})
	netQueue.Send(msg.OutputAudioQueue{Queue: playbackQueue})

	decoder := tones.NullDecoder{}
	startupTone, decodeErr := decoder.Decode(assets.ReadyToPair())
	if decodeErr != nil {
		logger.Warn("startup tone decode error", "err", decodeErr)
	} else {
		playbackQueue.Send(msg.Play{Samples: startupTone})
	}

	uiDone := make(chan error, 1)
	go func() { uiDone <- uiTask.Run(ctx, uiQueue.Out()) }()

	select {
	case uiErr := <-uiDone:
		if uiErr != nil {
			logger.Error("ui task exited with error", "err", uiErr)
		}
	case <-ctx.Done():
		<-uiDone
	}

	cancel()

	playbackQueue.Send(msg.Exit{})
	captureQueue.Send(msg.Exit{})
	netQueue.Send(msg.Exit{})
	inputQueue.Send(msg.Exit{})

	wg.Wait()

	uiQueue.Close()
	netQueue.Close()
	captureQueue.Close()
	playbackQueue.Close()
	inputQueue.Close()

	logger.Info("voxlink shut down cleanly")
	return nil
}

// newRing selects the LED Line backend named by cfg.LEDBackend: the
// sysfs pca995x brightness files spec section 6 names by default, or
// gpiocdev raw gpiochip lines for boards wired that way.
func newRing(cfg config.Config) (*leds.Ring, error) {
	switch cfg.LEDBackend {
	case "", "sysfs":
		return leds.NewRing(cfg.LEDSysfsRoot), nil
	case "gpiocdev":
		return leds.NewGPIOCdevRing(cfg.GPIOChip, cfg.GPIOOffsets)
	default:
		return nil, fmt.Errorf("voxlink: unknown led_backend %q", cfg.LEDBackend)
	}
}
