package tui

import (
	"context"
	"net"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nyxwave/voxlink/internal/applog"
	"github.com/nyxwave/voxlink/internal/leds"
	"github.com/nyxwave/voxlink/internal/msg"
	"github.com/nyxwave/voxlink/internal/tones"
)

// pollBudget is the terminal event-poll window spec section 4.5 and
// section 5 specify (~100ms, driving both the keyboard poll and the LED
// ring animation clock).
const pollBudget = 100 * time.Millisecond

// Screen names which top-level view is active, mirroring
// original_source/src/terminal_task.rs's ScreenState enum.
type Screen int

const (
	ScreenHome Screen = iota
	ScreenEnterCallInfo
	ScreenContacts
	ScreenCall
)

// CallStatus names the Call screen's substate, mirroring spec section 3's
// status ∈ {Calling, IncomingCall, InCall{t_start}, CallEnded{t_start,t_end}}.
// The t_start/t_end payloads live alongside callStatus on Task as
// callStartedAt/callEndedAt rather than on the enum itself, since Go has
// no tagged-union variant payloads.
type CallStatus int

const (
	CallCalling CallStatus = iota
	CallIncoming
	CallInCall
	CallEnded
)

// homeMenuItems are the three Home screen entries, spec section 4.5.
var homeMenuItems = []string{"Call", "Contacts", "Exit"}

// Task runs the UI/controller state machine.
type Task struct {
	keys KeyReader
	ring *leds.Ring

	network  msg.NetSender
	capture  msg.CaptureSender
	playback msg.PlaybackSender
	decoder  tones.Decoder

	ringTone []byte
	log      *log.Logger

	screen        Screen
	menuIndex     int
	dialText      string
	callPeer      msg.Peer
	callStatus    CallStatus
	callStartedAt time.Time // set when callStatus becomes CallInCall, spec section 3's InCall{t_start}
	callEndedAt   time.Time // set when callStatus becomes CallEnded, spec section 3's CallEnded{t_start,t_end}
	volume        int
	muted         bool
	ledsRunning   bool
}

// Deps bundles Task's external collaborators, one per spec section 6
// external-collaborator boundary this task straddles.
type Deps struct {
	Keys     KeyReader
	Ring     *leds.Ring
	Network  msg.NetSender
	Capture  msg.CaptureSender
	Playback msg.PlaybackSender
	Decoder  tones.Decoder
	RingTone []byte // encoded incoming-call ringtone, decoded lazily at use-site
}

// New constructs a controller Task.
func New(deps Deps) *Task {
	return &Task{
		keys:     deps.Keys,
		ring:     deps.Ring,
		network:  deps.Network,
		capture:  deps.Capture,
		playback: deps.Playback,
		decoder:  deps.Decoder,
		ringTone: deps.RingTone,
		log:      applog.For("ui"),
		screen:   ScreenHome,
		volume:   100,
	}
}

// Run drives the command/key poll loop (spec section 4.5) until Exit
// arrives or the user selects "Exit" on the Home menu. Nothing is drawn
// on any iteration.
func (t *Task) Run(ctx context.Context, in <-chan msg.UiCmd) error {
	defer func() {
		if t.ledsRunning {
			_ = t.ring.StopAnimation()
		}
	}()

	for {
		if ctx.Err() != nil {
			return nil
		}

		select {
		case cmd, ok := <-in:
			if !ok {
				return nil
			}
			if done := t.applyCommand(cmd); done {
				return nil
			}
		default:
		}

		if t.screen == ScreenCall && t.callStatus == CallIncoming {
			t.ledsRunning = true
			if err := t.ring.Advance(); err != nil {
				t.log.Warn("led animation error", "err", err)
			}
		} else if t.ledsRunning {
			t.ledsRunning = false
			if err := t.ring.StopAnimation(); err != nil {
				t.log.Warn("led stop animation error", "err", err)
			}
		}

		ev, ok, err := t.keys.ReadKey(pollBudget)
		if err != nil {
			// ReadKey's contract (keys.go) is that a non-nil err is always
			// unrecoverable; spec section 7 requires this to propagate so
			// main can tear the appliance down cleanly instead of spinning.
			return err
		}
		if !ok {
			continue
		}
		if done := t.applyKey(ev); done {
			return nil
		}
	}
}

// applyCommand implements the "Inbound UI command" table, spec section
// 4.5.
func (t *Task) applyCommand(cmd msg.UiCmd) bool {
	switch c := cmd.(type) {
	case msg.IncomingCall:
		t.screen = ScreenCall
		t.callStatus = CallIncoming
		t.callPeer = c.Peer
		t.callStartedAt = time.Time{}
		t.callEndedAt = time.Time{}
		t.playback.Send(msg.Stop{})
		t.playback.Send(msg.Play{Samples: t.decodeRingTone()})

	case msg.StartCall:
		t.screen = ScreenCall
		t.callPeer = c.Peer
		t.capture.Send(msg.Start{})
		t.playback.Send(msg.Stop{})
		t.enterInCall()

	case msg.AcceptCall:
		if t.screen == ScreenCall && t.callStatus == CallIncoming {
			t.network.Send(msg.SendAccept{})
			t.capture.Send(msg.Start{})
			t.playback.Send(msg.Stop{})
			t.enterInCall()
		}

	case msg.RejectCall:
		t.rejectCall()

	case msg.StopCall:
		if t.screen == ScreenCall {
			t.rejectCall()
		}

	case msg.EndCall:
		t.network.Send(msg.StopConnection{})
		t.screen = ScreenHome

	case msg.IncreaseVolume:
		if t.screen == ScreenCall {
			t.setVolume(t.volume + 5)
		}

	case msg.DecreaseVolume:
		if t.screen == ScreenCall {
			t.setVolume(t.volume - 5)
		}

	case msg.ToggleMute:
		if t.screen == ScreenCall {
			t.muted = !t.muted
			t.playback.Send(msg.SetMute{Muted: t.muted})
		}

	case msg.Exit:
		return true
	}
	return false
}

func (t *Task) rejectCall() {
	t.network.Send(msg.StopConnection{})
	t.capture.Send(msg.Stop{})
	t.playback.Send(msg.Stop{})
	t.screen = ScreenHome
	t.callStatus = CallEnded
	t.callEndedAt = time.Now()
}

// enterInCall transitions callStatus to CallInCall and stamps t_start,
// spec section 3's InCall{t_start} payload.
func (t *Task) enterInCall() {
	t.callStatus = CallInCall
	t.callStartedAt = time.Now()
}

func (t *Task) setVolume(v int) {
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	t.volume = v
	t.playback.Send(msg.SetVolume{Volume: v})
}

func (t *Task) decodeRingTone() []int16 {
	if t.decoder == nil || t.ringTone == nil {
		return nil
	}
	samples, err := t.decoder.Decode(t.ringTone)
	if err != nil {
		t.log.Warn("ringtone decode error", "err", err)
		return nil
	}
	return samples
}

// applyKey dispatches a decoded keypress to the current screen, mirroring
// handle_events in original_source/src/terminal_task.rs.
func (t *Task) applyKey(ev KeyEvent) bool {
	switch t.screen {
	case ScreenHome:
		return t.applyHomeKey(ev)
	case ScreenEnterCallInfo:
		return t.applyDialKey(ev)
	case ScreenCall:
		return t.applyCallKey(ev)
	case ScreenContacts:
		if ev.Key == KeyEsc {
			t.screen = ScreenHome
		}
	}
	return false
}

func (t *Task) applyHomeKey(ev KeyEvent) bool {
	switch ev.Key {
	case KeyUp:
		t.menuIndex--
		if t.menuIndex < 0 {
			t.menuIndex = len(homeMenuItems) - 1
		}
	case KeyDown:
		t.menuIndex = (t.menuIndex + 1) % len(homeMenuItems)
	case KeyEnter:
		switch homeMenuItems[t.menuIndex] {
		case "Call":
			t.screen = ScreenEnterCallInfo
			t.dialText = ""
		case "Contacts":
			t.screen = ScreenContacts
		case "Exit":
			return true
		}
	}
	return false
}

func (t *Task) applyDialKey(ev KeyEvent) bool {
	switch ev.Key {
	case KeyEsc:
		t.screen = ScreenHome
	case KeyBackspace:
		if len(t.dialText) > 0 {
			t.dialText = t.dialText[:len(t.dialText)-1]
		}
	case KeyChar:
		t.dialText += string(ev.Rune)
	case KeyEnter:
		ip := net.ParseIP(t.dialText)
		if ip == nil {
			return false
		}
		peer := msg.Peer{IP: ip, Port: 33445}
		t.callPeer = peer
		t.callStatus = CallCalling
		t.callStartedAt = time.Time{}
		t.callEndedAt = time.Time{}
		t.screen = ScreenCall
		t.network.Send(msg.StartConnection{Peer: peer})
	}
	return false
}

func (t *Task) applyCallKey(ev KeyEvent) bool {
	switch ev.Key {
	case KeyEsc:
		t.rejectCall()
	case KeyEnter:
		if t.callStatus == CallIncoming {
			t.network.Send(msg.SendAccept{})
			t.capture.Send(msg.Start{})
			t.playback.Send(msg.Stop{})
			t.enterInCall()
		}
	case KeyChar:
		switch ev.Rune {
		case 'm':
			t.muted = !t.muted
			t.playback.Send(msg.SetMute{Muted: t.muted})
		case 'a':
			t.setVolume(t.volume - 5)
		case 'd':
			t.setVolume(t.volume + 5)
		}
	}
	return false
}
