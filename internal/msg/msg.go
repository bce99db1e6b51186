// Package msg holds the typed message unions exchanged between the five
// tasks (Network, Capture, Playback, Input, UI). Keeping them in one leaf
// package, imported by every task but depending on none of them, avoids
// the import cycle that would otherwise arise from Network needing to
// talk to UI and Playback, and UI needing to talk to Network, Capture and
// Playback.
//
// Every command set is a closed Go interface implemented only by the
// listed structs, so a type switch over a command is exhaustive by
// construction; per the design note in spec section 9, an unmatched
// default case is always a silent no-op, never an error, to keep forward
// compatibility if the set grows.
package msg

import (
	"fmt"
	"net"
)

// Peer identifies a call remote endpoint: an IP address and the UDP
// port it is reachable on.
type Peer struct {
	IP   net.IP
	Port int
}

// Equal reports whether two peers name the same IP and port.
func (p Peer) Equal(other Peer) bool {
	return p.IP.Equal(other.IP) && p.Port == other.Port
}

func (p Peer) String() string {
	return fmt.Sprintf("%s:%d", p.IP, p.Port)
}

// UDPAddr converts a Peer to the net.UDPAddr the standard library sockets
// API expects.
func (p Peer) UDPAddr() *net.UDPAddr {
	return &net.UDPAddr{IP: p.IP, Port: p.Port}
}

// PeerFromUDPAddr builds a Peer from the address net.UDPConn hands back
// on a read.
func PeerFromUDPAddr(a *net.UDPAddr) Peer {
	return Peer{IP: a.IP, Port: a.Port}
}

// --- Network task inbound commands (NetCmd) ---

// NetCmd is the command set accepted by the network task's inbound
// channel.
type NetCmd interface{ isNetCmd() }

// StartConnection dials peer: the network task sends a StartConnection
// wire packet and transitions to PendingConnection.
type StartConnection struct{ Peer Peer }

// SendAccept accepts a pending inbound call (PendingConnection -> InCall).
type SendAccept struct{}

// StopConnection tears down the current call, if any.
type StopConnection struct{}

// SendAudio is produced by Capture and carries one buffer of interleaved
// stereo 16-bit PCM samples to transmit, subject to admission control
// (dropped unless InCall).
type SendAudio struct{ Samples []int16 }

// MainTaskQueue is the first bootstrap message Network must receive: the
// handle it uses to deliver UI-facing events.
type MainTaskQueue struct{ Queue UISender }

// OutputAudioQueue is the second bootstrap message Network must receive:
// the handle it uses to deliver decoded inbound media to Playback.
type OutputAudioQueue struct{ Queue PlaybackSender }

// Exit requests clean task shutdown.
type Exit struct{}

func (StartConnection) isNetCmd()  {}
func (SendAccept) isNetCmd()       {}
func (StopConnection) isNetCmd()   {}
func (SendAudio) isNetCmd()        {}
func (MainTaskQueue) isNetCmd()    {}
func (OutputAudioQueue) isNetCmd() {}
func (Exit) isNetCmd()             {}

// --- UI task inbound commands (UiCmd) ---

// UiCmd is the command set accepted by the UI/controller task's inbound
// channel. It is also the vocabulary used internally when a keypress
// resolves to the same effect a channel command would have (see
// spec section 4.5's "Keyboard during a call" table).
type UiCmd interface{ isUiCmd() }

// IncomingCall is emitted by Network when a peer dials in.
type IncomingCall struct{ Peer Peer }

// StartCall is emitted by Network once the accept handshake completes on
// the calling side.
type StartCall struct{ Peer Peer }

// AcceptCall accepts a ringing inbound call.
type AcceptCall struct{}

// RejectCall declines a ringing inbound call or ends an active one.
type RejectCall struct{}

// StopCall is emitted by Network when the peer (or this side) tore down
// the call; semantically identical to RejectCall while on the call screen.
type StopCall struct{}

// EndCall hangs up a call the UI itself initiated ending.
type EndCall struct{}

// IncreaseVolume/DecreaseVolume adjust the active call's volume by 5,
// clamped to [0,100].
type IncreaseVolume struct{}
type DecreaseVolume struct{}

// ToggleMute flips the active call's mute flag.
type ToggleMute struct{}

func (IncomingCall) isUiCmd()   {}
func (StartCall) isUiCmd()      {}
func (AcceptCall) isUiCmd()     {}
func (RejectCall) isUiCmd()     {}
func (StopCall) isUiCmd()       {}
func (EndCall) isUiCmd()        {}
func (IncreaseVolume) isUiCmd() {}
func (DecreaseVolume) isUiCmd() {}
func (ToggleMute) isUiCmd()     {}
func (Exit) isUiCmd()           {}

// --- Playback task inbound commands (OutCmd) ---

// OutCmd is the command set accepted by the playback task's inbound
// channel.
type OutCmd interface{ isOutCmd() }

// Play appends samples to the playback FIFO.
type Play struct{ Samples []int16 }

// Stop halts the playback device and truncates the FIFO to empty.
type Stop struct{}

// SetVolume sets the mixer (or software gain stage) to v, v in [0,100].
type SetVolume struct{ Volume int }

// SetMute forces the mixer to 0 (true) or 100 (false); it does not
// remember the prior volume.
type SetMute struct{ Muted bool }

func (Play) isOutCmd()      {}
func (Stop) isOutCmd()      {}
func (SetVolume) isOutCmd() {}
func (SetMute) isOutCmd()   {}
func (Exit) isOutCmd()      {}

// --- Capture task inbound commands (InCmd) ---

// InCmd is the command set accepted by the capture task's inbound
// channel.
type InCmd interface{ isInCmd() }

// Start begins forwarding captured audio to Network.
type Start struct{}

func (Start) isInCmd() {}
func (Stop) isInCmd()  {}
func (Exit) isInCmd()  {}

// --- Input task inbound commands (EvtCmd) ---

// EvtCmd is the command set accepted by the hardware input forwarder's
// inbound channel; it only ever needs to be told to stop.
type EvtCmd interface{ isEvtCmd() }

func (Exit) isEvtCmd() {}

// --- Cross-task sender handles ---

// UISender is implemented by anything Network and Input can deliver
// UiCmd values through — in production, *chanutil.Unbounded[UiCmd].
type UISender interface {
	Send(UiCmd)
}

// PlaybackSender is implemented by anything Network can deliver OutCmd
// values through — in production, *chanutil.Unbounded[OutCmd].
type PlaybackSender interface {
	Send(OutCmd)
}

// NetSender is implemented by anything Capture and UI can deliver NetCmd
// values through.
type NetSender interface {
	Send(NetCmd)
}

// CaptureSender is implemented by anything UI can deliver InCmd values
// through.
type CaptureSender interface {
	Send(InCmd)
}
