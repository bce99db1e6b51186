// Package network implements the UDP signalling and media protocol
// engine: §4.1 of the call appliance specification. It owns one UDP
// socket, runs the Stopped/PendingConnection/InCall state machine, and
// is the sole bridge between the wire and the UI and Playback tasks.
//
// Grounded on the teacher's kissnet.go (a framed TCP/UDP protocol engine
// with its own accept/read loop) and nettnc.go (a UDP-socket-owning
// network task), generalized from a KISS TNC bridge to this appliance's
// five-packet-kind call protocol.
package network

import (
	"context"
	"net"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nyxwave/voxlink/internal/applog"
	"github.com/nyxwave/voxlink/internal/msg"
	"github.com/nyxwave/voxlink/internal/netproto"
)

// DefaultPort is the UDP port used for both local bind and peer target,
// per spec section 3.
const DefaultPort = 33445

// readTimeout bounds each recv_from call so the task loop can interleave
// socket polls and command drains without blocking either side
// indefinitely. Spec section 4.1 allows up to 50ms; the original
// implementation polled at 1ms. 20ms splits the difference.
const readTimeout = 20 * time.Millisecond

// commandTimeout bounds the try-receive of one command per iteration.
const commandTimeout = 10 * time.Millisecond

// state is the network task's call-protocol state, spec section 3.
type state int

const (
	stateStopped state = iota
	statePendingConnection
	stateInCall
)

// Task runs the network protocol engine. Construct with New, then call
// Run from its own goroutine.
type Task struct {
	conn *net.UDPConn
	in   <-chan msg.NetCmd

	log *log.Logger

	state state
	peer  msg.Peer

	ui       msg.UISender
	playback msg.PlaybackSender
}

// New binds the UDP socket and returns a Task ready to bootstrap. bindAddr
// is normally "0.0.0.0:33445"; tests bind to "127.0.0.1:0" to get an
// ephemeral port.
func New(bindAddr string, in <-chan msg.NetCmd) (*Task, error) {
	addr, err := net.ResolveUDPAddr("udp", bindAddr)
	if err != nil {
		return nil, err
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, err
	}

	l := applog.For("network")

	if err := conn.SetReadBuffer(1 << 20); err != nil {
		// Not fatal: the OS default buffer still works, just with more
		// risk of drops under burst load.
		l.Warn("set read buffer size", "err", err)
	}

	return &Task{
		conn:  conn,
		in:    in,
		log:   l,
		state: stateStopped,
	}, nil
}

// LocalAddr returns the bound socket's address, chiefly useful in tests
// that bind to an ephemeral port.
func (t *Task) LocalAddr() *net.UDPAddr {
	return t.conn.LocalAddr().(*net.UDPAddr)
}

// Run blocks until ctx is cancelled or an Exit command arrives. It
// refuses to leave the bootstrap phase until it has received exactly one
// MainTaskQueue and one OutputAudioQueue command, per spec section 4.1.
func (t *Task) Run(ctx context.Context) error {
	defer t.conn.Close()

	if err := t.bootstrap(ctx); err != nil {
		return err
	}

	buf := make([]byte, 64*1024)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		t.pollSocket(buf)

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

// bootstrap blocks on exactly two receives, in order: MainTaskQueue then
// OutputAudioQueue, matching the original implementation's two sequential
// blocking recv calls. A command of any other kind arriving first is
// fatal for this task only (spec section 7).
func (t *Task) bootstrap(ctx context.Context) error {
	first, ok := t.recvOrDone(ctx)
	if !ok {
		return context.Canceled
	}
	mtq, isMTQ := first.(msg.MainTaskQueue)
	if !isMTQ {
		return errBootstrap{got: first}
	}
	t.ui = mtq.Queue

	second, ok := t.recvOrDone(ctx)
	if !ok {
		return context.Canceled
	}
	oaq, isOAQ := second.(msg.OutputAudioQueue)
	if !isOAQ {
		return errBootstrap{got: second}
	}
	t.playback = oaq.Queue

	return nil
}

func (t *Task) recvOrDone(ctx context.Context) (msg.NetCmd, bool) {
	select {
	case cmd, ok := <-t.in:
		return cmd, ok
	case <-ctx.Done():
		return nil, false
	}
}

// pollSocket attempts one non-blocking-ish (bounded by readTimeout) read
// and dispatches whatever arrived per the current state, spec section
// 4.1's state table.
func (t *Task) pollSocket(buf []byte) {
	if err := t.conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
		t.log.Error("set read deadline", "err", err)
		return
	}

	n, addr, err := t.conn.ReadFromUDP(buf)
	if err != nil {
		// Invariant: a read timeout is the normal idle path, not an error.
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return
		}
		t.log.Warn("udp read error", "err", err)
		return
	}

	if n == 0 {
		// Invariant (iii): empty datagrams are ignored.
		return
	}

	pkt, err := netproto.Unmarshal(buf[:n])
	if err != nil {
		// Invariant (i)/(ii): unknown kind or malformed audio is a silent
		// drop, never a crash.
		t.log.Debug("dropped malformed datagram", "err", err, "from", addr)
		return
	}

	from := msg.PeerFromUDPAddr(addr)
	t.onPacket(pkt, from)
}

func (t *Task) onPacket(pkt netproto.Packet, from msg.Peer) {
	switch t.state {
	case stateStopped:
		if pkt.Kind == netproto.KindStartConnection {
			t.state = statePendingConnection
			t.peer = from
			t.send(netproto.HeartbeatPacket(), from)
			t.ui.Send(msg.IncomingCall{Peer: from})
		}

	case statePendingConnection:
		switch pkt.Kind {
		case netproto.KindAccept:
			if from.Equal(t.peer) {
				t.state = stateInCall
				t.ui.Send(msg.StartCall{Peer: t.peer})
			}
		case netproto.KindStopConnection:
			if from.Equal(t.peer) {
				t.toStopped()
				t.ui.Send(msg.StopCall{})
			}
		}

	case stateInCall:
		switch pkt.Kind {
		case netproto.KindAudio:
			// Media ingress is accepted from any source while InCall, per
			// spec section 4.1 ("an Audio datagram from any source").
			t.playback.Send(msg.Play{Samples: pkt.Samples})
		case netproto.KindStopConnection:
			if from.Equal(t.peer) {
				t.toStopped()
				t.ui.Send(msg.StopCall{})
			}
		}
	}
}

// handle applies one command from the UI/Capture producers. It returns
// true when the task should exit.
func (t *Task) handle(cmd msg.NetCmd) bool {
	switch c := cmd.(type) {
	case msg.StartConnection:
		t.state = statePendingConnection
		t.peer = c.Peer
		t.send(netproto.StartConnectionPacket(), c.Peer)

	case msg.SendAccept:
		if t.state == statePendingConnection {
			t.send(netproto.AcceptPacket(), t.peer)
			t.state = stateInCall
		}

	case msg.StopConnection:
		if t.state == stateInCall {
			t.send(netproto.StopConnectionPacket(), t.peer)
		}
		t.toStopped()

	case msg.SendAudio:
		if t.state == stateInCall {
			t.send(netproto.AudioPacket(c.Samples), t.peer)
		}
		// Admission control: silently drop media outside a call.

	case msg.MainTaskQueue:
		// Duplicate bootstrap message after the task is already running:
		// a no-op, per spec section 4.1.

	case msg.OutputAudioQueue:
		// Same as above.

	case msg.Exit:
		return true
	}
	return false
}

func (t *Task) toStopped() {
	t.state = stateStopped
	t.peer = msg.Peer{}
}

func (t *Task) send(pkt netproto.Packet, to msg.Peer) {
	if _, err := t.conn.WriteToUDP(netproto.Marshal(pkt), to.UDPAddr()); err != nil {
		t.log.Warn("udp send error", "err", err, "to", to)
	}
}

type errBootstrap struct{ got msg.NetCmd }

func (e errBootstrap) Error() string {
	return "network: expected bootstrap handle message, got unexpected command first"
}
