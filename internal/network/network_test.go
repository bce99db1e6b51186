package network

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/nyxwave/voxlink/internal/msg"
	"github.com/nyxwave/voxlink/internal/netproto"
)

// fakeSender is a msg.UISender/msg.PlaybackSender test double that
// records every command it receives on a channel for assertion.
type fakeSender[T any] struct {
	ch chan T
}

func newFakeSender[T any]() *fakeSender[T] {
	return &fakeSender[T]{ch: make(chan T, 64)}
}

func (f *fakeSender[T]) Send(v T) { f.ch <- v }

func (f *fakeSender[T]) expect(t *testing.T) T {
	t.Helper()
	select {
	case v := <-f.ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		var zero T
		return zero
	}
}

func (f *fakeSender[T]) expectNone(t *testing.T) {
	t.Helper()
	select {
	case v := <-f.ch:
		t.Fatalf("expected no message, got %#v", v)
	case <-time.After(100 * time.Millisecond):
	}
}

// harness wires up a Task with a bootstrapped fake UI/Playback pair and a
// mock UDP peer, and runs the task in the background.
type harness struct {
	t        *testing.T
	cmds     chan msg.NetCmd
	task     *Task
	ui       *fakeSender[msg.UiCmd]
	playback *fakeSender[msg.OutCmd]
	mockPeer *net.UDPConn
	cancel   context.CancelFunc
	done     chan error
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	cmds := make(chan msg.NetCmd, 64)
	task, err := New("127.0.0.1:0", cmds)
	require.NoError(t, err)

	mockAddr, err := net.ResolveUDPAddr("udp", "127.0.0.1:0")
	require.NoError(t, err)
	mockPeer, err := net.ListenUDP("udp", mockAddr)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	h := &harness{
		t:        t,
		cmds:     cmds,
		task:     task,
		ui:       newFakeSender[msg.UiCmd](),
		playback: newFakeSender[msg.OutCmd](),
		mockPeer: mockPeer,
		cancel:   cancel,
		done:     make(chan error, 1),
	}

	go func() { h.done <- task.Run(ctx) }()

	cmds <- msg.MainTaskQueue{Queue: h.ui}
	cmds <- msg.OutputAudioQueue{Queue: h.playback}

	t.Cleanup(func() {
		cancel()
		mockPeer.Close()
	})

	return h
}

func (h *harness) mockPeerAddr() msg.Peer {
	return msg.PeerFromUDPAddr(h.mockPeer.LocalAddr().(*net.UDPAddr))
}

func (h *harness) mockPeerSend(p netproto.Packet) {
	h.t.Helper()
	_, err := h.mockPeer.WriteToUDP(netproto.Marshal(p), h.task.LocalAddr())
	require.NoError(h.t, err)
}

func (h *harness) mockPeerRecv() netproto.Packet {
	h.t.Helper()
	buf := make([]byte, 4096)
	require.NoError(h.t, h.mockPeer.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, err := h.mockPeer.Read(buf)
	require.NoError(h.t, err)
	pkt, err := netproto.Unmarshal(buf[:n])
	require.NoError(h.t, err)
	return pkt
}

// Scenario 1 — outbound call, caller hangs up.
func TestScenario1_OutboundCallCallerHangsUp(t *testing.T) {
	h := newHarness(t)
	peer := h.mockPeerAddr()

	h.cmds <- msg.StartConnection{Peer: peer}
	start := h.mockPeerRecv()
	require.Equal(t, netproto.KindStartConnection, start.Kind)

	h.mockPeerSend(netproto.AcceptPacket())

	got := h.ui.expect(t)
	sc, ok := got.(msg.StartCall)
	require.True(t, ok, "expected StartCall, got %#v", got)
	require.True(t, sc.Peer.Equal(peer))

	h.cmds <- msg.StopConnection{}
	stop := h.mockPeerRecv()
	require.Equal(t, netproto.KindStopConnection, stop.Kind)
}

// Scenario 2 — inbound call, callee accepts.
func TestScenario2_InboundCallCalleeAccepts(t *testing.T) {
	h := newHarness(t)
	peer := h.mockPeerAddr()

	h.mockPeerSend(netproto.StartConnectionPacket())

	hb := h.mockPeerRecv()
	require.Equal(t, netproto.KindHeartbeat, hb.Kind)

	got := h.ui.expect(t)
	ic, ok := got.(msg.IncomingCall)
	require.True(t, ok, "expected IncomingCall, got %#v", got)
	require.True(t, ic.Peer.Equal(peer))

	h.cmds <- msg.SendAccept{}
	accept := h.mockPeerRecv()
	require.Equal(t, netproto.KindAccept, accept.Kind)

	// No spurious StartCall on the callee side.
	h.ui.expectNone(t)
}

// Scenario 3 — media gating.
func TestScenario3_MediaGating(t *testing.T) {
	h := newHarness(t)
	peer := h.mockPeerAddr()

	h.cmds <- msg.SendAudio{Samples: []int16{0x0001, 0x0002}}

	buf := make([]byte, 64)
	require.NoError(t, h.mockPeer.SetReadDeadline(time.Now().Add(150*time.Millisecond)))
	_, err := h.mockPeer.Read(buf)
	require.Error(t, err, "expected no datagram while Stopped")

	// Force InCall by completing a handshake.
	h.cmds <- msg.StartConnection{Peer: peer}
	_ = h.mockPeerRecv() // StartConnection
	h.mockPeerSend(netproto.AcceptPacket())
	_ = h.ui.expect(t) // StartCall

	h.cmds <- msg.SendAudio{Samples: []int16{0x0001, 0x0002}}
	audio := h.mockPeerRecv()
	require.Equal(t, netproto.KindAudio, audio.Kind)
	require.Equal(t, []int16{0x0001, 0x0002}, audio.Samples)
}

// Scenario 7 — malformed packet tolerance.
func TestScenario7_MalformedPacketTolerance(t *testing.T) {
	h := newHarness(t)

	sendRaw := func(b []byte) {
		_, err := h.mockPeer.WriteToUDP(b, h.task.LocalAddr())
		require.NoError(t, err)
	}

	sendRaw([]byte{7}) // unknown kind byte
	sendRaw([]byte{})  // empty datagram

	h.ui.expectNone(t)
	h.playback.expectNone(t)
}

// Testable Property 2: the network transition table is total and the
// "peer present iff state in {Pending, InCall}" invariant always holds.
func TestProperty2_TransitionTableIsTotal(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		task, err := New("127.0.0.1:0", nil)
		require.NoError(rt, err)
		defer task.conn.Close()
		task.ui = newFakeSender[msg.UiCmd]()
		task.playback = newFakeSender[msg.OutCmd]()
		// The peer is the task's own socket, so every send has a live target.
		peer := msg.PeerFromUDPAddr(task.LocalAddr())

		events := rapid.SliceOfN(rapid.IntRange(0, 6), 1, 20).Draw(rt, "events")
		for _, ev := range events {
			switch ev {
			case 0: // StartConnection command
				task.handle(msg.StartConnection{Peer: peer})
			case 1: // SendAccept command
				task.handle(msg.SendAccept{})
			case 2: // StopConnection command
				task.handle(msg.StopConnection{})
			case 3: // rx StartConnection
				task.onPacket(netproto.StartConnectionPacket(), peer)
			case 4: // rx Accept
				task.onPacket(netproto.AcceptPacket(), peer)
			case 5: // rx StopConnection
				task.onPacket(netproto.StopConnectionPacket(), peer)
			case 6: // rx Audio — never changes state
				task.onPacket(netproto.AudioPacket([]int16{1, 2}), peer)
			}

			peerSet := task.peer.IP != nil
			wantPeer := task.state == statePendingConnection || task.state == stateInCall
			if peerSet != wantPeer {
				rt.Fatalf("peer-presence invariant broken: state=%v peerSet=%v", task.state, peerSet)
			}
		}
	})
}
