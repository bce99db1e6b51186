// Package netproto implements the hand-rolled UDP application protocol:
// one leading kind byte followed by a kind-specific payload. It has no
// knowledge of call state — that lives in internal/network — only of how
// to turn a Kind and payload into bytes and back.
//
// Audio sample encoding is spelled out explicitly in little-endian rather
// than relying on reinterpreting a []int16's backing memory as []byte,
// per the design note in spec section 9: implementations must not lean
// on undefined reinterpretation semantics.
package netproto

import (
	"encoding/binary"
	"errors"
)

// Kind identifies the shape of a packet's payload.
type Kind byte

const (
	KindStartConnection Kind = 0
	KindStopConnection  Kind = 1
	KindAudio           Kind = 2
	KindHeartbeat       Kind = 3
	KindAccept          Kind = 4
)

// ErrUnknownKind is returned by Unmarshal for a kind byte outside the
// known set. Callers must treat this as a silent drop, never a crash.
var ErrUnknownKind = errors.New("netproto: unknown packet kind")

// ErrMalformedAudio is returned when an Audio payload's length is not a
// multiple of 4 bytes (stereo frame: 2 channels x 2 bytes).
var ErrMalformedAudio = errors.New("netproto: audio payload not a multiple of a stereo frame")

// ErrEmpty is returned for a zero-length datagram.
var ErrEmpty = errors.New("netproto: empty datagram")

// Packet is a decoded protocol message. Samples is populated only for
// KindAudio; it is nil for the control kinds, which carry no payload.
type Packet struct {
	Kind    Kind
	Samples []int16
}

// bytesPerFrame is one stereo sample pair: 2 channels x 2 bytes each.
const bytesPerFrame = 4

// StartConnectionPacket, StopConnectionPacket, HeartbeatPacket and
// AcceptPacket construct the four payload-less control packets.
func StartConnectionPacket() Packet { return Packet{Kind: KindStartConnection} }
func StopConnectionPacket() Packet  { return Packet{Kind: KindStopConnection} }
func HeartbeatPacket() Packet       { return Packet{Kind: KindHeartbeat} }
func AcceptPacket() Packet          { return Packet{Kind: KindAccept} }

// AudioPacket constructs an Audio packet carrying the given interleaved
// stereo samples.
func AudioPacket(samples []int16) Packet {
	return Packet{Kind: KindAudio, Samples: samples}
}

// Marshal encodes p as wire bytes: one kind byte followed by its payload.
func Marshal(p Packet) []byte {
	if p.Kind != KindAudio {
		return []byte{byte(p.Kind)}
	}

	out := make([]byte, 1+len(p.Samples)*2)
	out[0] = byte(p.Kind)
	for i, s := range p.Samples {
		binary.LittleEndian.PutUint16(out[1+i*2:], uint16(s))
	}
	return out
}

// Unmarshal decodes a received datagram. Per the protocol invariants, an
// empty datagram, an unknown kind byte, or a malformed Audio payload all
// return an error for the caller to silently drop rather than act on —
// none of these are ever fatal.
func Unmarshal(data []byte) (Packet, error) {
	if len(data) == 0 {
		return Packet{}, ErrEmpty
	}

	kind := Kind(data[0])
	payload := data[1:]

	switch kind {
	case KindStartConnection, KindStopConnection, KindHeartbeat, KindAccept:
		return Packet{Kind: kind}, nil
	case KindAudio:
		if len(payload)%bytesPerFrame != 0 {
			return Packet{}, ErrMalformedAudio
		}
		samples := make([]int16, len(payload)/2)
		for i := range samples {
			samples[i] = int16(binary.LittleEndian.Uint16(payload[i*2:]))
		}
		return Packet{Kind: KindAudio, Samples: samples}, nil
	default:
		return Packet{}, ErrUnknownKind
	}
}
