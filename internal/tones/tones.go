// Package tones decodes the appliance's embedded alert tones to raw PCM
// at the point of use. The MP3 decoder itself is an external collaborator
// out of scope for this specification (spec section 1); this package only
// defines the seam the rest of the appliance consumes and submits
// pre-decoded samples through.
//
// Grounded on original_source/src/utils.rs's decode_bytes, which wraps a
// minimp3 decoder behind a single bytes-in/samples-out function; there is
// no equivalent MP3 library anywhere in the pack, so Decoder is kept as an
// interface a real deployment supplies, with a no-op stub (NullDecoder,
// which returns no samples) standing in for local development and tests.
package tones

// Decoder turns an MP3 byte stream into interleaved 16-bit PCM samples at
// the appliance's standard format (48kHz, stereo). Production builds
// inject a real MP3 decoder; it is not implemented here (spec section 1).
type Decoder interface {
	Decode(mp3 []byte) ([]int16, error)
}

// NullDecoder is a Decoder that always returns no samples. It lets the
// appliance start up and exercise the Play path end-to-end without a real
// decoder wired in, matching the "out of scope external collaborator"
// note in spec section 1 — callers that need an audible tone must inject
// a conforming Decoder.
type NullDecoder struct{}

func (NullDecoder) Decode([]byte) ([]int16, error) { return nil, nil }
