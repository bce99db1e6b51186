// Package assets embeds the appliance's two alert tones directly into the
// binary, matching spec section 6's "Embedded assets": a startup
// "ready to pair" tone and an "incoming call" ringtone, both MP3,
// decoded at use-site via internal/tones.
//
// The two files under sounds/ are placeholders, not valid MP3 streams —
// authoring real encoded audio isn't something this exercise can produce.
// A real build drops in the actual tone assets at these paths; the
// embed.FS wiring and use-site decode calls are unaffected either way.
package assets

import "embed"

//go:embed sounds/ready_to_pair.mp3
var readyToPairBytes []byte

//go:embed sounds/incoming_call.mp3
var incomingCallBytes []byte

//go:embed sounds
var Sounds embed.FS

// ReadyToPair returns the startup tone's raw (encoded) bytes.
func ReadyToPair() []byte { return readyToPairBytes }

// IncomingCall returns the ringtone's raw (encoded) bytes.
func IncomingCall() []byte { return incomingCallBytes }
