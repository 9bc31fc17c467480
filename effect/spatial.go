package effect

import "github.com/golang/geo/r3"

// SpatialInfo snapshots one internal chunk's emitter and listener
// position and velocity, for effects whose processing depends on
// relative motion rather than just the buffer contents. Velocity is
// estimated as the position delta since the previous chunk divided by
// this chunk's duration, so it settles to zero for a track or listener
// that hasn't moved.
type SpatialInfo struct {
	ListenerPosition r3.Vector
	ListenerVelocity r3.Vector
	EmitterPosition  r3.Vector
	EmitterVelocity  r3.Vector
}

// SpatialAware is implemented by effects that need per-chunk emitter/
// listener motion data (Doppler). A spatial track's Process calls
// SetSpatialInfo on every effect implementing it, immediately before
// Process, each internal chunk; an effect on a non-spatial track never
// receives a call and should treat that as "no relative motion".
type SpatialAware interface {
	SetSpatialInfo(info SpatialInfo)
}
