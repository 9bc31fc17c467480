package track

import (
	"github.com/golang/geo/r3"

	"github.com/tesselode/kira-sub000/tween"
)

// CommandKind discriminates Track Command variants.
type CommandKind int

const (
	// CmdSetVolume forwards to the track's volume parameter.
	CmdSetVolume CommandKind = iota
	// CmdSetSpatialPosition forwards to a spatial track's position
	// parameter. A no-op on a non-spatial track.
	CmdSetSpatialPosition
	// CmdSetSendVolume forwards to one of the track's declared send
	// routes, addressed by the route's SendTrackID.
	CmdSetSendVolume
)

// Command is a realtime-bound control message for a Track.
type Command struct {
	Kind          CommandKind
	VolumeValue   tween.Value[tween.Decibels]
	PositionValue tween.Value[r3.Vector]
	SendTrackID   uint64
	Tween         tween.Tween
}
