package manager

import (
	"github.com/golang/geo/r3"

	"github.com/tesselode/kira-sub000/clock"
	"github.com/tesselode/kira-sub000/command"
	"github.com/tesselode/kira-sub000/listener"
	"github.com/tesselode/kira-sub000/modulator"
	"github.com/tesselode/kira-sub000/sound"
	"github.com/tesselode/kira-sub000/track"
	"github.com/tesselode/kira-sub000/tween"
)

// TrackHandle is the control-side reference to a track the manager
// created, whether the main track, a sub-track, or a send track. ID is
// a manager-issued identifier used to correlate sounds and spatial
// sub-tracks with listeners; it is independent of the track's position
// in the tree.
type TrackHandle struct {
	ID uint64
	*track.Handle
}

// SetVolume retargets the track's volume.
func (h *TrackHandle) SetVolume(value tween.Value[tween.Decibels], tw tween.Tween) error {
	return wrapQueueErr(h.Commands.Write(track.Command{Kind: track.CmdSetVolume, VolumeValue: value, Tween: tw}))
}

// SetSpatialPosition retargets a spatial track's position. A no-op on a
// non-spatial track.
func (h *TrackHandle) SetSpatialPosition(value tween.Value[r3.Vector], tw tween.Tween) error {
	return wrapQueueErr(h.Commands.Write(track.Command{Kind: track.CmdSetSpatialPosition, PositionValue: value, Tween: tw}))
}

// SetSendVolume retargets one of the track's declared send routes.
func (h *TrackHandle) SetSendVolume(sendTrackID uint64, value tween.Value[tween.Decibels], tw tween.Tween) error {
	err := h.Handle.SetSendVolume(sendTrackID, value, tw)
	if err == track.ErrNonexistentRoute {
		return ErrNonexistentRoute
	}
	return wrapQueueErr(err)
}

// MarkForRemoval flags the track (and everything still attached to it)
// for removal once the realtime side can reclaim it.
func (h *TrackHandle) MarkForRemoval() { h.Shared.MarkForRemoval() }

// SoundHandle is the control-side reference to a playing sound
// instance.
type SoundHandle struct {
	instance *sound.Instance
	commands *command.RingWriter[sound.Command]

	// schedulerCommands and schedulerShared are non-nil only for
	// streaming instances; seeks must reach both the instance's
	// transport and the decode scheduler's, so the scheduler resumes
	// decoding from the right frame, and the scheduler goroutine must
	// be told to exit once playback is done with it.
	schedulerCommands chan<- sound.SchedulerCommand
	schedulerShared   *sound.SchedulerShared
}

// State returns the instance's last-published playback state.
func (h *SoundHandle) State() sound.PlaybackState { return h.instance.Shared().State() }

// Position returns the instance's last-published playhead position, in frames.
func (h *SoundHandle) Position() float64 { return h.instance.Shared().Position() }

// SetVolume retargets the instance's volume.
func (h *SoundHandle) SetVolume(value tween.Value[tween.Decibels], tw tween.Tween) error {
	return wrapQueueErr(h.commands.Write(sound.Command{Kind: sound.CmdSetVolume, VolumeValue: value, Tween: tw}))
}

// SetPlaybackRate retargets the instance's playback rate.
func (h *SoundHandle) SetPlaybackRate(value tween.Value[float64], tw tween.Tween) error {
	return wrapQueueErr(h.commands.Write(sound.Command{Kind: sound.CmdSetPlaybackRate, RateValue: value, Tween: tw}))
}

// SetPanning retargets the instance's stereo position.
func (h *SoundHandle) SetPanning(value tween.Value[float64], tw tween.Tween) error {
	return wrapQueueErr(h.commands.Write(sound.Command{Kind: sound.CmdSetPanning, PanValue: value, Tween: tw}))
}

// Pause begins a fade to silence, then transitions to Paused.
func (h *SoundHandle) Pause(tw tween.Tween) error {
	return wrapQueueErr(h.commands.Write(sound.Command{Kind: sound.CmdPause, Tween: tw}))
}

// Resume begins a fade to full volume and returns to Playing.
func (h *SoundHandle) Resume(tw tween.Tween) error {
	return wrapQueueErr(h.commands.Write(sound.Command{Kind: sound.CmdResume, Tween: tw}))
}

// Stop begins a fade to silence, then transitions to Stopped. For a
// streaming instance, call StopScheduler once the handle reports
// Stopped to also exit its decode goroutine.
func (h *SoundHandle) Stop(tw tween.Tween) error {
	return wrapQueueErr(h.commands.Write(sound.Command{Kind: sound.CmdStop, Tween: tw}))
}

// StopScheduler signals a streaming instance's decode scheduler
// goroutine to exit. A no-op for static sounds.
func (h *SoundHandle) StopScheduler() {
	if h.schedulerShared != nil {
		h.schedulerShared.Stop()
	}
}

// SeekTo moves the transport to an absolute frame.
func (h *SoundHandle) SeekTo(frame int64) error {
	if h.schedulerCommands != nil {
		select {
		case h.schedulerCommands <- sound.SchedulerCommand{Kind: sound.SchedulerSeekTo, Position: frame}:
		default:
			return ErrCommandQueueFull
		}
	}
	return wrapQueueErr(h.commands.Write(sound.Command{Kind: sound.CmdSeekTo, SeekPosition: frame}))
}

// ClockHandle is the control-side reference to a clock.
type ClockHandle struct {
	ID       uint64
	commands *command.RingWriter[clock.Command]
	shared   *clock.Shared
}

// SetSpeed retargets the clock's tick rate.
func (h *ClockHandle) SetSpeed(value tween.Value[clock.Speed], tw tween.Tween) error {
	return wrapQueueErr(h.commands.Write(clock.Command{Kind: clock.CmdSetSpeed, Speed: value, Tween: tw}))
}

// Start begins ticking.
func (h *ClockHandle) Start() error {
	return wrapQueueErr(h.commands.Write(clock.Command{Kind: clock.CmdStart}))
}

// Pause stops ticking without resetting fractional progress.
func (h *ClockHandle) Pause() error {
	return wrapQueueErr(h.commands.Write(clock.Command{Kind: clock.CmdPause}))
}

// Stop stops ticking and resets to NotStarted.
func (h *ClockHandle) Stop() error {
	return wrapQueueErr(h.commands.Write(clock.Command{Kind: clock.CmdStop}))
}

// Ticking reports whether the clock is currently running, as of the
// last buffer.
func (h *ClockHandle) Ticking() bool { return h.shared.Ticking() }

// MarkForRemoval flags the clock for removal.
func (h *ClockHandle) MarkForRemoval() { h.shared.MarkForRemoval() }

// ModulatorHandle is the control-side reference to a modulator.
type ModulatorHandle struct {
	ID     uint64
	shared *modulator.Shared

	tweenerCommands *command.RingWriter[modulator.TweenerCommand]
	lfoCommands     *command.RingWriter[modulator.LfoCommand]
}

// SetTweenerTarget retargets a Tweener modulator. A no-op (silently
// dropped, like any command to the wrong variant) if this handle
// doesn't wrap a Tweener.
func (h *ModulatorHandle) SetTweenerTarget(target float64, tw tween.Tween) error {
	if h.tweenerCommands == nil {
		return nil
	}
	return wrapQueueErr(h.tweenerCommands.Write(modulator.TweenerCommand{Target: target, Tween: tw}))
}

// SetLfoFrequency retargets an Lfo modulator's oscillation rate.
func (h *ModulatorHandle) SetLfoFrequency(target float64, tw tween.Tween) error {
	if h.lfoCommands == nil {
		return nil
	}
	return wrapQueueErr(h.lfoCommands.Write(modulator.LfoCommand{Kind: modulator.LfoSetFrequency, Target: target, Tween: tw}))
}

// SetLfoDepth retargets an Lfo modulator's oscillation amplitude.
func (h *ModulatorHandle) SetLfoDepth(target float64, tw tween.Tween) error {
	if h.lfoCommands == nil {
		return nil
	}
	return wrapQueueErr(h.lfoCommands.Write(modulator.LfoCommand{Kind: modulator.LfoSetDepth, Target: target, Tween: tw}))
}

// MarkForRemoval flags the modulator for removal.
func (h *ModulatorHandle) MarkForRemoval() { h.shared.MarkForRemoval() }

// ListenerHandle is the control-side reference to a spatial listener.
type ListenerHandle struct {
	ID       uint64
	commands *command.RingWriter[listener.Command]
	shared   *listener.Shared
}

// SetPosition retargets the listener's position.
func (h *ListenerHandle) SetPosition(value tween.Value[r3.Vector], tw tween.Tween) error {
	return wrapQueueErr(h.commands.Write(listener.Command{Kind: listener.CmdSetPosition, Position: value, Tween: tw}))
}

// SetOrientation retargets the listener's facing.
func (h *ListenerHandle) SetOrientation(value tween.Value[tween.Quat], tw tween.Tween) error {
	return wrapQueueErr(h.commands.Write(listener.Command{Kind: listener.CmdSetOrientation, Orientation: value, Tween: tw}))
}

// MarkForRemoval flags the listener for removal.
func (h *ListenerHandle) MarkForRemoval() { h.shared.MarkForRemoval() }

func wrapQueueErr(err error) error {
	if err == nil {
		return nil
	}
	return ErrCommandQueueFull
}
