package manager

import "errors"

// ErrResourceLimitReached is returned when a bounded arena (sub-tracks,
// send tracks) has no free slots left, or when the pending-registration
// queue for new clocks, modulators or listeners is full.
var ErrResourceLimitReached = errors.New("manager: resource limit reached")

// ErrCommandQueueFull is returned when a command ring to the realtime
// side is saturated; the caller should retry.
var ErrCommandQueueFull = errors.New("manager: command queue full")

// ErrNonexistentRoute is returned when changing the volume of a send
// route that wasn't declared when the track was built.
var ErrNonexistentRoute = errors.New("manager: nonexistent send route")

// ErrSoundLimitReached is returned by PlaySound when the target
// track's sound arena is full.
var ErrSoundLimitReached = errors.New("manager: sound limit reached")
