package resource

import "errors"

// ErrQueueFull is returned when a command or resource ring has no room
// left. Callers should retry; the realtime side never blocks on this.
var ErrQueueFull = errors.New("resource: queue full")
