package arena

import "errors"

// ErrArenaFull is returned when an Arena has no free slots left to
// satisfy an insert or reservation.
var ErrArenaFull = errors.New("arena: no free slots")

// ErrInvalidKey is returned when a Key's generation doesn't match the
// generation currently stored in its slot. This happens when the slot
// has been removed and possibly reused since the Key was issued.
var ErrInvalidKey = errors.New("arena: key generation mismatch")

// ErrKeyNotReserved is returned by InsertWithKey when the slot named by
// the key is already occupied.
var ErrKeyNotReserved = errors.New("arena: slot already occupied")
