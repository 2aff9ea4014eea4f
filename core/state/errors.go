package state

import "errors"

// ErrHistoryGap is returned when a point history is read or written past its
// end.
var ErrHistoryGap = errors.New("state: point history index out of range")
