package common

import "errors"

// ErrUnauthorized is returned when a privileged call is made by an address
// that holds none of the required roles.
var ErrUnauthorized = errors.New("unauthorized")

// Authorize succeeds when caller matches one of the permitted, non-zero
// addresses. Privileged handlers call it before touching state.
func Authorize(caller [20]byte, permitted ...[20]byte) error {
	if caller == ([20]byte{}) {
		return ErrUnauthorized
	}
	for _, addr := range permitted {
		if addr == ([20]byte{}) {
			continue
		}
		if addr == caller {
			return nil
		}
	}
	return ErrUnauthorized
}
