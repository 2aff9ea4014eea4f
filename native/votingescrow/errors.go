package votingescrow

import "errors"

var (
	errNilState      = errors.New("votingescrow: state not configured")
	errNilBank       = errors.New("votingescrow: bank not configured")
	errNotConfigured = errors.New("votingescrow: config not initialised")

	// ErrLockAlreadyExists is returned when an address with a lock record,
	// expired or not, tries to open another one.
	ErrLockAlreadyExists = errors.New("votingescrow: lock already exists")

	// ErrNoLockFound is returned for mutations against an address without a lock.
	ErrNoLockFound = errors.New("votingescrow: lock not found")

	// ErrLockExpired is returned when topping up or extending an expired lock.
	ErrLockExpired = errors.New("votingescrow: lock expired")

	// ErrLockNotExpired is returned when withdrawing before the end period.
	ErrLockNotExpired = errors.New("votingescrow: lock not expired")

	// ErrAddressBlacklisted is returned when a blacklisted address tries to
	// acquire voting power.
	ErrAddressBlacklisted = errors.New("votingescrow: address blacklisted")

	// ErrFutureQuery is returned for voting power queries beyond the current
	// period.
	ErrFutureQuery = errors.New("votingescrow: query in the future")

	ErrInvalidAmount  = errors.New("votingescrow: amount must be positive")
	ErrInvalidPeriods = errors.New("votingescrow: periods must be positive")
	ErrLockTooShort   = errors.New("votingescrow: lock shorter than minimum")
	ErrLockTooLong    = errors.New("votingescrow: lock longer than maximum")
	ErrInvalidAddress = errors.New("votingescrow: invalid address")
)
