package generator

import "errors"

var (
	errNilState      = errors.New("generator: state not configured")
	errNilBank       = errors.New("generator: bank not configured")
	errNotConfigured = errors.New("generator: config not initialised")

	// ErrPoolNotFound is returned for operations against an unregistered pool.
	ErrPoolNotFound = errors.New("generator: pool not found")

	// ErrDuplicatePool is returned when registering a token twice.
	ErrDuplicatePool = errors.New("generator: pool already registered")

	// ErrInsufficientBalance is returned when withdrawing more than deposited.
	ErrInsufficientBalance = errors.New("generator: insufficient balance")

	// ErrInvalidAmount is returned for negative amounts.
	ErrInvalidAmount = errors.New("generator: amount must not be negative")

	// ErrInvalidAddress is returned when the zero address is supplied where a
	// pool, owner or dev recipient is required.
	ErrInvalidAddress = errors.New("generator: invalid address")

	// ErrAllocInvariant signals that the stored total allocation drifted from
	// the per-pool sum.
	ErrAllocInvariant = errors.New("generator: total alloc point does not match pools")
)
