package token

import "errors"

var (
	errStateNotConfigured = errors.New("token: state not configured")

	// ErrInsufficientFunds is returned when the available (unlocked) balance
	// cannot cover a lock or the balance cannot cover a burn.
	ErrInsufficientFunds = errors.New("token: insufficient funds")
	// ErrInsufficientLocked is returned when unlocking more than is locked.
	ErrInsufficientLocked = errors.New("token: insufficient locked balance")
	// ErrInvalidAmount is returned for nil or negative amounts.
	ErrInvalidAmount = errors.New("token: amount must not be negative")
)
