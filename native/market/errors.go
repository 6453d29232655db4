package market

import "errors"

var (
	ErrNotConfigured     = errors.New("market: engine not configured")
	ErrAlreadyConfigured = errors.New("market: engine already configured")

	ErrDoesNotExist        = errors.New("market: does not exist")
	ErrNotOwner            = errors.New("market: not the owner")
	ErrNotAuthorized       = errors.New("market: not authorized")
	ErrInsufficientBalance = errors.New("market: insufficient balance")
	ErrInvalidValue        = errors.New("market: invalid value")
	ErrWrongPeriod         = errors.New("market: wrong period")
)
