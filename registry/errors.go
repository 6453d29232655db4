package registry

import "errors"

var (
	ErrUnknownAsset        = errors.New("registry: unknown asset")
	ErrAssetExists         = errors.New("registry: asset already exists")
	ErrNotOwner            = errors.New("registry: not the asset owner")
	ErrNotAuthorized       = errors.New("registry: operator not authorized")
	ErrInsufficientBalance = errors.New("registry: insufficient balance")
	ErrInvalidValue        = errors.New("registry: invalid value")
)
