package service

import "errors"

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not found")
	ErrParentNotFound = errors.New("parent comment not found")
	ErrConflict       = errors.New("content has been modified")
	ErrInvalidInput   = errors.New("invalid input")
	ErrDepthExceeded  = errors.New("reply chain too deep")
	ErrScopeViolation = errors.New("parent belongs to another article")

	ErrSizeExceeded   = errors.New("file too large")
	ErrInvalidSession = errors.New("invalid upload session")
	ErrChunkInFlight  = errors.New("chunk upload already in progress")
	ErrChunkWrite     = errors.New("chunk write failed")
	ErrReassembly     = errors.New("file reassembly failed")
)
