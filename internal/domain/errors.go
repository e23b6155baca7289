package domain

import "errors"

var (
	ErrImageDecode               = errors.New("image decode failed")
	ErrInvalidDimensions         = errors.New("invalid image dimensions")
	ErrIndexOutOfRange           = errors.New("tile index out of range")
	ErrUnsupportedTransformation = errors.New("unsupported transformation")
	ErrCommitmentMismatch        = errors.New("commitment mismatch")
	ErrChainDiscontinuity        = errors.New("chain step input does not match running commitment")
	ErrEmptyRegion               = errors.New("empty region")
	ErrNoFrames                  = errors.New("no keyframes supplied")
)
