package pkg

import "errors"

var (
	ErrTooShort             = errors.New("too short")
	ErrTooLong              = errors.New("too long")
	ErrInvalidSignature     = errors.New("invalid signature")
	ErrMalformedBox         = errors.New("malformed box")
	ErrTruncatedBox         = errors.New("truncated box")
	ErrUnknownBoxType       = errors.New("unknown box type")
	ErrMissingRequiredChild = errors.New("missing required child")
	ErrEOCDNotFound         = errors.New("end of central directory not found")
	ErrInvalidCentralDir    = errors.New("invalid central directory")
)
