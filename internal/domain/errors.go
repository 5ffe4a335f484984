package domain

import "errors"

// Sentinel error kinds. Lower layers wrap these with fmt.Errorf("...: %w");
// the session machine maps them to user replies with errors.Is.
var (
	ErrInvalidFormat       = errors.New("input does not match the expected block format")
	ErrUnsupportedFileType = errors.New("file type not accepted in this mode")
	ErrUndecodableContent  = errors.New("file content could not be decoded")
	ErrNoExtractableData   = errors.New("no phone numbers or contacts found")
	ErrInvalidSeed         = errors.New("custom name must end with digits")
	ErrInsufficientData    = errors.New("not enough numbers for the requested batch")
	ErrMalformedBatchSpec  = errors.New("malformed batch format line")
	ErrStateMismatch       = errors.New("no operation pending for this input")
	ErrTooManyFiles        = errors.New("file limit reached for this mode")
	ErrMissingData         = errors.New("collected data missing")
	ErrStatusGone          = errors.New("status message no longer editable")
)
