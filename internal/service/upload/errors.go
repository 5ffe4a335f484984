package upload

import "errors"

// Sentinel errors for the upload service layer. Rejections that the user
// can act on are domain errors; these cover transport-level limits.
var (
	ErrFileTooLarge = errors.New("uploaded file exceeds the size limit")
)
