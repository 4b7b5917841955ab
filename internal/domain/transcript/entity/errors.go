package entity

import "errors"

// Domain errors for transcript analysis
var (
	ErrEmptyTranscript     = errors.New("transcript is empty")
	ErrTranscriptTooLarge  = errors.New("transcript exceeds maximum size")
	ErrUnrecognizedFormat  = errors.New("file empty or unrecognized format")
	ErrInvalidDateOrder    = errors.New("date order must be dmy or mdy")
	ErrReportNotFound      = errors.New("report not found")
	ErrPersistenceDisabled = errors.New("report storage is not configured")
	ErrArchiveDisabled     = errors.New("transcript archive is not configured")
)
