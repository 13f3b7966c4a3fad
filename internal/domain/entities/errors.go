package entities

import "errors"

// Domain errors
var (
	ErrEmptyFilePath   = errors.New("file path is required")
	ErrFileIsDirectory = errors.New("file path points to a directory")
)
