package upload

import "errors"

var (
	ErrInvalidValue         = errors.New("invalid value")
	ErrAmbiguousFieldAccess = errors.New("multi file upload: files cannot be distinguished by their field name")
	ErrFileNotFound         = errors.New("no file for field")
	ErrInvalidTransition    = errors.New("invalid file state transition")

	ErrDirectoryNotExist    = errors.New("the given upload directory does not exist")
	ErrNotADirectory        = errors.New("the given upload directory is not a directory")
	ErrDirectoryNotWritable = errors.New("the given upload directory is not writable")
	ErrMoveFailed           = errors.New("could not move file")

	ErrUploadNotFound = errors.New("upload not found")
	ErrDuplicate      = errors.New("upload already recorded")
	ErrNoFiles        = errors.New("no files provided")
	ErrInvalidDir     = errors.New("invalid target directory")
)
