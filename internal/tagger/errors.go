package tagger

import "errors"

var (
	// ErrImageUnreadable means the file is missing, corrupt or not a supported
	// image container.
	ErrImageUnreadable = errors.New("image unreadable")

	// ErrMetadataWriteFailed means the metadata store rejected the write. The
	// underlying cause is wrapped alongside it.
	ErrMetadataWriteFailed = errors.New("metadata write failed")
)
