package pipeline

import "errors"

// User-correctable rejections. Anything else surfacing from the pipeline
// is an internal failure the uploader cannot fix by re-uploading.
var (
	ErrNoKeywords       = errors.New("no usable search keywords; provide comma-separated fragments of at least two characters")
	ErrNoMatchingColumn = errors.New("no column header contains any of the requested keywords")
	ErrNoMatchFound     = errors.New("no matches found for the uploaded identifiers")
)

func IsUserError(err error) bool {
	return errors.Is(err, ErrNoKeywords) ||
		errors.Is(err, ErrNoMatchingColumn) ||
		errors.Is(err, ErrNoMatchFound)
}
