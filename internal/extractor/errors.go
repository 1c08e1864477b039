package extractor

import "fmt"

// DocumentOpenError reports that a file could not be opened or parsed as a PDF.
// It is the only scanner failure that aborts a run.
type DocumentOpenError struct {
	Path string
	Err  error
}

func (e *DocumentOpenError) Error() string {
	return fmt.Sprintf("failed to open PDF %s: %v", e.Path, e.Err)
}

func (e *DocumentOpenError) Unwrap() error { return e.Err }
