package model

import (
	"fmt"
	"slices"
)

// RequestReference holds the ordered compose URLs to fetch. The zero value is
// an empty request. Fields are unexported so that a reference can not be
// modified after construction.
type RequestReference struct {
	composeURLs []string
}

// NewRequestReference creates a RequestReference from urls. The slice is copied.
func NewRequestReference(urls ...string) RequestReference {
	return RequestReference{
		composeURLs: slices.Clone(urls),
	}
}

// ComposeURLs returns a copy of the compose URLs in request order
func (r RequestReference) ComposeURLs() []string {
	return slices.Clone(r.composeURLs)
}

// Len returns number of compose URLs
func (r RequestReference) Len() int {
	return len(r.composeURLs)
}

// ResultReference points to the local directory where compose files were stored
type ResultReference struct {
	composeDirPath string
	composeFiles   []string
}

// NewResultReference creates a ResultReference. files must be in creation order.
func NewResultReference(dir string, files ...string) ResultReference {
	return ResultReference{
		composeDirPath: dir,
		composeFiles:   slices.Clone(files),
	}
}

// ComposeDirPath returns the directory holding fetched compose files
func (r ResultReference) ComposeDirPath() string {
	return r.composeDirPath
}

// ComposeFiles returns paths of the files written by the fetch, one per URL
// and in URL order
func (r ResultReference) ComposeFiles() []string {
	return slices.Clone(r.composeFiles)
}

// HTTPStatusError is returned when a compose URL responds with non-2xx status
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d for %s", e.StatusCode, e.URL)
}
