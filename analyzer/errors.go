package analyzer

import (
	"errors"
	"fmt"
)

var (
	ErrNoResults     = errors.New("no search results supplied")
	ErrInvalidResult = errors.New("invalid search result")
	ErrEmptyQuery    = errors.New("query is empty")
	ErrEmptyCorpus   = errors.New("no usable competitor content")
)

// EmptyCorpusError reports that every competitor failed fetch, fallback or
// viability. errors.Is(err, ErrEmptyCorpus) holds for it.
type EmptyCorpusError struct {
	Query     string
	Attempted int
	Excluded  []ExcludedResult
}

func (e *EmptyCorpusError) Error() string {
	return fmt.Sprintf("%s for %q: all %d results failed", ErrEmptyCorpus, e.Query, e.Attempted)
}

func (e *EmptyCorpusError) Is(target error) bool {
	return target == ErrEmptyCorpus
}

// IsInputError reports whether err was caused by a malformed request.
func IsInputError(err error) bool {
	return errors.Is(err, ErrNoResults) || errors.Is(err, ErrInvalidResult) || errors.Is(err, ErrEmptyQuery)
}
