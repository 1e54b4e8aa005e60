package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrValidation matches every *ValidationError returned by Add.
	ErrValidation = errors.New("invalid product")
	// ErrPersistenceWrite matches every *PersistenceWriteError returned by a mutation or Save.
	ErrPersistenceWrite = errors.New("failed to persist products")
	// ErrPersistenceRead matches the error Load returns when the backend could not be read.
	ErrPersistenceRead = errors.New("failed to read persisted products")
	ErrNotLoaded       = errors.New("product store is not loaded")
	ErrAlreadyLoaded   = errors.New("product store is already loaded")
	ErrIDExhausted     = errors.New("failed to generate a unique product id")
)

// ValidationError lists the rules each rejected field failed, keyed by the field's JSON name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(ErrValidation.Error())
	for i, name := range names {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString(", ")
		}
		b.WriteString(fmt.Sprintf("%s failed on rule %s", name, e.Fields[name]))
	}
	return b.String()
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// PersistenceWriteError reports a failed write of the collection.
// The in-memory mutation that triggered the write has already been applied.
type PersistenceWriteError struct {
	Key string
	Err error
}

func (e *PersistenceWriteError) Error() string {
	return fmt.Sprintf("%s under key %q: %v", ErrPersistenceWrite.Error(), e.Key, e.Err)
}

func (e *PersistenceWriteError) Unwrap() error {
	return e.Err
}

func (e *PersistenceWriteError) Is(target error) bool {
	return target == ErrPersistenceWrite
}
