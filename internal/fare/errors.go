package fare

import "fmt"

// DocumentParseError reports a provider document that is not valid JSON.
type DocumentParseError struct {
	Provider Provider
	Err      error
}

func (e *DocumentParseError) Error() string {
	return fmt.Sprintf("%s: parse document: %v", e.Provider, e.Err)
}

func (e *DocumentParseError) Unwrap() error { return e.Err }

// UnsupportedProviderError reports a provider tag with no registered strategy.
type UnsupportedProviderError struct {
	Provider string
}

func (e *UnsupportedProviderError) Error() string {
	return fmt.Sprintf("unsupported provider %q", e.Provider)
}

// InsufficientDataError reports fewer distinct fares than a strict
// normalizer requires.
type InsufficientDataError struct {
	Provider Provider
	Want     int
	Got      int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: want %d distinct fares, got %d", e.Provider, e.Want, e.Got)
}

// StorageError wraps a Price Store failure. Records computed before the
// failure stay valid.
type StorageError struct {
	Backend string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
