// Package uid generates identifiers: numeric row ids, correlation ids and
// opaque secret tokens.
package uid

// NumberID generates unique int64 identifiers.
type NumberID interface {
	Generate() int64
}

// StringID generates unique string identifiers.
type StringID interface {
	Generate() string
}

// Token generates unguessable secrets.
type Token interface {
	Generate() (string, error)
}
