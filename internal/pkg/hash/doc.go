// Package hash provides keyed digests for secrets that must be looked up by
// value but never stored in the clear, such as session tokens.
package hash
