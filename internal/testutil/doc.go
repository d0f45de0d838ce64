// Package testutil contains helper builders and stub providers used across
// tests to reduce boilerplate when constructing configs, grids and decision
// providers with awkward behavior (slow, failing, panicking, recording).
// They are not intended for production usage.
package testutil
