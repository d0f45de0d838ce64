// Package artifact contains implementations of core.ArtifactStore and the
// transcript format written when a match finishes.
//
// The ArtifactStore interface lives in the core package so the engine can
// accept any backend. Two backends are provided: InMemoryStore for tests and
// single process hosts, and DirStore which writes one file per artifact below
// a root directory.
package artifact
