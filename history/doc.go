// Package history provides an in-memory core.HistoryStore that records the
// events emitted for each match. It is a volatile log for observers and tests;
// it is not a save/load format.
package history
