// Package memory keeps short per-minion notes between rounds. Model driven
// providers store the strategy a minion announced and replay the most recent
// ones in later prompts so the minion can stick to a plan.
package memory
