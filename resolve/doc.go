// Package resolve implements the turn resolver: the deterministic, race-free
// collapse of one round's independent move intents into a single consistent
// plan for the shared board.
//
// Resolution proceeds in fixed stages:
//
//  1. Tentative move: every decision is applied to its agent's position; moves
//     leaving the board are clamped to the current cell and behave like Stay.
//  2. Collision grouping: agents are partitioned by tentative cell.
//  3. Arbitration: claimants of a contested cell are shuffled with the injected
//     random source, then stably sorted by descending power. The first keeps
//     the cell, the rest are bumped.
//  4. Winners and uncontested agents keep their tentative cell.
//  5. Bumped agents are relocated in ascending id order: spawn point if
//     unclaimed, else a random empty unclaimed neighbor of the spawn point,
//     else the spawn point regardless (reported as an overlap).
//  6. Items under final positions (read from the pre-round grid) are collected.
//
// The resolver never mutates the grid it reads; the returned
// core.ResolvedRound is applied by the owning match.
package resolve
