// Package daemon coordinates the long-running reelforge process.
//
// It wires configuration, the ledger store, and the animation pipeline into a
// single lifecycle with flock-based locking to prevent multiple instances,
// runs preflight checks before binding, and owns the HTTP surface: the
// generation endpoint, conversation and status queries, health, and static
// serving of published videos.
//
// Keep orchestration logic here: job execution lives in the pipeline package
// while the daemon focuses on startup, shutdown, and the transport boundary.
package daemon
