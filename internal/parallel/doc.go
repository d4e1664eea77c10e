// Package parallel checks many task documents concurrently.
//
// It provides:
//   - WorkerPool: bounded concurrency pool with optional fail-fast cancellation
//   - CheckFiles: parses a list of files through a WorkerPool
//
// Each worker parses its own document; no task tree is shared between goroutines.
package parallel
