//go:build !linux

package sandbox

// applyMemoryLimit is a no-op outside Linux; memory accounting there falls
// back to the post-exit rusage sample only.
func applyMemoryLimit(pid int, limitBytes int64) {}
