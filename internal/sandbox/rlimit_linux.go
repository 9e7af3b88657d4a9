//go:build linux

package sandbox

import "golang.org/x/sys/unix"

// applyMemoryLimit imposes limitBytes as the child's RLIMIT_AS once it has
// started, enforced by the kernel rather than polled from userspace.
func applyMemoryLimit(pid int, limitBytes int64) {
	if limitBytes <= 0 {
		return
	}
	limit := uint64(limitBytes)
	rlimit := unix.Rlimit{Cur: limit, Max: limit}
	_ = unix.Prlimit(pid, unix.RLIMIT_AS, &rlimit, nil)
}
