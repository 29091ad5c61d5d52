//go:build unix

package collector

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// processCPUTime returns user plus system time consumed by this process.
func processCPUTime() (time.Duration, error) {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		return 0, fmt.Errorf("getrusage: %w", err)
	}
	return time.Duration(ru.Utime.Nano() + ru.Stime.Nano()), nil
}
