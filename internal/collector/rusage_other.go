//go:build !unix

package collector

import (
	"errors"
	"time"
)

func processCPUTime() (time.Duration, error) {
	return 0, errors.New("process cpu time not supported on this platform")
}
