//go:build !darwin && !linux

package scanner

import (
	"os"
	"time"
)

// createTime is not reported on this platform.
func createTime(_ string, _ os.FileInfo) time.Time {
	return time.Time{}
}
