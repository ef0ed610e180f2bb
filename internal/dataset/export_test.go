package dataset

import (
	"io"
	"time"
)

// ExportLockDir exposes lockDir for testing.
func ExportLockDir(dir string, exclusive bool, timeout time.Duration) (io.Closer, error) {
	return lockDir(dir, exclusive, timeout)
}

// TestLockFileName exposes the lock file name for testing.
const TestLockFileName = lockFileName
