package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"
)

// LockTimeout is how long Save and Load wait for the dataset lock.
const LockTimeout = 5 * time.Second

const lockFileName = ".lock"

// dirLock is a flock(2) held on the dataset's lock file. Writers take it
// exclusively, readers shared, so a reader never sees a half-replaced set
// of files.
type dirLock struct {
	file *os.File
}

func lockDir(dir string, exclusive bool, timeout time.Duration) (*dirLock, error) {
	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return nil, fmt.Errorf("creating dataset directory: %w", err)
	}

	path := filepath.Join(dir, lockFileName)

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}

	how := unix.LOCK_SH
	if exclusive {
		how = unix.LOCK_EX
	}

	deadline := time.Now().Add(timeout)
	backoff := time.Millisecond

	for {
		err = flockRetryEINTR(int(file.Fd()), how|unix.LOCK_NB)
		if err == nil {
			return &dirLock{file: file}, nil
		}

		if !errors.Is(err, unix.EWOULDBLOCK) {
			_ = file.Close()

			return nil, fmt.Errorf("locking %s: %w", path, err)
		}

		if time.Now().After(deadline) {
			_ = file.Close()

			return nil, fmt.Errorf("%w: %s (waited %s)", ErrLocked, dir, timeout)
		}

		time.Sleep(backoff)
		backoff = min(backoff*2, 25*time.Millisecond)
	}
}

// Close releases the lock. Safe to call on a nil lock.
func (l *dirLock) Close() error {
	if l == nil || l.file == nil {
		return nil
	}

	unlockErr := flockRetryEINTR(int(l.file.Fd()), unix.LOCK_UN)
	closeErr := l.file.Close()
	l.file = nil

	if unlockErr != nil {
		unlockErr = fmt.Errorf("unlocking: %w", unlockErr)
	}

	return errors.Join(unlockErr, closeErr)
}

func flockRetryEINTR(fd int, how int) error {
	for {
		err := unix.Flock(fd, how)
		if !errors.Is(err, unix.EINTR) {
			return err
		}
	}
}
