package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ErrLockTimeout is returned when another process keeps a file locked.
var ErrLockTimeout = errors.New("timeout waiting for file lock")

// fileLock is a held <path>.lock file
type fileLock struct {
	file *os.File
	path string
}

// AtomicWriteConfig controls atomic writing behavior
type AtomicWriteConfig struct {
	UseFsync       bool          // Force fsync before rename
	LockTimeout    time.Duration // Max time to wait for a file lock
	BackupOriginal bool          // Keep <path>.bak.<timestamp> before replacing
}

// DefaultAtomicConfig returns the configuration used by the runner.
func DefaultAtomicConfig() AtomicWriteConfig {
	return AtomicWriteConfig{
		UseFsync:    false,
		LockTimeout: 5 * time.Second,
	}
}

// AtomicWriter replaces files through a temp file and rename, guarded by a
// lock file so concurrent rspecfx processes do not interleave writes.
type AtomicWriter struct {
	config AtomicWriteConfig
	locks  map[string]*fileLock
	mu     sync.Mutex
}

// NewAtomicWriter creates a new atomic writer
func NewAtomicWriter(config AtomicWriteConfig) *AtomicWriter {
	return &AtomicWriter{
		config: config,
		locks:  make(map[string]*fileLock),
	}
}

// WriteFile atomically replaces path with data, keeping the original mode.
// It returns the backup path when backups are enabled.
func (aw *AtomicWriter) WriteFile(path string, data []byte) (string, error) {
	if err := aw.acquireLock(path); err != nil {
		return "", fmt.Errorf("failed to acquire lock for %s: %w", path, err)
	}
	defer aw.releaseLock(path)

	mode := os.FileMode(0o644)
	info, statErr := os.Stat(path)
	if statErr == nil {
		mode = info.Mode().Perm()
	}

	var backupPath string
	if aw.config.BackupOriginal && statErr == nil {
		var err error
		backupPath, err = aw.createBackup(path)
		if err != nil {
			return "", fmt.Errorf("failed to create backup: %w", err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.rspecfx.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := aw.fill(tmp, data, mode); err != nil {
		os.Remove(tmpPath)
		return "", err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to atomic rename: %w", err)
	}

	return backupPath, nil
}

// fill writes data to the temp file and closes it.
func (aw *AtomicWriter) fill(tmp *os.File, data []byte, mode os.FileMode) error {
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write content: %w", err)
	}
	if aw.config.UseFsync {
		if err := tmp.Sync(); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to sync: %w", err)
		}
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), mode); err != nil {
		return fmt.Errorf("failed to set mode: %w", err)
	}
	return nil
}

// acquireLock creates <path>.lock, waiting for other holders up to the
// configured timeout. Locks left by dead processes are removed.
func (aw *AtomicWriter) acquireLock(path string) error {
	aw.mu.Lock()
	if _, held := aw.locks[path]; held {
		aw.mu.Unlock()
		return nil
	}
	aw.mu.Unlock()

	lockPath := path + ".lock"
	deadline := time.Now().Add(aw.config.LockTimeout)
	for {
		lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			fmt.Fprintf(lockFile, "%d\n", os.Getpid())

			aw.mu.Lock()
			aw.locks[path] = &fileLock{file: lockFile, path: lockPath}
			aw.mu.Unlock()
			return nil
		}

		if !os.IsExist(err) {
			return fmt.Errorf("failed to create lock file: %w", err)
		}
		if isLockStale(lockPath) {
			os.Remove(lockPath)
			continue
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: %s", ErrLockTimeout, path)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func (aw *AtomicWriter) releaseLock(path string) {
	aw.mu.Lock()
	lock, held := aw.locks[path]
	delete(aw.locks, path)
	aw.mu.Unlock()

	if held {
		lock.file.Close()
		os.Remove(lock.path)
	}
}

// isLockStale reports a lock file whose owner process is gone.
func isLockStale(lockPath string) bool {
	content, err := os.ReadFile(lockPath)
	if err != nil {
		return true
	}

	var pid int
	if _, err := fmt.Sscanf(string(content), "%d", &pid); err != nil {
		return true
	}

	return !isProcessAlive(pid)
}

func (aw *AtomicWriter) createBackup(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	backupPath := fmt.Sprintf("%s.bak.%s", path, time.Now().Format("20060102-150405"))
	return backupPath, os.WriteFile(backupPath, content, 0o644)
}

// Cleanup releases every held lock. Call on shutdown.
func (aw *AtomicWriter) Cleanup() {
	aw.mu.Lock()
	paths := make([]string, 0, len(aw.locks))
	for path := range aw.locks {
		paths = append(paths, path)
	}
	aw.mu.Unlock()

	for _, path := range paths {
		aw.releaseLock(path)
	}
}
