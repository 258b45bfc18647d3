package core

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// WriterConfig controls how extraction outputs are written.
type WriterConfig struct {
	UseFsync    bool          // Sync the temp file before renaming
	LockTimeout time.Duration // Max time to wait for another writer
	TempSuffix  string
	Backup      bool // Keep the previous output as <path>.<timestamp>.bak
}

// DefaultWriterConfig returns the settings used by the CLI.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		LockTimeout: 5 * time.Second,
		TempSuffix:  ".errers.tmp",
	}
}

// AtomicWriter replaces output files through a temp file and a rename, so
// that a reader never sees a half-written text or timing report. A lock
// file next to the target keeps concurrent runs on the same document from
// interleaving.
type AtomicWriter struct {
	config WriterConfig
	mu     sync.Mutex
	held   map[string]*os.File
}

func NewAtomicWriter(config WriterConfig) *AtomicWriter {
	if config.TempSuffix == "" {
		config.TempSuffix = DefaultWriterConfig().TempSuffix
	}
	return &AtomicWriter{config: config, held: make(map[string]*os.File)}
}

// WriteFile atomically replaces path with content.
func (w *AtomicWriter) WriteFile(path string, content []byte) error {
	if err := w.lock(path); err != nil {
		return fmt.Errorf("failed to acquire lock for %s: %w", path, err)
	}
	defer w.unlock(path)

	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode()
		if w.config.Backup {
			if err := backup(path); err != nil {
				return fmt.Errorf("failed to create backup: %w", err)
			}
		}
	}

	tmp := path + w.config.TempSuffix
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write content: %w", err)
	}
	if w.config.UseFsync {
		if err := f.Sync(); err != nil {
			f.Close()
			os.Remove(tmp)
			return fmt.Errorf("failed to sync: %w", err)
		}
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to atomic rename: %w", err)
	}
	return nil
}

func (w *AtomicWriter) lock(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.held[path]; ok {
		return nil
	}
	lockPath := path + ".lock"
	deadline := time.Now().Add(w.config.LockTimeout)
	for {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			// PID lets another process detect a stale lock
			fmt.Fprintf(f, "%d\n", os.Getpid())
			w.held[path] = f
			return nil
		}
		if !os.IsExist(err) {
			return fmt.Errorf("failed to create lock file: %w", err)
		}
		if lockIsStale(lockPath) {
			os.Remove(lockPath)
			continue
		}
		if !time.Now().Before(deadline) {
			return fmt.Errorf("timeout waiting for lock on %s", path)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func (w *AtomicWriter) unlock(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if f, ok := w.held[path]; ok {
		f.Close()
		os.Remove(path + ".lock")
		delete(w.held, path)
	}
}

// unreadableLockAge is how long a lock without a PID is honored; its owner
// may still be writing it.
const unreadableLockAge = time.Second

// lockIsStale reports whether the lock was left by a dead process.
func lockIsStale(lockPath string) bool {
	content, err := os.ReadFile(lockPath)
	var pid int
	if err == nil {
		_, err = fmt.Sscanf(string(content), "%d", &pid)
	}
	if err != nil {
		info, statErr := os.Stat(lockPath)
		return statErr != nil || time.Since(info.ModTime()) > unreadableLockAge
	}
	return !isProcessAlive(pid)
}

func backup(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	name := fmt.Sprintf("%s.%s.bak", filepath.Base(path), time.Now().Format("20060102-150405"))
	return os.WriteFile(filepath.Join(filepath.Dir(path), name), content, 0o644)
}
