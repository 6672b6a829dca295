package orchestrator

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	stateFileName = "orchestration_state.json"
	lockFileName  = "orchestration_state.lock"

	// lockWait bounds how long a call waits for the snapshot lock.
	lockWait = 2 * time.Second
	// staleLockAge is how old a lock file must be before another
	// process may assume its owner died and take it over.
	staleLockAge = 10 * time.Second
)

// statePath returns the snapshot file path.
func (e *Engine) statePath() string {
	return filepath.Join(e.dir, stateFileName)
}

// acquireLock takes the advisory cross-process lock for the snapshot.
// The snapshot is a shared external resource; every read-modify-write
// must hold this lock so two processes cannot interleave and corrupt
// counters. Returns a release function.
func (e *Engine) acquireLock() (func(), error) {
	lockPath := filepath.Join(e.dir, lockFileName)
	deadline := time.Now().Add(lockWait)

	for {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			f.Close()
			return func() { os.Remove(lockPath) }, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("acquire state lock: %w", err)
		}

		// Lock held. Take over stale locks left by dead processes.
		if info, statErr := os.Stat(lockPath); statErr == nil {
			if time.Since(info.ModTime()) > staleLockAge {
				os.Remove(lockPath)
				continue
			}
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("acquire state lock: %s held for more than %s", lockPath, lockWait)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// load reads the snapshot from disk. A missing file yields a fresh
// snapshot; an unreadable or corrupt file is fatal to the call, since
// silently resetting would violate the quota invariants.
func (e *Engine) load() (*Snapshot, error) {
	data, err := os.ReadFile(e.statePath())
	if os.IsNotExist(err) {
		return NewSnapshot(e.now()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read orchestration state: %w", err)
	}

	snap := &Snapshot{}
	if err := json.Unmarshal(data, snap); err != nil {
		return nil, fmt.Errorf("parse orchestration state: %w", err)
	}
	snap.normalize()
	return snap, nil
}

// save writes the snapshot atomically: marshal to a temp file in the
// same directory, then rename over the state file.
func (e *Engine) save(snap *Snapshot) error {
	if err := os.MkdirAll(e.dir, 0755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal orchestration state: %w", err)
	}

	tmp, err := os.CreateTemp(e.dir, stateFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp state file: %w", err)
	}

	if err := os.Rename(tmpPath, e.statePath()); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
