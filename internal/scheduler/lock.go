package scheduler

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/fntelecomllc/zonepipe/internal/errs"
)

// fileLock is the cross-process half of the at-most-one-concurrent-run
// guarantee from spec.md §4.I: a lock file in the project root, created
// exclusively so a second process's orchestrator run fails fast instead
// of racing the first.
type fileLock struct {
	path string
}

// acquireFileLock creates path exclusively, recording this process's pid,
// and fails if the file already exists.
func acquireFileLock(path string) (*fileLock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errs.New(errs.PathError, "", "scheduler", "create lock dir", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, errs.New(errs.Transient, "", "scheduler", fmt.Sprintf("orchestrator run already in progress (lock %s held)", path), err)
		}
		return nil, errs.New(errs.PathError, "", "scheduler", "create lock file", err)
	}
	defer f.Close()
	if _, err := f.WriteString(strconv.Itoa(os.Getpid())); err != nil {
		os.Remove(path)
		return nil, errs.New(errs.PathError, "", "scheduler", "write lock file", err)
	}
	return &fileLock{path: path}, nil
}

func (l *fileLock) release() error {
	return os.Remove(l.path)
}
