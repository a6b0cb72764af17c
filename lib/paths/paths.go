// Package paths resolves default root directories for stores and caches.
package paths

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("store")

// DirName is the directory below the home or temp directory holding all namespaces
const DirName = ".fkv"

// tempDirName replaces DirName inside the temp directory
const tempDirName = "fkv"

// overridable in tests
var (
	userHomeDir = os.UserHomeDir
	tempDir     = os.TempDir
)

// DefaultStoragePath returns a writable directory for the namespace ns, creating it
// if needed. It prefers ~/.fkv/<ns> and falls back to <tmp>/fkv/<ns> when the home
// directory is unknown or not writable.
func DefaultStoragePath(ns string) (string, error) {
	if home, err := userHomeDir(); err == nil && home != "" {
		dir := filepath.Join(home, DirName, ns)
		err := ensureWritable(dir)
		if err == nil {
			return dir, nil
		}
		if !errors.Is(err, fs.ErrPermission) {
			return "", err
		}
		log.Warningf("cannot use %s: %v, falling back to the temp directory", dir, err)
	}

	dir := filepath.Join(tempDir(), tempDirName, ns)
	if err := ensureWritable(dir); err != nil {
		return "", err
	}
	return dir, nil
}

// DefaultCachePath returns the default directory for memoization caches
func DefaultCachePath() (string, error) {
	return DefaultStoragePath("cache")
}

// ensureWritable creates dir and checks that files can be created in it
func ensureWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}
