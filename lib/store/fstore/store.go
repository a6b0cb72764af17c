package fstore

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"time"

	"github.com/ValentinKolb/fKV/lib/codec"
	"github.com/ValentinKolb/fKV/lib/store"
	"github.com/ValentinKolb/fKV/lib/store/fstore/internal"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var log = logger.GetLogger("store")

const (
	// DefaultLockSlots is the size of the lock table if no size is configured
	DefaultLockSlots = 256

	dirPerm  = 0o755
	filePerm = 0o644
)

// Options configures a file store
type Options struct {
	Compression string           // Name of a built-in compression strategy ("" = none)
	Compressor  codec.Compressor // Custom compressor, takes precedence over Compression
	LockSlots   int              // Number of lock slots (0 = DefaultLockSlots)
}

// DefaultOptions returns the options used when NewFileStore is called with nil
func DefaultOptions() *Options {
	return &Options{
		Compression: codec.CompressionNone,
		LockSlots:   DefaultLockSlots,
	}
}

// storeImpl implements store.IStore on top of a directory tree
type storeImpl struct {
	root       string
	compressor codec.Compressor
	locks      *internal.LockTable
	dirs       *xsync.MapOf[string, struct{}] // shard directories known to exist
}

// NewFileStore creates a store rooted at the given directory. The directory is
// created if needed, construction fails if the path exists but is not a directory.
// Several stores may share a root within one process, but only writes through
// the same store are serialized on its lock table.
func NewFileStore(root string, opts *Options) (store.IStore, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.LockSlots < 0 {
		return nil, store.NewError(store.RetCConfiguration, fmt.Sprintf("invalid number of lock slots: %d", opts.LockSlots))
	}
	slots := opts.LockSlots
	if slots == 0 {
		slots = DefaultLockSlots
	}

	compressor, err := codec.ResolveCompressor(opts.Compression, opts.Compressor)
	if err != nil {
		return nil, err
	}

	if root == "" {
		return nil, store.NewError(store.RetCConstruction, "root path must not be empty")
	}
	root = filepath.Clean(root)

	stat, err := os.Stat(root)
	switch {
	case err == nil && !stat.IsDir():
		return nil, store.NewError(store.RetCConstruction, fmt.Sprintf("root path %s exists and is not a directory", root))
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return nil, store.WrapError(store.RetCConstruction, fmt.Sprintf("cannot access root path %s", root), err)
	}
	if err := os.MkdirAll(root, dirPerm); err != nil {
		return nil, store.WrapError(store.RetCConstruction, fmt.Sprintf("cannot create root path %s", root), err)
	}

	log.Infof("opened file store at %s (compression=%s, lock slots=%d)", root, compressor.Name(), slots)

	return &storeImpl{
		root:       root,
		compressor: compressor,
		locks:      internal.NewLockTable(slots),
		dirs:       xsync.NewMapOf[string, struct{}](),
	}, nil
}

// ensureDir creates a shard directory unless this store already created or saw it
//
// Thread-safety: This method is thread-safe, MkdirAll is idempotent.
func (s *storeImpl) ensureDir(dir string) error {
	if _, ok := s.dirs.Load(dir); ok {
		return nil
	}
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return err
	}
	s.dirs.Store(dir, struct{}{})
	return nil
}

// entryPath maps a key to its files and converts invalid keys to store errors
func (s *storeImpl) entryPath(key string) (string, string, error) {
	dir, file, err := internal.EntryPath(s.root, key)
	if err != nil {
		return "", "", store.WrapError(store.RetCInvalidKey, "invalid key", err)
	}
	return dir, file, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Set(key string, value []byte) (err error) {
	defer observe(opSet, time.Now(), &err)

	dir, file, err := s.entryPath(key)
	if err != nil {
		return err
	}
	if err := s.ensureDir(dir); err != nil {
		log.Errorf("cannot create shard directory %s: %v", dir, err)
		return store.WrapError(store.RetCInternalError, "cannot create shard directory", err)
	}

	data, err := s.compressor.Compress(value)
	if err != nil {
		return store.WrapError(store.RetCEncoding, fmt.Sprintf("cannot compress value with %s", s.compressor.Name()), err)
	}

	mu := s.locks.Slot(key)
	mu.Lock()
	err = os.WriteFile(file, data, filePerm)
	if errors.Is(err, fs.ErrNotExist) {
		// the shard directory was removed after it was cached
		s.dirs.Delete(dir)
		if err = s.ensureDir(dir); err == nil {
			err = os.WriteFile(file, data, filePerm)
		}
	}
	mu.Unlock()
	if err != nil {
		log.Errorf("cannot write entry %q: %v", key, err)
		return store.WrapError(store.RetCInternalError, "cannot write entry file", err)
	}

	log.Infof("set %q (%d bytes, %d on disk)", key, len(value), len(data))
	return nil
}

func (s *storeImpl) Get(key string) (value []byte, err error) {
	defer observe(opGet, time.Now(), &err)

	_, file, err := s.entryPath(key)
	if err != nil {
		return nil, err
	}

	mu := s.locks.Slot(key)
	mu.Lock()
	data, err := os.ReadFile(file)
	mu.Unlock()
	if errors.Is(err, fs.ErrNotExist) {
		return nil, store.NewError(store.RetCNotFound, fmt.Sprintf("key %q not found", key))
	} else if err != nil {
		log.Errorf("cannot read entry %q: %v", key, err)
		return nil, store.WrapError(store.RetCInternalError, "cannot read entry file", err)
	}

	value, err = s.compressor.Decompress(data)
	if err != nil {
		log.Warningf("cannot decompress entry %q with %s: %v", key, s.compressor.Name(), err)
		return nil, store.WrapError(store.RetCDecoding, fmt.Sprintf("cannot decompress value with %s", s.compressor.Name()), err)
	}

	log.Infof("get %q (%d bytes)", key, len(value))
	return value, nil
}

func (s *storeImpl) Has(key string) (loaded bool, err error) {
	defer observe(opHas, time.Now(), &err)

	_, file, err := s.entryPath(key)
	if err != nil {
		return false, err
	}

	stat, err := os.Stat(file)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	} else if err != nil {
		return false, store.WrapError(store.RetCInternalError, "cannot stat entry file", err)
	}
	return stat.Mode().IsRegular(), nil
}

func (s *storeImpl) Delete(key string) (err error) {
	defer observe(opDelete, time.Now(), &err)

	_, file, err := s.entryPath(key)
	if err != nil {
		return err
	}

	err = os.Remove(file)
	if errors.Is(err, fs.ErrNotExist) {
		return store.NewError(store.RetCNotFound, fmt.Sprintf("key %q not found", key))
	} else if err != nil {
		log.Errorf("cannot delete entry %q: %v", key, err)
		return store.WrapError(store.RetCInternalError, "cannot remove entry file", err)
	}

	log.Debugf("deleted %q", key)
	return nil
}

func (s *storeImpl) Keys() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		var err error
		defer observe(opKeys, time.Now(), &err)

		err = s.walk(func(key string, _ fs.DirEntry) bool {
			return yield(key, nil)
		})
		if err != nil {
			yield("", err)
		}
	}
}

func (s *storeImpl) Len() (int, error) {
	n := 0
	for _, err := range s.Keys() {
		if err != nil {
			return 0, err
		}
		n++
	}
	return n, nil
}

func (s *storeImpl) GetInfo() (info store.Info, err error) {
	defer observe(opInfo, time.Now(), &err)

	histogram := internal.NewSizeHistogram()
	perShard := map[string]int{}

	err = s.walk(func(key string, entry fs.DirEntry) bool {
		shard, _, _ := internal.SplitKey(key)
		perShard[shard]++
		if stat, err := entry.Info(); err == nil {
			histogram.AddSample(stat.Size())
		}
		return true
	})
	if err != nil {
		return store.Info{}, err
	}

	shardSizes := make([]float64, 0, len(perShard))
	for _, n := range perShard {
		shardSizes = append(shardSizes, float64(n))
	}

	meta := &struct {
		ShardDistribution internal.DistributionStats `json:"shard_distribution"`
		AverageEntrySize  int64                      `json:"average_entry_size"`
		MedianEntrySize   int64                      `json:"median_entry_size"`
		P90EntrySize      int64                      `json:"p90_entry_size"`
		KnownShardDirs    int                        `json:"known_shard_dirs"`
		Info              string                     `json:"info"`
	}{
		ShardDistribution: internal.NewDistributionStats(shardSizes),
		AverageEntrySize:  histogram.AverageSize(),
		MedianEntrySize:   histogram.MedianEstimate(),
		P90EntrySize:      histogram.PercentileEstimate(90),
		KnownShardDirs:    s.dirs.Size(),
		Info:              "Entry sizes are on-disk (compressed) sizes, median and p90 are bucket estimates.",
	}

	return store.Info{
		Path:        s.root,
		Entries:     int(histogram.Count()),
		ShardDirs:   len(perShard),
		SizeBytes:   histogram.Sum(),
		Compression: s.compressor.Name(),
		LockSlots:   s.locks.Size(),
		Metadata:    meta,
	}, nil
}

func (s *storeImpl) Path() string {
	return s.root
}

// --------------------------------------------------------------------------
// Directory walk
// --------------------------------------------------------------------------

// walk visits every entry file below the root until fn returns false.
// Stray files and directories are skipped, shard directories that disappear
// during the walk are ignored.
func (s *storeImpl) walk(fn func(key string, entry fs.DirEntry) bool) error {
	shards, err := os.ReadDir(s.root)
	if err != nil {
		return store.WrapError(store.RetCInternalError, "cannot list root directory", err)
	}

	for _, shard := range shards {
		if !shard.IsDir() {
			continue
		}
		entries, err := os.ReadDir(filepath.Join(s.root, shard.Name()))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		} else if err != nil {
			return store.WrapError(store.RetCInternalError, fmt.Sprintf("cannot list shard directory %s", shard.Name()), err)
		}

		for _, entry := range entries {
			if !entry.Type().IsRegular() {
				continue
			}
			key, ok := internal.KeyFromEntry(shard.Name(), entry.Name())
			if !ok {
				continue
			}
			if !fn(key, entry) {
				return nil
			}
		}
	}
	return nil
}
