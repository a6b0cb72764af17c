package memo

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"runtime"
	"strings"
	"sync/atomic"

	"github.com/ValentinKolb/fKV/lib/codec"
	"github.com/ValentinKolb/fKV/lib/store"
	"github.com/ValentinKolb/fKV/lib/store/tstore"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	"golang.org/x/sync/singleflight"
)

var log = logger.GetLogger("memo")

// strategies that can hold arbitrary inputs and outputs
var allowedSerializations = map[string]bool{
	codec.SerializationJSON:    true,
	codec.SerializationGob:     true,
	codec.SerializationMsgpack: true,
}

var (
	unsafePathChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

	// keys are always derived from canonical json, whatever the entry strategy
	keyEncoder = codec.NewJSONSerializer()
)

// Options configures a memoization cache
type Options struct {
	Name               string // Function identity used in keys and the default path ("" = runtime function name)
	Path               string // Root directory of the cache ("" = DefaultPath(name, serialization))
	Serialization      string // json (default), gob or msgpack
	Compression        string // Compression of the entry files ("" = none)
	CollapseConcurrent bool   // Run fn once for concurrent identical first calls within this process
}

// Inputs records what an entry was computed from
type Inputs[A any] struct {
	Name string `json:"name"`
	Args A      `json:"args"`
}

// Entry is the value persisted per call
type Entry[A, R any] struct {
	Inputs Inputs[A] `json:"inputs"`
	Output R         `json:"output"`
}

// Stats counts lookups of a cache since it was created
type Stats struct {
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
}

// Cache memoizes the results of fn on disk. Multiple arguments are passed as a struct.
type Cache[A, R any] struct {
	fn      func(A) (R, error)
	name    string
	ext     string
	store   *tstore.TypedStore
	flights *singleflight.Group // nil unless concurrent calls are collapsed

	hits, misses            atomic.Uint64
	hitCounter, missCounter *metrics.Counter
}

// DefaultPath returns the cache directory used when Options.Path is empty
func DefaultPath(name, serialization string) string {
	short := name[strings.LastIndex(name, "/")+1:]
	return fmt.Sprintf("./_fkvcache_%s_%s", unsafePathChars.ReplaceAllString(short, "_"), serialization)
}

// Wrap creates a cache around fn. The cache directory is created immediately.
func Wrap[A, R any](fn func(A) (R, error), opts *Options) (*Cache[A, R], error) {
	if fn == nil {
		return nil, store.NewError(store.RetCConfiguration, "memo: function must not be nil")
	}
	if opts == nil {
		opts = &Options{}
	}

	serialization := strings.ToLower(strings.TrimSpace(opts.Serialization))
	if serialization == "" {
		serialization = codec.SerializationJSON
	}
	if serialization == "binary" {
		serialization = codec.SerializationGob
	}
	if !allowedSerializations[serialization] {
		return nil, store.NewError(store.RetCConfiguration,
			fmt.Sprintf("memo: serialization must be one of json, gob, msgpack, got %q", opts.Serialization))
	}

	name := opts.Name
	if name == "" {
		name = runtime.FuncForPC(reflect.ValueOf(fn).Pointer()).Name()
	}
	path := opts.Path
	if path == "" {
		path = DefaultPath(name, serialization)
	}

	ts, err := tstore.Open(path, &tstore.Options{
		Serialization: serialization,
		Compression:   opts.Compression,
	})
	if err != nil {
		return nil, err
	}

	c := &Cache[A, R]{
		fn:          fn,
		name:        name,
		ext:         ts.Serializer().Extension(),
		store:       ts,
		hitCounter:  metrics.GetOrCreateCounter(fmt.Sprintf(`fkv_memo_hits_total{name=%q}`, name)),
		missCounter: metrics.GetOrCreateCounter(fmt.Sprintf(`fkv_memo_misses_total{name=%q}`, name)),
	}
	if opts.CollapseConcurrent {
		c.flights = &singleflight.Group{}
	}

	log.Infof("memoizing %s in %s (serialization=%s)", name, path, serialization)
	return c, nil
}

// Key returns the entry key of a call: the hex sha256 of the canonical json
// encoding of [name, args] plus the extension of the serialization strategy.
// Arguments the strategy can not encode fail with store.RetCEncoding.
func (c *Cache[A, R]) Key(args A) (string, error) {
	if _, err := c.store.Serializer().Marshal(Inputs[A]{Name: c.name, Args: args}); err != nil {
		return "", store.WrapError(store.RetCEncoding, fmt.Sprintf("memo: %s cannot encode the arguments", c.store.Serializer().Name()), err)
	}

	return KeyFor(c.name, args, c.ext)
}

// KeyFor derives the entry key of a call to the function name with args
// for a strategy with the given file extension
func KeyFor(name string, args any, ext string) (string, error) {
	canonical, err := keyEncoder.Marshal([]any{name, args})
	if err != nil {
		return "", store.WrapError(store.RetCEncoding, "memo: arguments have no canonical json form", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]) + "." + ext, nil
}

// Call returns the stored result for args or computes and stores it.
// Errors returned by fn are passed through and nothing is stored.
// Without CollapseConcurrent, concurrent first calls may all run fn.
func (c *Cache[A, R]) Call(args A) (R, error) {
	var zero R

	key, err := c.Key(args)
	if err != nil {
		return zero, err
	}

	if c.flights == nil {
		return c.lookupOrCompute(key, args)
	}

	v, err, shared := c.flights.Do(key, func() (any, error) {
		return c.lookupOrCompute(key, args)
	})
	if err != nil {
		return zero, err
	}
	if shared {
		log.Debugf("%s: shared result for %s", c.name, key)
	}
	out, _ := v.(R)
	return out, nil
}

// lookupOrCompute returns the stored output for key or runs fn and stores the entry
func (c *Cache[A, R]) lookupOrCompute(key string, args A) (R, error) {
	var zero R

	var entry Entry[A, R]
	err := c.store.GetInto(key, &entry)
	if err == nil {
		c.hits.Add(1)
		c.hitCounter.Inc()
		log.Debugf("%s: hit %s", c.name, key)
		return entry.Output, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return zero, err
	}

	c.misses.Add(1)
	c.missCounter.Inc()
	log.Debugf("%s: miss %s", c.name, key)

	out, err := c.fn(args)
	if err != nil {
		return zero, err
	}

	entry = Entry[A, R]{Inputs: Inputs[A]{Name: c.name, Args: args}, Output: out}
	if err := c.store.Set(key, entry); err != nil {
		log.Warningf("%s: cannot store result for %s: %v", c.name, key, err)
		return zero, err
	}
	return out, nil
}

// Func returns the memoized function
func (c *Cache[A, R]) Func() func(A) (R, error) {
	return c.Call
}

// Stats returns the hit and miss counts of this cache
func (c *Cache[A, R]) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

// Name returns the function identity used in keys
func (c *Cache[A, R]) Name() string {
	return c.name
}

// Path returns the root directory of the cache
func (c *Cache[A, R]) Path() string {
	return c.store.Store().Path()
}
