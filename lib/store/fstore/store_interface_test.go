package fstore

import (
	"testing"

	"github.com/ValentinKolb/fKV/lib/codec"
	"github.com/ValentinKolb/fKV/lib/store"
	storetesting "github.com/ValentinKolb/fKV/lib/store/testing"
)

func factoryFor(compression string) storetesting.StoreFactory {
	return func(root string) (store.IStore, error) {
		return NewFileStore(root, &Options{Compression: compression})
	}
}

func Test(t *testing.T) {
	for _, name := range codec.CompressionNames() {
		storetesting.RunStoreTests(t, "FileStore/"+name, factoryFor(name))
	}

	storetesting.RunStoreTests(t, "FileStore/SingleLockSlot", func(root string) (store.IStore, error) {
		return NewFileStore(root, &Options{LockSlots: 1})
	})
}

func Benchmark(b *testing.B) {
	storetesting.RunStoreBenchmarks(b, "FileStore/none", factoryFor(codec.CompressionNone))
	storetesting.RunStoreBenchmarks(b, "FileStore/zlib", factoryFor(codec.CompressionZlib))
	storetesting.RunStoreBenchmarks(b, "FileStore/zstd", factoryFor(codec.CompressionZstd))
}
