package codec

import (
	"bytes"
	"io"
	"sync"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz/lzma"
)

// --------------------------------------------------------------------------
// none
// --------------------------------------------------------------------------

// NewNoneCompressor creates the identity compressor
func NewNoneCompressor() Compressor {
	return noneCompressorImpl{}
}

type noneCompressorImpl struct{}

func (noneCompressorImpl) Compress(data []byte) ([]byte, error)   { return data, nil }
func (noneCompressorImpl) Decompress(data []byte) ([]byte, error) { return data, nil }
func (noneCompressorImpl) Name() string                           { return CompressionNone }

// --------------------------------------------------------------------------
// zlib (deflate)
// --------------------------------------------------------------------------

// NewZlibCompressor creates a compressor using the zlib format
func NewZlibCompressor() Compressor {
	return zlibCompressorImpl{}
}

type zlibCompressorImpl struct{}

func (zlibCompressorImpl) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (zlibCompressorImpl) Decompress(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (zlibCompressorImpl) Name() string { return CompressionZlib }

// --------------------------------------------------------------------------
// lzma
// --------------------------------------------------------------------------

// NewLZMACompressor creates a compressor using the classic lzma format.
// It trades speed for a higher compression ratio.
func NewLZMACompressor() Compressor {
	return lzmaCompressorImpl{}
}

type lzmaCompressorImpl struct{}

const maxLZMADictCap = 8 << 20

func (lzmaCompressorImpl) Compress(data []byte) ([]byte, error) {
	// the dictionary never needs to be larger than the input
	dictCap := min(max(len(data), lzma.MinDictCap), maxLZMADictCap)

	var buf bytes.Buffer
	w, err := lzma.WriterConfig{DictCap: dictCap}.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (lzmaCompressorImpl) Decompress(data []byte) ([]byte, error) {
	// the dictionary size is taken from the stream header
	r, err := lzma.ReaderConfig{DictCap: lzma.MinDictCap}.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}

func (lzmaCompressorImpl) Name() string { return CompressionLZMA }

// --------------------------------------------------------------------------
// zstd
// --------------------------------------------------------------------------

// NewZstdCompressor creates a compressor using the zstandard format.
// The encoder and decoder are created on first use and shared afterwards.
func NewZstdCompressor() Compressor {
	return &zstdCompressorImpl{
		encoder: sync.OnceValues(func() (*zstd.Encoder, error) {
			return zstd.NewWriter(nil)
		}),
		decoder: sync.OnceValues(func() (*zstd.Decoder, error) {
			return zstd.NewReader(nil)
		}),
	}
}

type zstdCompressorImpl struct {
	encoder func() (*zstd.Encoder, error)
	decoder func() (*zstd.Decoder, error)
}

func (z *zstdCompressorImpl) Compress(data []byte) ([]byte, error) {
	enc, err := z.encoder()
	if err != nil {
		return nil, err
	}
	return enc.EncodeAll(data, nil), nil
}

func (z *zstdCompressorImpl) Decompress(data []byte) ([]byte, error) {
	dec, err := z.decoder()
	if err != nil {
		return nil, err
	}
	return dec.DecodeAll(data, nil)
}

func (z *zstdCompressorImpl) Name() string { return CompressionZstd }

// --------------------------------------------------------------------------
// snappy
// --------------------------------------------------------------------------

// NewSnappyCompressor creates a compressor using the snappy block format
func NewSnappyCompressor() Compressor {
	return snappyCompressorImpl{}
}

type snappyCompressorImpl struct{}

func (snappyCompressorImpl) Compress(data []byte) ([]byte, error) {
	return snappy.Encode(nil, data), nil
}

func (snappyCompressorImpl) Decompress(data []byte) ([]byte, error) {
	return snappy.Decode(nil, data)
}

func (snappyCompressorImpl) Name() string { return CompressionSnappy }

// --------------------------------------------------------------------------
// lz4
// --------------------------------------------------------------------------

// NewLZ4Compressor creates a compressor using the lz4 frame format
func NewLZ4Compressor() Compressor {
	return lz4CompressorImpl{}
}

type lz4CompressorImpl struct{}

func (lz4CompressorImpl) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (lz4CompressorImpl) Decompress(data []byte) ([]byte, error) {
	return io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
}

func (lz4CompressorImpl) Name() string { return CompressionLZ4 }

// --------------------------------------------------------------------------
// caller supplied
// --------------------------------------------------------------------------

// CompressorFuncs adapts a pair of functions to the Compressor interface.
// Both functions must be set and must be safe for concurrent use.
type CompressorFuncs struct {
	Label        string
	CompressFn   func([]byte) ([]byte, error)
	DecompressFn func([]byte) ([]byte, error)
}

func (f CompressorFuncs) Compress(data []byte) ([]byte, error)   { return f.CompressFn(data) }
func (f CompressorFuncs) Decompress(data []byte) ([]byte, error) { return f.DecompressFn(data) }

func (f CompressorFuncs) Name() string {
	if f.Label == "" {
		return "custom"
	}
	return f.Label
}
