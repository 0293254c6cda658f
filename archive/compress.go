package archive

import (
	"encoding/binary"
	"io"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/hupe1980/chunkstore/internal/hash"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the block codec of a compressed stream.
type Compression uint8

const (
	// CompressionNone frames blocks without compressing them.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast).
	CompressionLZ4 Compression = 1
	// CompressionZstd uses Zstd block compression (better ratio).
	CompressionZstd Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return "unknown"
	}
}

const (
	// BlockSize is the amount of uncompressed data per block.
	BlockSize = 64 << 10

	// Stream header: magic + codec byte.
	streamMagic      = "CKAZ"
	streamHeaderSize = len(streamMagic) + 1

	// Block header: [uncompressed u32][compressed u32][crc32c u32].
	// compressed == 0 means the payload is stored raw.
	blockHeaderSize = 12
)

var (
	// ErrCorruptBlock is returned when a block header or payload is malformed.
	ErrCorruptBlock = errors.New("archive: corrupt block")
	// ErrChecksumMismatch is returned when a block fails its CRC32C check.
	ErrChecksumMismatch = errors.New("archive: checksum mismatch")
	// ErrUnknownCompression is returned for an unsupported codec.
	ErrUnknownCompression = errors.New("archive: unknown compression")
)

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() (*zstd.Encoder, error) {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault), zstd.WithEncoderConcurrency(1))
}

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
}

// compressBlock returns the compressed payload, or nil if the block should be
// stored raw.
func compressBlock(c Compression, data []byte, scratch []byte) ([]byte, error) {
	var out []byte
	switch c {
	case CompressionNone:
		return nil, nil
	case CompressionLZ4:
		bound := lz4.CompressBlockBound(len(data))
		if cap(scratch) < bound {
			scratch = make([]byte, bound)
		}
		n, err := lz4.CompressBlock(data, scratch[:bound], nil)
		if err != nil {
			return nil, errors.Wrap(err, "archive: lz4 compress")
		}
		out = scratch[:n]
	case CompressionZstd:
		enc, err := getZstdEncoder()
		if err != nil {
			return nil, errors.Wrap(err, "archive: zstd encoder")
		}
		out = enc.EncodeAll(data, scratch[:0])
		zstdEncoderPool.Put(enc)
	default:
		return nil, errors.Wrapf(ErrUnknownCompression, "codec %d", c)
	}

	// Not worth it below a 10% saving.
	if len(out) == 0 || len(out)*10 > len(data)*9 {
		return nil, nil
	}
	return out, nil
}

func decompressBlock(c Compression, src, dst []byte) error {
	switch c {
	case CompressionLZ4:
		n, err := lz4.UncompressBlock(src, dst)
		if err != nil {
			return errors.Mark(errors.Wrap(err, "archive: lz4 decompress"), ErrCorruptBlock)
		}
		if n != len(dst) {
			return errors.Wrapf(ErrCorruptBlock, "lz4 block decoded to %d bytes, want %d", n, len(dst))
		}
		return nil
	case CompressionZstd:
		dec, err := getZstdDecoder()
		if err != nil {
			return errors.Wrap(err, "archive: zstd decoder")
		}
		defer zstdDecoderPool.Put(dec)
		out, err := dec.DecodeAll(src, dst[:0])
		if err != nil {
			return errors.Mark(errors.Wrap(err, "archive: zstd decompress"), ErrCorruptBlock)
		}
		if len(out) != len(dst) {
			return errors.Wrapf(ErrCorruptBlock, "zstd block decoded to %d bytes, want %d", len(out), len(dst))
		}
		return nil
	default:
		return errors.Wrapf(ErrUnknownCompression, "codec %d", c)
	}
}

// CompressedWriter buffers a byte stream into checksummed blocks. Close must
// be called to flush the final block; it does not close the underlying writer.
type CompressedWriter struct {
	w       io.Writer
	c       Compression
	buf     []byte
	scratch []byte
	header  bool
	closed  bool
}

// NewCompressedWriter creates a block writer using codec c.
func NewCompressedWriter(w io.Writer, c Compression) (*CompressedWriter, error) {
	if c > CompressionZstd {
		return nil, errors.Wrapf(ErrUnknownCompression, "codec %d", c)
	}
	return &CompressedWriter{
		w:   w,
		c:   c,
		buf: make([]byte, 0, BlockSize),
	}, nil
}

func (cw *CompressedWriter) Write(p []byte) (int, error) {
	if cw.closed {
		return 0, errors.New("archive: write to closed compressed writer")
	}
	written := 0
	for len(p) > 0 {
		n := min(len(p), BlockSize-len(cw.buf))
		cw.buf = append(cw.buf, p[:n]...)
		p = p[n:]
		written += n
		if len(cw.buf) == BlockSize {
			if err := cw.flushBlock(); err != nil {
				return written, err
			}
		}
	}
	return written, nil
}

// Flush writes any buffered data as a short block.
func (cw *CompressedWriter) Flush() error {
	if len(cw.buf) == 0 {
		return cw.writeHeader()
	}
	return cw.flushBlock()
}

// Close flushes the final block.
func (cw *CompressedWriter) Close() error {
	if cw.closed {
		return nil
	}
	err := cw.Flush()
	cw.closed = true
	return err
}

func (cw *CompressedWriter) writeHeader() error {
	if cw.header {
		return nil
	}
	var hdr [streamHeaderSize]byte
	copy(hdr[:], streamMagic)
	hdr[len(streamMagic)] = byte(cw.c)
	if _, err := cw.w.Write(hdr[:]); err != nil {
		return errors.Wrap(err, "archive: write stream header")
	}
	cw.header = true
	return nil
}

func (cw *CompressedWriter) flushBlock() error {
	if err := cw.writeHeader(); err != nil {
		return err
	}

	data := cw.buf
	payload, err := compressBlock(cw.c, data, cw.scratch)
	if err != nil {
		return err
	}
	if payload != nil {
		cw.scratch = payload[:0]
	}

	var hdr [blockHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:], uint32(len(data)))
	binary.LittleEndian.PutUint32(hdr[4:], uint32(len(payload)))
	binary.LittleEndian.PutUint32(hdr[8:], hash.CRC32C(data))
	if _, err := cw.w.Write(hdr[:]); err != nil {
		return errors.Wrap(err, "archive: write block header")
	}

	if payload == nil {
		payload = data
	}
	if _, err := cw.w.Write(payload); err != nil {
		return errors.Wrap(err, "archive: write block")
	}
	cw.buf = cw.buf[:0]
	return nil
}

// CompressedReader decodes a stream written by CompressedWriter.
type CompressedReader struct {
	r     io.Reader
	c     Compression
	block []byte
	off   int
	src   []byte
	init  bool
	// err is the first header, decode or checksum failure. Once set, every
	// Read returns it.
	err error
}

// NewCompressedReader creates a block reader. The codec is read from the
// stream header on first use.
func NewCompressedReader(r io.Reader) *CompressedReader {
	return &CompressedReader{r: r}
}

// Compression returns the codec of the stream, reading the header if needed.
func (cr *CompressedReader) Compression() (Compression, error) {
	if err := cr.readHeader(); err != nil {
		return 0, err
	}
	return cr.c, nil
}

func (cr *CompressedReader) readHeader() error {
	if cr.init {
		return nil
	}
	var hdr [streamHeaderSize]byte
	if _, err := io.ReadFull(cr.r, hdr[:]); err != nil {
		return errors.Mark(errors.Wrap(err, "archive: read stream header"), ErrCorruptBlock)
	}
	if string(hdr[:len(streamMagic)]) != streamMagic {
		return errors.Wrapf(ErrCorruptBlock, "bad stream magic %q", hdr[:len(streamMagic)])
	}
	c := Compression(hdr[len(streamMagic)])
	if c > CompressionZstd {
		return errors.Wrapf(ErrUnknownCompression, "codec %d", c)
	}
	cr.c = c
	cr.init = true
	return nil
}

// Read implements io.Reader. After a corrupt block every call fails with
// the same error; the stream never resumes at a later block.
func (cr *CompressedReader) Read(p []byte) (int, error) {
	if cr.err != nil {
		return 0, cr.err
	}
	if err := cr.readHeader(); err != nil {
		cr.err = err
		return 0, err
	}
	if cr.off == len(cr.block) {
		if err := cr.nextBlock(); err != nil {
			if !errors.Is(err, io.EOF) {
				cr.err = err
			}
			return 0, err
		}
	}
	n := copy(p, cr.block[cr.off:])
	cr.off += n
	return n, nil
}

func (cr *CompressedReader) nextBlock() error {
	var hdr [blockHeaderSize]byte
	if _, err := io.ReadFull(cr.r, hdr[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		return errors.Mark(errors.Wrap(err, "archive: read block header"), ErrCorruptBlock)
	}
	size := binary.LittleEndian.Uint32(hdr[0:])
	csize := binary.LittleEndian.Uint32(hdr[4:])
	sum := binary.LittleEndian.Uint32(hdr[8:])
	if size == 0 || size > BlockSize || csize > size {
		return errors.Wrapf(ErrCorruptBlock, "block sizes %d/%d", size, csize)
	}

	if cap(cr.block) < int(size) {
		cr.block = make([]byte, size)
	}
	cr.block = cr.block[:size]
	cr.off = 0

	if csize == 0 {
		if _, err := io.ReadFull(cr.r, cr.block); err != nil {
			return errors.Mark(errors.Wrap(err, "archive: read raw block"), ErrCorruptBlock)
		}
	} else {
		if cap(cr.src) < int(csize) {
			cr.src = make([]byte, csize)
		}
		cr.src = cr.src[:csize]
		if _, err := io.ReadFull(cr.r, cr.src); err != nil {
			return errors.Mark(errors.Wrap(err, "archive: read compressed block"), ErrCorruptBlock)
		}
		if err := decompressBlock(cr.c, cr.src, cr.block); err != nil {
			return err
		}
	}

	if got := hash.CRC32C(cr.block); got != sum {
		cr.block = cr.block[:0]
		return errors.Wrapf(ErrChecksumMismatch, "block crc %08x, want %08x", got, sum)
	}
	return nil
}
