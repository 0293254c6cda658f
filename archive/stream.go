package archive

import (
	"context"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/hupe1980/chunkstore/resource"
)

type options struct {
	ctx  context.Context
	ctrl *resource.Controller
}

// Option configures a Writer or Reader.
type Option func(*options)

// WithController throttles the stream through the controller's IO limit.
func WithController(c *resource.Controller) Option {
	return func(o *options) {
		o.ctrl = c
	}
}

// WithContext sets the context used while waiting for IO tokens.
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		o.ctx = ctx
	}
}

func applyOptions(opts []Option) options {
	o := options{ctx: context.Background()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Writer is a saving Archive over an io.Writer.
type Writer struct {
	w   io.Writer
	pos int64
}

// NewWriter creates a saving archive that writes to w.
func NewWriter(w io.Writer, opts ...Option) *Writer {
	o := applyOptions(opts)
	if o.ctrl != nil {
		w = resource.NewRateLimitedWriter(o.ctx, w, o.ctrl)
	}
	return &Writer{w: w}
}

// IsLoading implements Archive.
func (w *Writer) IsLoading() bool { return false }

// Tell implements Archive.
func (w *Writer) Tell() int64 { return w.pos }

// Serialize implements Archive.
func (w *Writer) Serialize(p []byte) error {
	n, err := w.w.Write(p)
	w.pos += int64(n)
	if err != nil {
		return errors.Wrapf(err, "archive: write at offset %d", w.pos)
	}
	return nil
}

// Reader is a loading Archive over an io.Reader.
type Reader struct {
	r   io.Reader
	pos int64
}

// NewReader creates a loading archive that reads from r.
func NewReader(r io.Reader, opts ...Option) *Reader {
	o := applyOptions(opts)
	if o.ctrl != nil {
		r = resource.NewRateLimitedReader(o.ctx, r, o.ctrl)
	}
	return &Reader{r: r}
}

// IsLoading implements Archive.
func (r *Reader) IsLoading() bool { return true }

// Tell implements Archive.
func (r *Reader) Tell() int64 { return r.pos }

// Serialize implements Archive. A stream that ends inside p yields an error
// wrapping io.ErrUnexpectedEOF; one that ends exactly before p yields io.EOF.
func (r *Reader) Serialize(p []byte) error {
	n, err := io.ReadFull(r.r, p)
	r.pos += int64(n)
	if err != nil {
		return errors.Wrapf(err, "archive: read at offset %d", r.pos)
	}
	return nil
}
