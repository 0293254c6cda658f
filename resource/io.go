package resource

import (
	"context"
	"io"
)

// throttle charges transferred bytes against a controller's IO budget.
type throttle struct {
	ctx   context.Context
	ctrl  *Controller
	bytes int64
}

func (t *throttle) charge(n int) error {
	t.bytes += int64(n)
	return t.ctrl.AcquireIO(t.ctx, n)
}

// Transferred returns the number of bytes passed through so far.
func (t *throttle) Transferred() int64 { return t.bytes }

// RateLimitedWriter throttles an io.Writer through a Controller's IO limit.
// Tokens for a write are taken before the bytes reach the underlying writer.
type RateLimitedWriter struct {
	throttle
	w io.Writer
}

// NewRateLimitedWriter wraps w. A nil controller disables throttling.
func NewRateLimitedWriter(ctx context.Context, w io.Writer, ctrl *Controller) *RateLimitedWriter {
	return &RateLimitedWriter{throttle: throttle{ctx: ctx, ctrl: ctrl}, w: w}
}

func (w *RateLimitedWriter) Write(p []byte) (int, error) {
	if err := w.charge(len(p)); err != nil {
		return 0, err
	}
	return w.w.Write(p)
}

// RateLimitedReader throttles an io.Reader through a Controller's IO limit.
//
// Tokens are taken after each read, for the bytes actually returned: a short
// read is only charged for what it delivered, so the reader cannot reserve
// len(p) up front the way the writer does.
type RateLimitedReader struct {
	throttle
	r io.Reader
}

// NewRateLimitedReader wraps r. A nil controller disables throttling.
func NewRateLimitedReader(ctx context.Context, r io.Reader, ctrl *Controller) *RateLimitedReader {
	return &RateLimitedReader{throttle: throttle{ctx: ctx, ctrl: ctrl}, r: r}
}

func (r *RateLimitedReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if n > 0 {
		if cerr := r.charge(n); cerr != nil {
			return n, cerr
		}
	}
	return n, err
}
