// File: pkg/storage/readers.go
package storage

import (
	"context"
	"io"
)

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

// Wraps r so that reads fail with the context error once ctx is done
func NewContextReader(ctx context.Context, r io.Reader) io.Reader {
	return &contextReader{ctx: ctx, r: r}
}

func (cr *contextReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(p)
}

// Wraps upload content supplied by the caller. A failed read is tagged ErrIO (or
// ErrCancelled) so backends do not report it as a remote failure. Seekable sources stay
// seekable.
func NewSourceReader(r io.Reader) io.Reader {
	if rs, ok := r.(io.ReadSeeker); ok {
		return &sourceReadSeeker{sourceReader: sourceReader{r: rs}, seeker: rs}
	}
	return &sourceReader{r: r}
}

type sourceReader struct {
	r io.Reader
}

func (s *sourceReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err == nil || err == io.EOF {
		return n, err
	}
	if IsContextError(err) {
		return n, Wrap(ErrCancelled, err)
	}
	return n, Wrap(ErrIO, err)
}

type sourceReadSeeker struct {
	sourceReader
	seeker io.Seeker
}

func (s *sourceReadSeeker) Seek(offset int64, whence int) (int64, error) {
	pos, err := s.seeker.Seek(offset, whence)
	if err != nil {
		return pos, Wrap(ErrIO, err)
	}
	return pos, nil
}
