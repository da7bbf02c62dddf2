package catalogfeed

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/klauspost/pgzip"

	"github.com/xenking/rigforge/internal/domain/catalog"
)

const maxLineSize = 1 << 20

// LineError is a feed line that could not be decoded.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return "line " + strconv.Itoa(e.Line) + ": " + e.Err.Error()
}

func (e *LineError) Unwrap() error { return e.Err }

// Handler receives each product of a feed with its 1-based line number.
// Malformed lines are passed as a *LineError instead; returning it aborts
// the read.
type Handler func(line int, p catalog.Product, err error) error

// Read streams JSON-lines from r. Blank lines are skipped.
func Read(ctx context.Context, r io.Reader, fn Handler) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return err
		}
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		p, err := DecodeProduct(jx.DecodeBytes(raw))
		if err != nil {
			err = &LineError{Line: line, Err: err}
		}
		if err := fn(line, p, err); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "scan")
	}
	return nil
}

// ReadFile streams the gzip-compressed JSON-lines feed at path.
func ReadFile(ctx context.Context, path string, fn Handler) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	if err := Read(ctx, gz, fn); err != nil {
		return errors.Wrapf(err, "read %s", path)
	}
	return nil
}
