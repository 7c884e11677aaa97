package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bft-labs/clflog/pkg/clf"
	"github.com/bft-labs/clflog/pkg/rotate"
)

// Search returns the records with timestamps between begin and end, in file
// order. Zero times are omitted bounds, resolved as by rotate.Resolver.Range.
//
// Missing day files are skipped. A file that fails to read does not stop the
// search: the records read so far are kept and the per-file errors are joined
// into the returned error.
func Search(resolver *rotate.Resolver, begin, end time.Time) ([]*clf.Record, error) {
	var out []*clf.Record
	err := Scan(resolver, begin, end, func(r *clf.Record) error {
		out = append(out, r)
		return nil
	})
	return out, err
}

// ErrStop can be returned by a Scan callback to end the scan early.
var ErrStop = errors.New("stop scan")

// Scan calls fn for every record between begin and end. Returning ErrStop
// from fn ends the scan without error; any other error ends it with that error.
func Scan(resolver *rotate.Resolver, begin, end time.Time, fn func(*clf.Record) error) error {
	var errs []error
	for _, f := range resolver.Range(begin, end) {
		err := scanFile(f, fn)
		switch {
		case err == nil:
		case errors.Is(err, ErrStop):
			return errors.Join(errs...)
		case errors.Is(err, errCallback):
			return errors.Unwrap(err)
		default:
			errs = append(errs, fmt.Errorf("%s: %w", f.Path, err))
		}
	}
	return errors.Join(errs...)
}

var errCallback = errors.New("callback")

type callbackError struct{ err error }

func (e callbackError) Error() string        { return e.err.Error() }
func (e callbackError) Unwrap() error        { return e.err }
func (e callbackError) Is(target error) bool { return target == errCallback }

func scanFile(f rotate.File, fn func(*clf.Record) error) error {
	file, err := os.Open(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer file.Close()

	d := clf.NewDecoder(file)
	d.SetRange(f.Begin, f.End)
	for {
		rec, err := d.Decode()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			if errors.Is(err, ErrStop) {
				return ErrStop
			}
			return callbackError{err}
		}
	}
}
