package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 200 * time.Millisecond

// ErrOutputLocked is returned when another render holds the output path.
var ErrOutputLocked = errors.New("output path is locked by another render")

// lockOutput creates the output directory and takes an advisory lock on
// "<out>.lock" until ctx is done. The returned func releases the lock.
func lockOutput(ctx context.Context, outPath string) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	fl := flock.New(outPath + ".lock")
	ok, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrOutputLocked, ctx.Err())
		}
		return nil, fmt.Errorf("lock output: %w", err)
	}
	if !ok {
		return nil, ErrOutputLocked
	}
	return func() { _ = fl.Unlock() }, nil
}
