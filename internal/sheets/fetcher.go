package sheets

import (
	"context"
	"math/rand"
	"time"

	"github.com/Abhishek-Shewale/salesdash/internal/normalize"
	"github.com/Abhishek-Shewale/salesdash/internal/pkg/logger"
)

// FetchOptions controls per-sheet retry behavior on rate-limit errors.
type FetchOptions struct {
	MaxRetries   int           // retry attempts after the first try
	InitialDelay time.Duration // first backoff delay
	MaxDelay     time.Duration // backoff cap
	Jitter       time.Duration // random extra per sleep, uniform in [0, Jitter)
}

func (o FetchOptions) withDefaults() FetchOptions {
	if o.MaxRetries <= 0 {
		o.MaxRetries = 5
	}
	if o.InitialDelay <= 0 {
		o.InitialDelay = time.Second
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = 15 * time.Second
	}
	if o.Jitter <= 0 {
		o.Jitter = 400 * time.Millisecond
	}
	return o
}

// FetchRows fetches all rows of one sheet, retrying on rate-limit signals
// with exponential backoff plus jitter. Every other error (missing header,
// not found, auth, decode) propagates unchanged on the first occurrence.
// The read is idempotent, so retrying is always safe.
func FetchRows(ctx context.Context, src Source, title string, opts FetchOptions) ([]normalize.Row, error) {
	opts = opts.withDefaults()
	delay := opts.InitialDelay

	for attempt := 0; ; attempt++ {
		rows, err := src.Rows(ctx, title)
		if err == nil {
			return rows, nil
		}
		if IsMissingHeader(err) || IsNotFound(err) || !IsRateLimited(err) {
			return nil, err
		}
		if attempt >= opts.MaxRetries {
			return nil, err
		}

		sleep := delay + time.Duration(rand.Int63n(int64(opts.Jitter)))
		logger.Warn("rate limit hit, backing off",
			"sheet", title,
			"attempt", attempt+1,
			"max_retries", opts.MaxRetries,
			"sleep", sleep.String())

		timer := time.NewTimer(sleep)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}

		delay *= 2
		if delay > opts.MaxDelay {
			delay = opts.MaxDelay
		}
	}
}

// pause sleeps for base plus jitter, honoring cancellation. Used between
// sheet fetches as cooperative rate shaping, not error handling.
func pause(ctx context.Context, base, jitter time.Duration) error {
	if base <= 0 && jitter <= 0 {
		return nil
	}
	d := base
	if jitter > 0 {
		d += time.Duration(rand.Int63n(int64(jitter)))
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
