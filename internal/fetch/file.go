package fetch

import (
	"context"
	"os"
	"time"

	"github.com/nao1215/leakscan/internal/model"
)

// FileFetcher reads local files. Reads are never retried.
type FileFetcher struct {
	// Observer, if set, is told about each read.
	Observer AttemptObserver
}

// Fetch reads the whole file named by loc.
// Failures are returned as *Error with Kind KindFile and keep the
// underlying fs error, so errors.Is(err, fs.ErrNotExist) works.
func (f *FileFetcher) Fetch(ctx context.Context, loc model.Location) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	start := time.Now()
	data, err := os.ReadFile(loc.Raw)
	if err != nil {
		f.Observer.observe(model.KindFile, OutcomeFailed, start)
		return "", &Error{Location: loc.Raw, Kind: KindFile, Attempts: 1, Err: err}
	}
	f.Observer.observe(model.KindFile, OutcomeOK, start)
	return string(data), nil
}
