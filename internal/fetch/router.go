package fetch

import (
	"context"
	"log/slog"

	"github.com/nao1215/leakscan/internal/model"
)

// Router dispatches a location to the fetcher for its kind.
type Router struct {
	file    Fetcher
	network Fetcher
	logger  *slog.Logger
}

// NewRouter creates a Router. A nil network fetcher disables URL fetching:
// URLs then produce an empty document and a warning.
func NewRouter(file, network Fetcher, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	if file == nil {
		file = &FileFetcher{}
	}
	return &Router{file: file, network: network, logger: logger}
}

// Fetch implements Fetcher.
func (r *Router) Fetch(ctx context.Context, loc model.Location) (string, error) {
	if loc.Kind != model.KindURL {
		return r.file.Fetch(ctx, loc)
	}
	if r.network == nil {
		r.logger.Warn("skipping remote location, scanning empty document",
			"location", loc.Raw,
			"reason", ErrNoNetwork)
		return "", nil
	}
	return r.network.Fetch(ctx, loc)
}
