package ingest

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lixenwraith/sketchwall/asset"
)

// DirWatcher polls a directory and inserts every new or rewritten image
// A capture tool overwriting one file periodically yields one arrival per write
type DirWatcher struct {
	dir      string
	interval time.Duration
	sink     Sink
	log      *zap.Logger
	seen     map[string]time.Time // name -> last seen mod time
}

func NewDirWatcher(dir string, interval time.Duration, sink Sink, log *zap.Logger) *DirWatcher {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &DirWatcher{
		dir:      dir,
		interval: interval,
		sink:     sink,
		log:      log.Named("watch"),
		seen:     make(map[string]time.Time),
	}
}

// Run scans immediately and then every interval until ctx is canceled
func (w *DirWatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if _, err := w.Scan(); err != nil {
			w.log.Warn("scan failed", zap.String("dir", w.dir), zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

type found struct {
	name string
	mod  time.Time
}

// Scan inserts images that appeared or changed since the last scan, oldest first
func (w *DirWatcher) Scan() (int, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return 0, err
	}

	var fresh []found
	for _, de := range entries {
		if de.IsDir() || !asset.IsImageFile(de.Name()) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			// Removed between listing and stat
			continue
		}
		mod := info.ModTime()
		if prev, ok := w.seen[de.Name()]; ok && !mod.After(prev) {
			continue
		}
		w.seen[de.Name()] = mod
		fresh = append(fresh, found{de.Name(), mod})
	}
	if len(fresh) == 0 {
		return 0, nil
	}

	slices.SortFunc(fresh, func(a, b found) int {
		if c := a.mod.Compare(b.mod); c != 0 {
			return c
		}
		return strings.Compare(a.name, b.name)
	})

	arrivals := make([]asset.Arrival, len(fresh))
	for i, f := range fresh {
		arrivals[i] = asset.Arrival{
			ID:     strings.TrimSuffix(f.name, filepath.Ext(f.name)),
			Source: asset.File(filepath.Join(w.dir, f.name)),
		}
	}
	if len(arrivals) == 1 {
		w.sink.Insert(arrivals[0].ID, arrivals[0].Source)
	} else {
		w.sink.InsertBatch(arrivals)
	}
	w.log.Debug("arrivals", zap.Int("count", len(arrivals)))
	return len(arrivals), nil
}
