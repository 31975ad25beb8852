// Package ingest turns external asset feeds into engine insertions
package ingest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lixenwraith/sketchwall/asset"
	"github.com/lixenwraith/sketchwall/parameter"
)

// ErrEmptyMessage is returned for a JSON line that carries no asset and no removal
var ErrEmptyMessage = errors.New("ingest: message has no asset")

// Sink is the engine side of ingestion
type Sink interface {
	Insert(id string, src asset.Source)
	InsertBatch(arrivals []asset.Arrival)
	Remove(id string)
}

type sketch struct {
	ID      string `json:"id"`
	DataURL string `json:"dataurl"`
}

// message is one line; exactly one of the shapes is expected
//
//	{"id": "a", "dataurl": "data:image/png;base64,..."}
//	{"sketches": [{"id": "a", "dataurl": "..."}, ...]}
//	{"frame": "data:image/jpeg;base64,..."}
//	{"remove": "a"}
type message struct {
	ID       string   `json:"id"`
	DataURL  string   `json:"dataurl"`
	Sketches []sketch `json:"sketches"`
	Frame    string   `json:"frame"`
	Remove   string   `json:"remove"`
}

// LineReader reads JSON lines and forwards them to a Sink
// Malformed lines are logged and skipped
type LineReader struct {
	r    io.Reader
	sink Sink
	log  *zap.Logger

	lines    int
	rejected int
}

func NewLineReader(r io.Reader, sink Sink, log *zap.Logger) *LineReader {
	if log == nil {
		log = zap.NewNop()
	}
	return &LineReader{r: r, sink: sink, log: log.Named("ingest")}
}

// Run reads until EOF, a read error, or ctx is canceled between lines
func (lr *LineReader) Run(ctx context.Context) error {
	sc := bufio.NewScanner(lr.r)
	sc.Buffer(make([]byte, 0, 64<<10), parameter.MaxDataURLBytes)

	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		lr.lines++
		if err := lr.apply(line); err != nil {
			lr.rejected++
			lr.log.Warn("ingest line rejected", zap.Int("line", lr.lines), zap.Error(err))
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read ingest stream: %w", err)
	}
	return nil
}

// Stats returns the number of non-empty lines read and how many were rejected
func (lr *LineReader) Stats() (lines, rejected int) { return lr.lines, lr.rejected }

func (lr *LineReader) apply(line []byte) error {
	var m message
	if err := json.Unmarshal(line, &m); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}

	switch {
	case m.Remove != "":
		lr.sink.Remove(m.Remove)
		return nil

	case len(m.Sketches) > 0:
		arrivals := make([]asset.Arrival, 0, len(m.Sketches))
		for i, s := range m.Sketches {
			src, err := asset.ParseSource(s.DataURL)
			if err != nil {
				// One bad entry rejects the batch so arrival order is never partial
				return fmt.Errorf("sketch %d: %w", i, err)
			}
			arrivals = append(arrivals, asset.Arrival{ID: idOrNew(s.ID), Source: src})
		}
		lr.sink.InsertBatch(arrivals)
		return nil

	case m.DataURL != "":
		src, err := asset.ParseSource(m.DataURL)
		if err != nil {
			return err
		}
		lr.sink.Insert(idOrNew(m.ID), src)
		return nil

	case m.Frame != "":
		src, err := asset.ParseSource(m.Frame)
		if err != nil {
			return err
		}
		lr.sink.Insert(idOrNew(m.ID), src)
		return nil
	}
	return ErrEmptyMessage
}

func idOrNew(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}
