package asset

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
)

var (
	// ErrBadDataURL is returned for strings that are not RFC 2397 data URLs
	ErrBadDataURL = errors.New("asset: malformed data URL")
	// ErrEmptySource is returned when a source carries no bytes
	ErrEmptySource = errors.New("asset: empty source")
	// ErrUnsupportedSource is returned for source strings that name no known transport
	ErrUnsupportedSource = errors.New("asset: unsupported source")
)

// Source is where an asset's encoded bytes come from
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	String() string
}

// Arrival is one externally pushed asset
type Arrival struct {
	ID     string
	Source Source
}

// ParseSource returns a DataURL for "data:" strings and a File for paths
func ParseSource(s string) (Source, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return nil, ErrEmptySource
	case strings.HasPrefix(s, "data:"):
		return DataURL(s), nil
	case strings.HasPrefix(s, "file://"):
		return File(strings.TrimPrefix(s, "file://")), nil
	case strings.Contains(s, "://"):
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSource, s[:strings.Index(s, "://")])
	}
	return File(s), nil
}

// DataURL is an inline asset as produced by canvas.toDataURL
type DataURL string

func (d DataURL) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	_, data, err := ParseDataURL(string(d))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrEmptySource
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (d DataURL) String() string {
	s := string(d)
	if i := strings.IndexByte(s, ','); i >= 0 {
		return fmt.Sprintf("%s,(%d bytes)", s[:i], len(s)-i-1)
	}
	if len(s) > 32 {
		return s[:32] + "..."
	}
	return s
}

// ParseDataURL splits "data:[<mediatype>][;base64],<data>" into media type and payload
func ParseDataURL(s string) (mediaType string, data []byte, err error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, ErrBadDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrBadDataURL
	}

	isBase64 := false
	if m, found := strings.CutSuffix(meta, ";base64"); found {
		meta = m
		isBase64 = true
	}
	mediaType = meta
	if mediaType == "" {
		mediaType = "text/plain;charset=US-ASCII"
	}

	if isBase64 {
		data, err = base64.StdEncoding.DecodeString(payload)
		if err != nil {
			// Some encoders strip padding
			data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		}
		if err != nil {
			return "", nil, fmt.Errorf("%w: %v", ErrBadDataURL, err)
		}
		return mediaType, data, nil
	}

	unescaped, err := url.PathUnescape(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrBadDataURL, err)
	}
	return mediaType, []byte(unescaped), nil
}

// File is an asset on the local filesystem
type File string

func (f File) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fh, err := os.Open(string(f))
	if err != nil {
		return nil, fmt.Errorf("open asset: %w", err)
	}
	return fh, nil
}

func (f File) String() string { return string(f) }

// Bytes is an in-memory asset
type Bytes struct {
	Name string
	Data []byte
}

func (b Bytes) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(b.Data) == 0 {
		return nil, ErrEmptySource
	}
	return io.NopCloser(bytes.NewReader(b.Data)), nil
}

func (b Bytes) String() string {
	if b.Name != "" {
		return b.Name
	}
	return fmt.Sprintf("bytes(%d)", len(b.Data))
}
