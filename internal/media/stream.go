package media

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
)

var (
	ErrInvalidRange  = errors.New("invalid range format")
	ErrUnsatisfiable = errors.New("range not satisfiable")
)

// ByteRange is a single satisfiable byte range within a file of known
// size. Start and End are inclusive.
type ByteRange struct {
	Start int64
	End   int64
}

func (r ByteRange) Length() int64 {
	return r.End - r.Start + 1
}

func (r ByteRange) ContentRange(total int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, total)
}

// ParseRangeHeader parses an HTTP Range header against a file size.
// Returns (nil, nil) when no range was requested. Multi-range requests
// degrade to their first range.
func ParseRangeHeader(header string, size int64) (*ByteRange, error) {
	if header == "" {
		return nil, nil
	}

	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return nil, ErrInvalidRange
	}
	if idx := strings.Index(spec, ","); idx != -1 {
		spec = strings.TrimSpace(spec[:idx])
	}

	startStr, endStr, ok := strings.Cut(spec, "-")
	if !ok {
		return nil, ErrInvalidRange
	}

	var br ByteRange
	if startStr == "" {
		// Suffix form: last N bytes.
		suffixLen, err := strconv.ParseInt(endStr, 10, 64)
		if err != nil || suffixLen <= 0 {
			return nil, ErrInvalidRange
		}
		br.Start = size - suffixLen
		if br.Start < 0 {
			br.Start = 0
		}
		br.End = size - 1
	} else {
		start, err := strconv.ParseInt(startStr, 10, 64)
		if err != nil || start < 0 {
			return nil, ErrInvalidRange
		}
		br.Start = start

		if endStr == "" {
			br.End = size - 1
		} else {
			end, err := strconv.ParseInt(endStr, 10, 64)
			if err != nil {
				return nil, ErrInvalidRange
			}
			br.End = end
		}
	}

	if br.Start > br.End || br.Start >= size {
		return nil, ErrUnsatisfiable
	}
	if br.End >= size {
		br.End = size - 1
	}
	return &br, nil
}

// Streamer serves registered asset files to the preview player with
// HTTP Range support, so the browser can seek without downloading the
// whole file.
type Streamer struct {
	logger *slog.Logger
}

func NewStreamer(logger *slog.Logger) *Streamer {
	return &Streamer{logger: logger}
}

func (s *Streamer) ServeAsset(w http.ResponseWriter, r *http.Request, asset *Asset) error {
	file, err := os.Open(asset.Path)
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "asset file not found", http.StatusNotFound)
			return nil
		}
		return fmt.Errorf("failed to open asset: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat asset: %w", err)
	}
	size := stat.Size()

	contentType := asset.MimeType
	if contentType == "" {
		contentType = MimeForFilename(asset.Path)
	}

	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", contentType)

	br, err := ParseRangeHeader(r.Header.Get("Range"), size)
	if err == ErrUnsatisfiable {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		http.Error(w, "Range Not Satisfiable", http.StatusRequestedRangeNotSatisfiable)
		return nil
	}
	// A malformed Range header is ignored and the whole file served, per
	// RFC 9110.
	if err != nil && err != ErrInvalidRange {
		return err
	}

	if br == nil || err == ErrInvalidRange {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		w.WriteHeader(http.StatusOK)
		io.Copy(w, file)
		return nil
	}

	w.Header().Set("Content-Length", strconv.FormatInt(br.Length(), 10))
	w.Header().Set("Content-Range", br.ContentRange(size))
	w.WriteHeader(http.StatusPartialContent)

	if _, err := file.Seek(br.Start, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}
	io.CopyN(w, file, br.Length())

	if s.logger != nil {
		s.logger.Debug("served asset range", "asset_id", asset.ID, "start", br.Start, "end", br.End)
	}
	return nil
}
