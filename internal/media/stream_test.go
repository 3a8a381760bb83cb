package media

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestParseRangeHeader(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		size      int64
		wantStart int64
		wantEnd   int64
		wantNil   bool
		wantErr   error
	}{
		{"empty header", "", 1000, 0, 0, true, nil},
		{"full range", "bytes=0-999", 1000, 0, 999, false, nil},
		{"open end", "bytes=500-", 1000, 500, 999, false, nil},
		{"suffix range", "bytes=-500", 1000, 500, 999, false, nil},
		{"single byte", "bytes=0-0", 1000, 0, 0, false, nil},
		{"end clamped to size", "bytes=0-2000", 1000, 0, 999, false, nil},
		{"suffix larger than file", "bytes=-2000", 500, 0, 499, false, nil},
		{"multi range takes first", "bytes=0-99, 200-299", 1000, 0, 99, false, nil},

		{"start at size", "bytes=1000-", 1000, 0, 0, false, ErrUnsatisfiable},
		{"range past end", "bytes=1500-2000", 1000, 0, 0, false, ErrUnsatisfiable},
		{"missing unit", "0-100", 1000, 0, 0, false, ErrInvalidRange},
		{"wrong unit", "chars=0-100", 1000, 0, 0, false, ErrInvalidRange},
		{"garbage start", "bytes=abc-100", 1000, 0, 0, false, ErrInvalidRange},
		{"garbage end", "bytes=0-abc", 1000, 0, 0, false, ErrInvalidRange},
		{"zero suffix", "bytes=-0", 1000, 0, 0, false, ErrInvalidRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRangeHeader(tt.header, tt.size)

			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Errorf("ParseRangeHeader() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRangeHeader() unexpected error: %v", err)
			}
			if tt.wantNil {
				if got != nil {
					t.Errorf("ParseRangeHeader() = %v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatal("ParseRangeHeader() = nil, want range")
			}
			if got.Start != tt.wantStart || got.End != tt.wantEnd {
				t.Errorf("ParseRangeHeader() = {%d, %d}, want {%d, %d}", got.Start, got.End, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func streamTestAsset(t *testing.T, content string) *Asset {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write asset file: %v", err)
	}
	return &Asset{ID: "a1", Path: path, MimeType: "video/mp4"}
}

func TestStreamer_ServeAsset_Full(t *testing.T) {
	s := NewStreamer(nil)
	asset := streamTestAsset(t, "0123456789")

	rec := httptest.NewRecorder()
	if err := s.ServeAsset(rec, httptest.NewRequest("GET", "/stream", nil), asset); err != nil {
		t.Fatalf("ServeAsset() error = %v", err)
	}

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "video/mp4" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := rec.Header().Get("Accept-Ranges"); got != "bytes" {
		t.Errorf("Accept-Ranges = %q", got)
	}
	if rec.Body.String() != "0123456789" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestStreamer_ServeAsset_Partial(t *testing.T) {
	s := NewStreamer(nil)
	asset := streamTestAsset(t, "0123456789")

	req := httptest.NewRequest("GET", "/stream", nil)
	req.Header.Set("Range", "bytes=2-5")
	rec := httptest.NewRecorder()
	if err := s.ServeAsset(rec, req, asset); err != nil {
		t.Fatalf("ServeAsset() error = %v", err)
	}

	if rec.Code != 206 {
		t.Fatalf("status = %d, want 206", rec.Code)
	}
	if got := rec.Header().Get("Content-Range"); got != "bytes 2-5/10" {
		t.Errorf("Content-Range = %q", got)
	}
	if rec.Body.String() != "2345" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestStreamer_ServeAsset_Unsatisfiable(t *testing.T) {
	s := NewStreamer(nil)
	asset := streamTestAsset(t, "0123456789")

	req := httptest.NewRequest("GET", "/stream", nil)
	req.Header.Set("Range", "bytes=50-")
	rec := httptest.NewRecorder()
	if err := s.ServeAsset(rec, req, asset); err != nil {
		t.Fatalf("ServeAsset() error = %v", err)
	}

	if rec.Code != 416 {
		t.Fatalf("status = %d, want 416", rec.Code)
	}
	if got := rec.Header().Get("Content-Range"); got != "bytes */10" {
		t.Errorf("Content-Range = %q", got)
	}
}

func TestStreamer_ServeAsset_MissingFile(t *testing.T) {
	s := NewStreamer(nil)
	asset := &Asset{ID: "gone", Path: filepath.Join(t.TempDir(), "missing.mp4")}

	rec := httptest.NewRecorder()
	if err := s.ServeAsset(rec, httptest.NewRequest("GET", "/stream", nil), asset); err != nil {
		t.Fatalf("ServeAsset() error = %v", err)
	}
	if rec.Code != 404 {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
