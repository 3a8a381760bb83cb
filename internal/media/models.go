package media

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	KindVideo = "video"
	KindAudio = "audio"
	KindImage = "image"
)

// Asset is a media file registered with the catalog. Duration is in
// seconds and zero for still images.
type Asset struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	Path      string    `json:"path"`
	MimeType  string    `json:"mime_type,omitempty"`
	SizeBytes int64     `json:"size_bytes"`
	Duration  float64   `json:"duration"`
	Width     int       `json:"width,omitempty"`
	Height    int       `json:"height,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewID() string {
	return uuid.NewString()
}

var extensionKinds = map[string]string{
	".mp4":  KindVideo,
	".mov":  KindVideo,
	".mkv":  KindVideo,
	".webm": KindVideo,
	".mp3":  KindAudio,
	".wav":  KindAudio,
	".aac":  KindAudio,
	".flac": KindAudio,
	".png":  KindImage,
	".jpg":  KindImage,
	".jpeg": KindImage,
	".gif":  KindImage,
	".webp": KindImage,
}

var extensionMimes = map[string]string{
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".aac":  "audio/aac",
	".flac": "audio/flac",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// KindForFilename classifies a file by extension. Returns empty string
// for unsupported types.
func KindForFilename(filename string) string {
	return extensionKinds[strings.ToLower(filepath.Ext(filename))]
}

// MimeForFilename returns the MIME type for a file by extension, or
// application/octet-stream when unknown.
func MimeForFilename(filename string) string {
	if m := extensionMimes[strings.ToLower(filepath.Ext(filename))]; m != "" {
		return m
	}
	return "application/octet-stream"
}
