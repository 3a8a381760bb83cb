package media

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/framecut/framecut-engine/internal/timeline"
)

// RegisterInput carries the metadata for a new asset. Duration, width
// and height come from whatever probed the file; they may be zero and
// filled in later via UpdateProbe.
type RegisterInput struct {
	Name     string  `json:"name"`
	Path     string  `json:"path"`
	Kind     string  `json:"kind,omitempty"`
	MimeType string  `json:"mime_type,omitempty"`
	Duration float64 `json:"duration,omitempty"`
	Width    int     `json:"width,omitempty"`
	Height   int     `json:"height,omitempty"`
}

type CatalogService interface {
	Register(ctx context.Context, in RegisterInput) (*Asset, error)
	GetAsset(ctx context.Context, id string) (*Asset, error)
	ListAssets(ctx context.Context, kind string) ([]*Asset, error)
	UpdateProbe(ctx context.Context, id string, duration float64, width, height int) (*Asset, error)
	RemoveAsset(ctx context.Context, id string) error
	CountAssets(ctx context.Context) (int, error)
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*Asset, error) {
	if in.Path == "" {
		return nil, fmt.Errorf("path is required")
	}

	absPath, err := filepath.Abs(in.Path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("file does not exist: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory")
	}

	kind := in.Kind
	if kind == "" {
		kind = KindForFilename(absPath)
	}
	if kind == "" {
		return nil, fmt.Errorf("unsupported media type: %s", filepath.Ext(absPath))
	}

	name := in.Name
	if name == "" {
		name = filepath.Base(absPath)
	}

	mimeType := in.MimeType
	if mimeType == "" {
		mimeType = MimeForFilename(absPath)
	}

	now := time.Now()
	asset := &Asset{
		ID:        NewID(),
		Name:      name,
		Kind:      kind,
		Path:      absPath,
		MimeType:  mimeType,
		SizeBytes: info.Size(),
		Duration:  in.Duration,
		Width:     in.Width,
		Height:    in.Height,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.CreateAsset(ctx, asset); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("asset registered", "asset_id", asset.ID, "kind", kind, "name", name)
	}
	return asset, nil
}

// GetAsset returns (nil, nil) when the asset does not exist.
func (s *Service) GetAsset(ctx context.Context, id string) (*Asset, error) {
	return s.repo.GetAsset(ctx, id)
}

func (s *Service) ListAssets(ctx context.Context, kind string) ([]*Asset, error) {
	if kind != "" {
		return s.repo.ListAssetsByKind(ctx, kind)
	}
	return s.repo.ListAssets(ctx)
}

func (s *Service) UpdateProbe(ctx context.Context, id string, duration float64, width, height int) (*Asset, error) {
	asset, err := s.repo.GetAsset(ctx, id)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, fmt.Errorf("asset not found")
	}

	if err := s.repo.UpdateAssetProbe(ctx, id, duration, width, height); err != nil {
		return nil, err
	}
	return s.repo.GetAsset(ctx, id)
}

func (s *Service) RemoveAsset(ctx context.Context, id string) error {
	return s.repo.DeleteAsset(ctx, id)
}

func (s *Service) CountAssets(ctx context.Context) (int, error) {
	return s.repo.CountAssets(ctx)
}

// DurationResolver adapts the catalog for trim clamping in the editor.
// Unknown assets and assets without a probed duration resolve to
// (0, false), which leaves trims unclamped.
func (s *Service) DurationResolver() timeline.DurationResolver {
	return func(assetID string) (float64, bool) {
		asset, err := s.repo.GetAsset(context.Background(), assetID)
		if err != nil || asset == nil || asset.Duration <= 0 {
			return 0, false
		}
		return asset.Duration, true
	}
}
