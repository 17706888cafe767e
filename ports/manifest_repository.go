package ports

import (
	"context"

	"churnscope/domain/core"
	"churnscope/domain/run"
)

// ManifestRepository defines the interface for run manifest persistence
type ManifestRepository interface {
	// SaveManifest persists a completed run manifest
	SaveManifest(ctx context.Context, manifest *run.Manifest) error

	// GetManifest retrieves a manifest by run ID
	GetManifest(ctx context.Context, runID core.RunID) (*run.Manifest, error)

	// ListManifests returns manifests, newest first
	ListManifests(ctx context.Context, limit int) ([]*run.Manifest, error)

	// FindByFingerprint returns the most recent manifest whose run
	// fingerprint matches, or a not-found error
	FindByFingerprint(ctx context.Context, fingerprint core.Hash) (*run.Manifest, error)
}
