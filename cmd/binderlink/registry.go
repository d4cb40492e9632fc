package main

import (
	"context"
	"log/slog"

	"github.com/binderlink/binderlink/internal/config"
	"github.com/binderlink/binderlink/pkg/provider"
)

// registrySource returns the loader configured for the provider registry,
// or nil when the builtin table is used.
func registrySource(cfg *config.Config) provider.Loader {
	switch {
	case cfg.Providers.S3 != nil:
		s3cfg := cfg.Providers.S3
		return provider.S3Source{
			Client: provider.NewS3Client(provider.S3Options{
				Region:       s3cfg.Region,
				Endpoint:     s3cfg.Endpoint,
				UsePathStyle: s3cfg.UsePathStyle,
			}),
			Bucket: s3cfg.Bucket,
			Key:    s3cfg.Key,
		}
	case cfg.Providers.File != "":
		return provider.FileSource{Path: cfg.ResolvePath(cfg.Providers.File)}
	default:
		return nil
	}
}

// loadRegistry loads the configured provider registry.
func loadRegistry(ctx context.Context, cfg *config.Config) (*provider.Registry, error) {
	src := registrySource(cfg)
	if src == nil {
		slog.Debug("using builtin provider registry")
		return provider.Builtin(), nil
	}
	r, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	slog.Debug("provider registry loaded", "providers", r.Len())
	return r, nil
}
