package server

import (
	"errors"
	"os"

	"go.uber.org/zap"

	"github.com/KaramelBytes/salesboard/internal/pipeline"
)

// Source yields the canonical table the views are computed from.
type Source interface {
	// Current returns the memoized pipeline result, building it on first use.
	Current() (*pipeline.Result, error)
	// Rebuild discards the memoized result and builds a fresh one.
	Rebuild() (*pipeline.Result, error)
}

// CacheSource serves PrepareFromPaths results through a pipeline.Cache. When
// the raw file is gone but a processed file exists, the processed file is
// loaded instead.
type CacheSource struct {
	Cache         *pipeline.Cache
	RawPath       string
	ProcessedPath string
}

// NewCacheSource returns a CacheSource over a fresh cache.
func NewCacheSource(rawPath, processedPath string, opts pipeline.Options) *CacheSource {
	return &CacheSource{Cache: pipeline.NewCache(opts), RawPath: rawPath, ProcessedPath: processedPath}
}

func (s *CacheSource) Current() (*pipeline.Result, error) {
	res, err := s.Cache.Prepare(s.RawPath, s.ProcessedPath)
	if err == nil || !errors.Is(err, pipeline.ErrSourceNotFound) || s.ProcessedPath == "" {
		return res, err
	}
	if _, statErr := os.Stat(s.ProcessedPath); statErr != nil {
		return nil, err
	}
	zap.L().Warn("raw source missing, serving processed file",
		zap.String("raw", s.RawPath), zap.String("processed", s.ProcessedPath))
	return s.Cache.Load(s.ProcessedPath)
}

func (s *CacheSource) Rebuild() (*pipeline.Result, error) {
	s.Cache.Invalidate()
	return s.Current()
}
