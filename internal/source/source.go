// Package source provides suppliers of raw opcache status snapshots.
//
// The PHP runtime is not reachable from Go, so a snapshot has to be exported
// by the PHP side first: served by a small script over HTTP, written to disk
// or uploaded to an S3 bucket.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/muandane/opcachestat/internal/bytecode"
	"github.com/muandane/opcachestat/internal/config"
	"github.com/muandane/opcachestat/internal/storage"
)

// ErrStatusTooLarge is returned when a snapshot exceeds maxStatusSize.
var ErrStatusTooLarge = errors.New("status snapshot too large")

// maxStatusSize bounds every snapshot read by a source.
var maxStatusSize int64 = 64 * 1024 * 1024

type Source interface {
	Status(ctx context.Context) (*bytecode.Status, error)
}

// Func adapts a Source to bytecode.StatusFunc.
func Func(s Source) bytecode.StatusFunc {
	return s.Status
}

// None never has data; the reader falls back to a disabled cache.
type None struct{}

func (None) Status(context.Context) (*bytecode.Status, error) {
	return nil, nil
}

// New builds the source selected by the configuration.
func New(cfg *config.Config, logger *slog.Logger) (Source, error) {
	switch cfg.Source {
	case config.SourceNone:
		return None{}, nil
	case config.SourceHTTP:
		return NewHTTP(cfg.StatusURL, &http.Client{Timeout: cfg.FetchTimeout}), nil
	case config.SourceFile:
		return NewFile(cfg.StatusFile), nil
	case config.SourceS3:
		client, err := storage.NewMinioClient(cfg.Storage)
		if err != nil {
			return nil, err
		}
		s3, err := NewS3(client, cfg.Storage.Bucket, cfg.Storage.StatusKey, cfg.FetchTimeout, logger)
		if err != nil {
			return nil, err
		}
		return s3, nil
	}
	return nil, fmt.Errorf("%w: unknown source %q", config.ErrInvalidConfig, cfg.Source)
}

func readStatus(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxStatusSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxStatusSize {
		return nil, fmt.Errorf("%w: exceeds %d bytes", ErrStatusTooLarge, maxStatusSize)
	}
	return data, nil
}
