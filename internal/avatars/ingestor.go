package avatars

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// ObjectStorage persists avatar images and returns their public location.
type ObjectStorage interface {
	Save(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}

// ProfileUpdater persists the final avatar location on the user record.
type ProfileUpdater interface {
	SetAvatarURL(ctx context.Context, userID, location string) error
}

// IngestorConfig controls the concurrency characteristics of the ingestor.
type IngestorConfig struct {
	QueueSize int
	Workers   int
}

// Ingestor asynchronously fetches remote avatar images and persists them to
// object storage, then points the user record at the stored copy.
type Ingestor struct {
	fetcher Fetcher
	storage ObjectStorage
	updater ProfileUpdater
	logger  *slog.Logger

	mu     sync.RWMutex
	jobs   chan ingestJob
	closed chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

type ingestJob struct {
	userID    string
	sourceURL string
}

var errIngestorClosed = errors.New("avatar ingestor closed")

// NewIngestor constructs a background worker pool that persists avatars.
func NewIngestor(fetcher Fetcher, storage ObjectStorage, updater ProfileUpdater, cfg IngestorConfig, logger *slog.Logger) *Ingestor {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	ing := &Ingestor{
		fetcher: fetcher,
		storage: storage,
		updater: updater,
		logger:  logger,
		jobs:    make(chan ingestJob, cfg.QueueSize),
		closed:  make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}

	ing.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go ing.worker()
	}

	return ing
}

// Enqueue schedules avatar persistence for the supplied user and source URL.
func (i *Ingestor) Enqueue(ctx context.Context, userID, sourceURL string) error {
	i.mu.RLock()
	defer i.mu.RUnlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-i.closed:
		return errIngestorClosed
	default:
	}

	job := ingestJob{userID: userID, sourceURL: sourceURL}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-i.closed:
		return errIngestorClosed
	case i.jobs <- job:
		return nil
	}
}

// Shutdown stops accepting new jobs and waits for the worker pool to drain
// the outstanding ones. In-flight work is abandoned once ctx expires.
func (i *Ingestor) Shutdown(ctx context.Context) error {
	i.once.Do(func() {
		i.mu.Lock()
		close(i.closed)
		close(i.jobs)
		i.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		i.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		i.cancel()
		return ctx.Err()
	case <-done:
		i.cancel()
		return nil
	}
}

func (i *Ingestor) worker() {
	defer i.wg.Done()

	for job := range i.jobs {
		if err := i.process(job); err != nil {
			i.logger.Error("avatar ingestion failed",
				"userId", job.userID,
				"source", job.sourceURL,
				"error", err,
			)
		}
	}
}

func (i *Ingestor) process(job ingestJob) error {
	ctx := i.ctx

	image, err := i.fetcher.Fetch(ctx, job.sourceURL)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("avatars/%s.%s", job.userID, image.Ext)
	location, err := i.storage.Save(ctx, key, image.ContentType, bytes.NewReader(image.Data))
	if err != nil {
		return err
	}

	if err := i.updater.SetAvatarURL(ctx, job.userID, location); err != nil {
		return fmt.Errorf("update avatar url: %w", err)
	}

	i.logger.Info("avatar persisted", "userId", job.userID, "location", location)
	return nil
}
