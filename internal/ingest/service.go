// Package ingest runs one job-posting ingestion attempt from URL to stored record.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/jobloader/internal/cache"
	"github.com/kiranshivaraju/jobloader/internal/extract"
	"github.com/kiranshivaraju/jobloader/internal/fetch"
	"github.com/kiranshivaraju/jobloader/internal/store"
	"github.com/kiranshivaraju/jobloader/internal/telemetry"
	"github.com/kiranshivaraju/jobloader/pkg/models"
)

// PageFetcher retrieves page markup. *fetch.Fetcher implements it.
type PageFetcher interface {
	Fetch(ctx context.Context, url string, rec fetch.Recorder) (string, error)
}

// ContentCompressor shrinks markup to fit the prompt. *compress.Compressor implements it.
type ContentCompressor interface {
	Compress(raw string, sink telemetry.Sink) (string, error)
}

type Config struct {
	SoftTimeout time.Duration
	HardTimeout time.Duration
	StatusTTL   time.Duration
}

// Service runs ingestion attempts. It is safe for concurrent use.
type Service struct {
	store      store.Store
	cache      cache.Cache
	fetcher    PageFetcher
	compressor ContentCompressor
	model      models.GenerationModel
	cfg        Config
	logger     *slog.Logger
	now        func() time.Time
}

// NewService creates a new Service. A nil logger means slog.Default().
func NewService(st store.Store, ca cache.Cache, f PageFetcher, c ContentCompressor, m models.GenerationModel, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.StatusTTL <= 0 {
		cfg.StatusTTL = 30 * time.Minute
	}
	return &Service{
		store:      st,
		cache:      ca,
		fetcher:    f,
		compressor: c,
		model:      m,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// attempt is the in-memory state of one Ingest call.
type attempt struct {
	id        uuid.UUID
	sourceURL string
	rec       *telemetry.Recorder
	log       *slog.Logger

	mu      sync.Mutex
	err     error
	message string
	posting *models.JobPosting
	// data is the converted field set, kept for the save-failure detail.
	data string

	once sync.Once
}

// fail records the first failure. Later failures are ignored.
func (a *attempt) fail(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return
	}
	a.err = err
	a.message = messageFor(err)
	a.rec.AppendErrorDetail(err.Error())
	var se *StageError
	if errors.As(err, &se) {
		for _, line := range se.Detail {
			a.rec.AppendErrorDetail(line)
		}
	}
}

func (a *attempt) succeed(p models.JobPosting, data string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return
	}
	a.posting = &p
	a.data = data
}

// Ingest runs one attempt for a pending record and always leaves it in a
// terminal state, unless the record could not be claimed.
func (s *Service) Ingest(ctx context.Context, id uuid.UUID, sourceURL string) (err error) {
	log := s.logger.With("job_loading_id", id, "source_url", sourceURL)

	started := s.now()
	if err := s.store.MarkJobLoadingStarted(ctx, id, started, started.Add(s.cfg.HardTimeout)); err != nil {
		log.Warn("job loading not claimed, skipping", "error", err)
		return fmt.Errorf("claim job loading %s: %w", id, err)
	}

	a := &attempt{id: id, sourceURL: sourceURL, rec: telemetry.NewRecorder(), log: log}
	defer s.finalize(ctx, a)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during ingestion: %v", r)
			log.Error("panic during ingestion", "error", r)
			a.fail(err)
		}
	}()

	log.Info("ingestion started", "soft_timeout", s.cfg.SoftTimeout.String())

	softCtx, cancel := context.WithTimeoutCause(ctx, s.cfg.SoftTimeout, ErrSoftTimeout)
	defer cancel()

	posting, data, err := s.run(softCtx, a)
	if err != nil {
		a.fail(err)
		return err
	}
	a.succeed(posting, data)
	return nil
}

func (s *Service) run(ctx context.Context, a *attempt) (models.JobPosting, string, error) {
	var zero models.JobPosting

	if err := validateURL(a.sourceURL); err != nil {
		return zero, "", &StageError{Stage: ErrValidation, Err: err}
	}

	raw, err := runStage(ctx, ErrFetch, func(ctx context.Context) (string, error) {
		return s.fetcher.Fetch(fetch.ContextWithLogger(ctx, a.log), a.sourceURL, a.rec)
	})
	if err != nil {
		return zero, "", err
	}

	content, err := runStage(ctx, ErrFetch, func(context.Context) (string, error) {
		return s.compressor.Compress(raw, a.rec)
	})
	if err != nil {
		return zero, "", err
	}

	categories, err := runStage(ctx, ErrCategories, func(ctx context.Context) ([]string, error) {
		rows, err := s.store.ListJobCategories(ctx)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(rows))
		for _, c := range rows {
			names = append(names, c.Name)
		}
		return names, nil
	})
	if err != nil {
		return zero, "", err
	}

	prompt := extract.BuildPrompt(content, categories)

	gen, err := runStage(ctx, ErrModel, func(ctx context.Context) (models.Generation, error) {
		start := s.now()
		gen, err := s.model.Generate(ctx, prompt)
		if err != nil {
			return gen, err
		}
		a.rec.SetModelUsage(s.now().Sub(start), gen.PromptTokens, gen.CompletionTokens)
		a.log.Info("extraction model replied", "model", gen.Model, "chars", len(gen.Content))
		return gen, nil
	})
	if err != nil {
		return zero, "", err
	}

	parsed, err := extract.Parse(gen.Content)
	if err != nil {
		return zero, "", &StageError{Stage: ErrParse, Err: err, Detail: []string{"target: " + gen.Content}}
	}
	fields := extract.Normalize(parsed)
	data := formatFields(fields)

	posting, err := models.NewJobPosting(fields)
	if err != nil {
		return zero, "", &StageError{Stage: ErrPersistence, Err: err, Detail: []string{"data: " + data}}
	}
	return posting, data, nil
}

// finalize seals telemetry and writes the single terminal state. It runs on
// a context detached from the attempt, bounded by the gap between the soft
// and hard timeouts.
func (s *Service) finalize(parent context.Context, a *attempt) {
	a.once.Do(func() {
		tel := a.rec.Finish()

		budget := s.cfg.HardTimeout - s.cfg.SoftTimeout
		if budget <= 0 {
			budget = 30 * time.Second
		}
		ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), budget)
		defer cancel()

		a.mu.Lock()
		posting, message, data := a.posting, a.message, a.data
		a.mu.Unlock()

		status := models.JobLoadingStatusCompleted
		var err error
		if posting != nil {
			err = s.store.CompleteJobLoading(ctx, a.id, *posting, tel)
			if err != nil && !isGuardError(err) {
				a.log.Error("failed to save extraction result", "error", err)
				tel.ErrorDetail += err.Error() + "\n" + "data: " + data + "\n"
				message = MsgSaveFailed
				status = models.JobLoadingStatusError
				err = s.store.FailJobLoading(ctx, a.id, message, tel)
			}
		} else {
			status = models.JobLoadingStatusError
			err = s.store.FailJobLoading(ctx, a.id, message, tel)
		}

		if err != nil {
			if isGuardError(err) {
				a.log.Warn("job loading already finished elsewhere", "error", err)
			} else {
				a.log.Error("failed to write terminal state", "error", err, "status", status)
			}
			return
		}

		if cerr := s.cache.SetJobLoadingStatus(ctx, a.id, status, s.cfg.StatusTTL); cerr != nil {
			a.log.Warn("failed to cache job loading status", "error", cerr)
		}

		attrs := []any{"status", status, "total_time", derefInt(tel.TotalTime)}
		if status == models.JobLoadingStatusError {
			a.log.Warn("ingestion finished", append(attrs, "error_message", message)...)
			return
		}
		a.log.Info("ingestion finished", attrs...)
	})
}

// runStage runs fn and wraps its failure in a StageError. When the soft
// deadline fires first, it returns at once with a timeout error and leaves
// fn running; fn's late result is discarded.
func runStage[T any](ctx context.Context, stage error, fn func(context.Context) (T, error)) (T, error) {
	v, err := await(ctx, fn)
	if err == nil {
		return v, nil
	}
	if ctx.Err() != nil {
		cause := context.Cause(ctx)
		if errors.Is(cause, ErrSoftTimeout) {
			return v, &StageError{Stage: ErrSoftTimeout, Err: fmt.Errorf("interrupted while %s", stageName(stage))}
		}
		return v, &StageError{Stage: ErrSoftTimeout, Err: cause}
	}
	return v, &StageError{Stage: stage, Err: err}
}

// await returns fn's result or the context's cause, whichever comes first.
// A panic in fn is returned as an error.
func await[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- result{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		v, err := fn(ctx)
		ch <- result{v: v, err: err}
	}()

	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, context.Cause(ctx)
	}
}

func stageName(stage error) string {
	switch stage {
	case ErrFetch:
		return "fetching the page"
	case ErrCategories:
		return "loading job categories"
	case ErrModel:
		return "waiting for the extraction model"
	default:
		return stage.Error()
	}
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q in %q", u.Scheme, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	return nil
}

func formatFields(fields map[string]any) string {
	var sb strings.Builder
	enc := json.NewEncoder(&sb)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(fields); err != nil {
		return fmt.Sprintf("%v", fields)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func isGuardError(err error) bool {
	return errors.Is(err, store.ErrInvalidTransition) || errors.Is(err, store.ErrNotFound)
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
