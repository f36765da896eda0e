package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"salespulse/internal/analytics"
	"salespulse/internal/config"
	"salespulse/internal/infrastructure"
	"salespulse/internal/storage"
	"salespulse/internal/validation"
	"salespulse/internal/websocket"
	api "salespulse/pkg/contracts/api/v1"
	"salespulse/pkg/contracts/domain"
)

const dashboardKey = "dashboard"

// AnalyticsService serves the dashboard over the stored transactions and
// analyzes files without persisting them.
type AnalyticsService struct {
	store     TransactionStore
	files     FileStore
	ingester  Ingester
	validator *validation.FileValidator
	engine    *analytics.Engine
	notifier  Notifier
	metrics   *infrastructure.BusinessMetrics
	logger    *slog.Logger

	cache *gocache.Cache
	group singleflight.Group
	// bumped on every invalidation; a computation started under an older
	// generation is returned but not cached
	generation atomic.Uint64
}

// AnalyticsDeps groups the collaborators of AnalyticsService. Notifier and
// Metrics are optional.
type AnalyticsDeps struct {
	Store     TransactionStore
	Files     FileStore
	Ingester  Ingester
	Validator *validation.FileValidator
	Engine    *analytics.Engine
	Notifier  Notifier
	Metrics   *infrastructure.BusinessMetrics
}

// NewAnalyticsService creates the service with a dashboard cache tuned by cfg.
func NewAnalyticsService(deps AnalyticsDeps, cfg config.CacheConfig, logger *slog.Logger) *AnalyticsService {
	if logger == nil {
		logger = slog.Default()
	}
	engine := deps.Engine
	if engine == nil {
		engine = analytics.NewEngine(logger, analytics.DefaultConfig())
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	return &AnalyticsService{
		store:     deps.Store,
		files:     deps.Files,
		ingester:  deps.Ingester,
		validator: deps.Validator,
		engine:    engine,
		notifier:  deps.Notifier,
		metrics:   deps.Metrics,
		logger:    infrastructure.WithComponent(logger, "analytics_service"),
		cache:     gocache.New(ttl, cfg.CleanupInterval),
	}
}

// Dashboard returns the analytics over every stored transaction. Results
// are cached until the data changes; concurrent misses share one computation.
func (s *AnalyticsService) Dashboard(ctx context.Context) (domain.Dashboard, error) {
	if cached, ok := s.cache.Get(dashboardKey); ok {
		s.metrics.RecordCacheLookup(ctx, true)
		return cached.(domain.Dashboard), nil
	}
	s.metrics.RecordCacheLookup(ctx, false)

	v, err, shared := s.group.Do(dashboardKey, func() (any, error) {
		gen := s.generation.Load()
		d, err := s.compute(ctx)
		if err != nil {
			return nil, err
		}
		if s.generation.Load() == gen {
			s.cache.SetDefault(dashboardKey, d)
		}
		return d, nil
	})
	if err != nil {
		return domain.Dashboard{}, err
	}
	if shared {
		s.logger.DebugContext(ctx, "dashboard computation shared")
	}
	return v.(domain.Dashboard), nil
}

func (s *AnalyticsService) compute(ctx context.Context) (domain.Dashboard, error) {
	start := time.Now()
	txs, err := s.store.ListTransactions(ctx, storage.Filter{})
	if err != nil {
		return domain.Dashboard{}, fmt.Errorf("failed to load transactions: %w", err)
	}
	d := s.engine.Compute(ctx, txs)
	s.metrics.RecordDashboardCompute(ctx, time.Since(start))
	s.logger.InfoContext(ctx, "dashboard computed",
		slog.Int("transactions", len(txs)),
		slog.Duration("elapsed", time.Since(start)))
	return d, nil
}

// Invalidate drops the cached dashboard.
func (s *AnalyticsService) Invalidate() {
	s.generation.Add(1)
	s.cache.Delete(dashboardKey)
}

// AnalyzeSession parses files and computes their dashboard without storing
// anything. It fails with ErrNothingParsed when no file yields a record.
func (s *AnalyticsService) AnalyzeSession(ctx context.Context, batch []UploadedFile) (domain.Dashboard, error) {
	if len(batch) == 0 {
		return domain.Dashboard{}, ErrNoFilesUploaded
	}
	if s.validator != nil {
		if err := s.validator.ValidateBatch(len(batch)); err != nil {
			return domain.Dashboard{}, validation.AsAppError("", err)
		}
	}

	var all []domain.Transaction
	for _, f := range batch {
		if err := ctx.Err(); err != nil {
			return domain.Dashboard{}, err
		}
		if f.ReadErr != nil {
			s.logger.WarnContext(ctx, "skipping unreadable file",
				slog.String("file", f.Name),
				slog.String("error", f.ReadErr.Error()))
			continue
		}
		if s.validator != nil {
			if err := s.validator.ValidateUpload(f.Name, int64(len(f.Data))); err != nil {
				continue
			}
		}
		res := s.ingester.Process(ctx, f.Name, f.Data)
		all = append(all, res.Transactions...)
	}
	if len(all) == 0 {
		s.logger.WarnContext(ctx, "session analysis found no data", slog.Int("files", len(batch)))
		return domain.Dashboard{}, ErrNothingParsed
	}
	return s.engine.Compute(ctx, all), nil
}

// Clear deletes every transaction and uploaded file.
func (s *AnalyticsService) Clear(ctx context.Context) (*api.ClearResponse, error) {
	res, err := s.store.Clear(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to clear data: %w", err)
	}
	s.Invalidate()

	paths := make([]string, 0, len(res.Files))
	for _, f := range res.Files {
		paths = append(paths, f.StoredPath)
	}
	removed, err := s.files.DeleteAll(paths)
	if err != nil {
		// the rows are gone already; leftover bytes are only logged
		s.logger.WarnContext(ctx, "some uploaded files could not be deleted",
			slog.Int("deleted", removed),
			slog.Int("tracked", len(paths)),
			slog.String("error", err.Error()))
	}

	if s.notifier != nil {
		s.notifier.Broadcast(ctx, websocket.TypeDataUpdate, map[string]any{"cleared": true})
	}
	s.logger.InfoContext(ctx, "data cleared",
		slog.Int64("transactions", res.Transactions),
		slog.Int("files", len(res.Files)))

	return &api.ClearResponse{
		Message:             fmt.Sprintf("Successfully deleted %d records and all tracked files.", res.Transactions),
		TransactionsDeleted: res.Transactions,
		FilesDeleted:        len(res.Files),
	}, nil
}

// Transactions returns one page of stored transactions matching f.
func (s *AnalyticsService) Transactions(ctx context.Context, f storage.Filter) (*api.TransactionPage, error) {
	total, err := s.store.CountTransactions(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to count transactions: %w", err)
	}
	txs, err := s.store.ListTransactions(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	if txs == nil {
		txs = []domain.Transaction{}
	}
	return &api.TransactionPage{Transactions: txs, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

// Files lists every tracked upload, newest first.
func (s *AnalyticsService) Files(ctx context.Context) ([]domain.SourceFile, error) {
	list, err := s.store.ListFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	if list == nil {
		list = []domain.SourceFile{}
	}
	return list, nil
}

// Stats returns store wide counters.
func (s *AnalyticsService) Stats(ctx context.Context) (storage.Stats, error) {
	return s.store.Stats(ctx)
}
