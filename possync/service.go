package possync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/mmdatafocus/pos_sync/config"
	"github.com/mmdatafocus/pos_sync/models"
	"github.com/mmdatafocus/pos_sync/realtime"
	"github.com/mmdatafocus/pos_sync/utils"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// ErrNotArray is returned when a push body is not a JSON array.
var ErrNotArray = errors.New("expected an array of operations")

// Service applies pull and push requests against the collection store.
type Service struct {
	store    *models.Store
	notifier realtime.Notifier
	window   int
	validate *validator.Validate
	tracer   trace.Tracer
	now      func() time.Time
}

type Option func(*Service)

// WithNotifier sets who is told about new transactions.
func WithNotifier(n realtime.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithTransactionWindow caps the transactions returned by Pull.
func WithTransactionWindow(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.window = n
		}
	}
}

func NewService(store *models.Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		window:   config.DefaultTransactionWindow,
		validate: validator.New(),
		tracer:   otel.Tracer("possync"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Store() *models.Store {
	return s.store
}

// Pull reads every snapshot collection concurrently. The files are read
// independently, so the result is not a consistent cut across collections.
func (s *Service) Pull(ctx context.Context, baseURL string) (Snapshot, error) {
	var snap Snapshot
	g, gctx := errgroup.WithContext(ctx)

	readList := func(c models.Collection, out *[]models.Record) {
		g.Go(func() error {
			list, err := s.store.ReadList(gctx, c)
			if err != nil {
				return err
			}
			*out = list
			return nil
		})
	}
	readList(models.CollectionProducts, &snap.Products)
	readList(models.CollectionUsers, &snap.Users)
	readList(models.CollectionExpenses, &snap.Expenses)
	readList(models.CollectionCreditCustomers, &snap.CreditCustomers)
	readList(models.CollectionTransactions, &snap.Transactions)
	g.Go(func() error {
		v, err := s.store.ReadValue(gctx, models.CollectionBusinessSetup)
		if err != nil {
			return err
		}
		snap.BusinessSetup = models.UnwrapBusinessSetup(v)
		return nil
	})

	if err := g.Wait(); err != nil {
		return Snapshot{}, fmt.Errorf("pull: %w", err)
	}

	snap.Transactions = models.LatestTransactions(snap.Transactions, s.window)
	for i, p := range snap.Products {
		snap.Products[i] = models.RewriteProductImage(p, baseURL)
	}
	return snap, nil
}

// ParseOperations decodes a push body. Only a body that is not a JSON array
// is an error; malformed entries become operations that fail validation.
func ParseOperations(body []byte) ([]Operation, error) {
	var raw []json.RawMessage
	if err := utils.DecodeJSON(body, &raw); err != nil || raw == nil {
		return nil, ErrNotArray
	}

	ops := make([]Operation, 0, len(raw))
	for _, item := range raw {
		var entry map[string]any
		if err := utils.DecodeJSON(item, &entry); err != nil {
			ops = append(ops, Operation{})
			continue
		}
		op := Operation{}
		op.Type, _ = entry["type"].(string)
		if data, ok := entry["data"].(map[string]any); ok {
			op.Data = models.Record(data)
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// Push applies ops in order. Each operation commits on its own; the first
// storage failure stops the batch and the results so far are returned with
// the error.
func (s *Service) Push(ctx context.Context, ops []Operation) ([]OperationResult, error) {
	logger := config.GetLogger()
	run := models.SyncRun{
		ID:         uuid.NewString(),
		StartedAt:  s.now().UTC(),
		Operations: len(ops),
	}
	run.CorrelationId, _ = utils.GetCorrelationIdFromContext(ctx)
	run.ClientAddr, _ = utils.GetClientAddrFromContext(ctx)

	results := make([]OperationResult, 0, len(ops))
	var pushErr error
	for i, op := range ops {
		res, err := s.applyTraced(ctx, i, op)
		results = append(results, res)
		switch res.Status {
		case ResultApplied:
			run.Applied++
		case ResultSkipped:
			run.Skipped++
		case ResultFailed:
			run.Failed++
		}
		if err != nil {
			pushErr = fmt.Errorf("operation %d (%s): %w", i, op.Type, err)
			break
		}
	}

	run.FinishedAt = s.now().UTC()
	run.DurationMs = run.FinishedAt.Sub(run.StartedAt).Milliseconds()
	switch {
	case pushErr != nil:
		run.Status = models.SyncRunStatusFailed
		run.Error = pushErr.Error()
	case run.Skipped > 0:
		run.Status = models.SyncRunStatusPartial
	default:
		run.Status = models.SyncRunStatusSuccess
	}

	// The push outcome is already decided; history is best effort.
	if err := s.recordRun(context.WithoutCancel(ctx), run); err != nil {
		config.LogError(logger, "possync", "Push", "record sync run", run.ID, err)
	}

	logger.WithFields(logrus.Fields{
		"field":         "possync",
		"runId":         run.ID,
		"status":        run.Status,
		"applied":       run.Applied,
		"skipped":       run.Skipped,
		"failed":        run.Failed,
		"correlationId": run.CorrelationId,
	}).Info("push batch processed")

	return results, pushErr
}

// Apply runs a single operation outside of a push batch. The legacy
// single-resource endpoints go through here.
func (s *Service) Apply(ctx context.Context, op Operation) (OperationResult, error) {
	return s.applyTraced(ctx, 0, op)
}

func (s *Service) recordRun(ctx context.Context, run models.SyncRun) error {
	rec, err := run.ToRecord()
	if err != nil {
		return err
	}
	return s.store.UpdateList(ctx, models.CollectionSyncRuns, func(list []models.Record) ([]models.Record, bool, error) {
		list = models.Prepend(list, rec)
		if len(list) > models.MaxSyncRuns {
			list = list[:models.MaxSyncRuns]
		}
		return list, true, nil
	})
}

// History returns the most recent push batches, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]models.SyncRun, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	limit = min(limit, models.MaxSyncRuns)

	list, err := s.store.ReadList(ctx, models.CollectionSyncRuns)
	if err != nil {
		return nil, err
	}
	if len(list) > limit {
		list = list[:limit]
	}

	runs := make([]models.SyncRun, 0, len(list))
	for _, rec := range list {
		run, err := models.SyncRunFromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("decode sync run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, nil
}
