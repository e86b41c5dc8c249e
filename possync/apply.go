package possync

import (
	"context"

	"github.com/mmdatafocus/pos_sync/config"
	"github.com/mmdatafocus/pos_sync/models"
	"github.com/mmdatafocus/pos_sync/realtime"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// outcome is what a single collection mutation decided.
type outcome struct {
	status string
	reason string
}

var (
	applied     = outcome{status: ResultApplied}
	notFound    = outcome{status: ResultSkipped, reason: ReasonNotFound}
	duplicate   = outcome{status: ResultSkipped, reason: ReasonDuplicate}
	missingID   = outcome{status: ResultSkipped, reason: ReasonMissingID}
	unsupported = outcome{status: ResultSkipped, reason: ReasonUnsupported}
)

func (s *Service) applyTraced(ctx context.Context, index int, op Operation) (OperationResult, error) {
	ctx, span := s.tracer.Start(ctx, "possync.apply", trace.WithAttributes(
		attribute.String("possync.operation", op.Type),
		attribute.Int("possync.index", index),
	))
	defer span.End()

	res := OperationResult{Index: index, Type: op.Type}
	if err := s.validate.Struct(op); err != nil {
		res.Status, res.Reason = unsupported.status, unsupported.reason
		span.SetAttributes(attribute.String("possync.status", res.Status))
		return res, nil
	}

	out, err := s.apply(ctx, op)
	if err != nil {
		res.Status = ResultFailed
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return res, err
	}
	res.Status, res.Reason = out.status, out.reason
	span.SetAttributes(attribute.String("possync.status", res.Status))
	return res, nil
}

func (s *Service) apply(ctx context.Context, op Operation) (outcome, error) {
	switch op.Type {
	case OpNewTransaction:
		return s.addTransaction(ctx, op.Data)
	case OpAddCreditCustomer:
		return s.appendRecord(ctx, models.CollectionCreditCustomers, op.Data.Clone())
	case OpUpdateCreditCustomer:
		return s.updateCreditCustomer(ctx, op.Data)
	case OpAddExpense:
		return s.prependRecord(ctx, models.CollectionExpenses, models.NormalizeExpense(op.Data))
	case OpAddProduct:
		product, id := models.NormalizeProduct(op.Data)
		return s.addUnique(ctx, models.CollectionProducts, models.ProductIDKey, id, product)
	case OpUpdateProduct:
		return s.updateByID(ctx, models.CollectionProducts, models.ProductIDKey, models.ProductLookupID(op.Data), models.ProductPatch(op.Data))
	case OpDeleteProduct:
		return s.deleteByID(ctx, models.CollectionProducts, models.ProductIDKey, models.ProductLookupID(op.Data))
	case OpAddUser:
		user, id := models.NormalizeUser(op.Data)
		return s.addUnique(ctx, models.CollectionUsers, models.UserIDKey, id, user)
	case OpUpdateUser:
		return s.updateByID(ctx, models.CollectionUsers, models.UserIDKey, models.UserLookupID(op.Data), models.UserPatch(op.Data))
	case OpDeleteUser:
		return s.deleteByID(ctx, models.CollectionUsers, models.UserIDKey, models.UserLookupID(op.Data))
	default:
		return unsupported, nil
	}
}

func (s *Service) addTransaction(ctx context.Context, data models.Record) (outcome, error) {
	txn := data.Clone()
	out, err := s.prependRecord(ctx, models.CollectionTransactions, txn)
	if err != nil {
		return out, err
	}
	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, realtime.NewEvent(realtime.EventNewTransaction, txn)); err != nil {
			config.LogError(config.GetLogger(), "possync", "addTransaction", "notify new transaction", nil, err)
		}
	}
	return out, nil
}

func (s *Service) appendRecord(ctx context.Context, c models.Collection, rec models.Record) (outcome, error) {
	err := s.store.UpdateList(ctx, c, func(list []models.Record) ([]models.Record, bool, error) {
		return append(list, rec), true, nil
	})
	if err != nil {
		return outcome{}, err
	}
	return applied, nil
}

func (s *Service) prependRecord(ctx context.Context, c models.Collection, rec models.Record) (outcome, error) {
	err := s.store.UpdateList(ctx, c, func(list []models.Record) ([]models.Record, bool, error) {
		return models.Prepend(list, rec), true, nil
	})
	if err != nil {
		return outcome{}, err
	}
	return applied, nil
}

func (s *Service) addUnique(ctx context.Context, c models.Collection, key string, id string, rec models.Record) (outcome, error) {
	if id == "" {
		return missingID, nil
	}
	out := applied
	err := s.store.UpdateList(ctx, c, func(list []models.Record) ([]models.Record, bool, error) {
		if models.IndexOf(list, key, id) >= 0 {
			out = duplicate
			return nil, false, nil
		}
		return append(list, rec), true, nil
	})
	if err != nil {
		return outcome{}, err
	}
	return out, nil
}

func (s *Service) updateByID(ctx context.Context, c models.Collection, key string, id string, patch models.Record) (outcome, error) {
	out := applied
	err := s.store.UpdateList(ctx, c, func(list []models.Record) ([]models.Record, bool, error) {
		idx := models.IndexOf(list, key, id)
		if idx < 0 {
			out = notFound
			return nil, false, nil
		}
		list[idx].Merge(patch)
		return list, true, nil
	})
	if err != nil {
		return outcome{}, err
	}
	return out, nil
}

func (s *Service) deleteByID(ctx context.Context, c models.Collection, key string, id string) (outcome, error) {
	out := applied
	err := s.store.UpdateList(ctx, c, func(list []models.Record) ([]models.Record, bool, error) {
		idx := models.IndexOf(list, key, id)
		if idx < 0 {
			out = notFound
			return nil, false, nil
		}
		return append(list[:idx], list[idx+1:]...), true, nil
	})
	if err != nil {
		return outcome{}, err
	}
	return out, nil
}

// updateCreditCustomer merges data.updates into the customer with data.id.
func (s *Service) updateCreditCustomer(ctx context.Context, data models.Record) (outcome, error) {
	id := data.ID(models.CreditCustomerIDKey)
	updates, _ := data.Object("updates")
	out := applied
	err := s.store.UpdateList(ctx, models.CollectionCreditCustomers, func(list []models.Record) ([]models.Record, bool, error) {
		idx := models.IndexOf(list, models.CreditCustomerIDKey, id)
		if idx < 0 {
			out = notFound
			return nil, false, nil
		}
		list[idx].Merge(updates)
		return list, true, nil
	})
	if err != nil {
		return outcome{}, err
	}
	return out, nil
}

// UpdateBusinessSetup shallow-merges patch into the stored business setup
// and returns the merged object.
func (s *Service) UpdateBusinessSetup(ctx context.Context, patch models.Record) (models.Record, error) {
	var merged models.Record
	err := s.store.UpdateValue(ctx, models.CollectionBusinessSetup, func(current any) (any, bool, error) {
		merged = models.MergeBusinessSetup(current, patch)
		return merged, true, nil
	})
	if err != nil {
		return nil, err
	}
	return merged, nil
}
