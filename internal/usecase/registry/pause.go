package registry

import (
	"context"
	"fmt"

	"github.com/LavaJover/shvark-swap-service/internal/domain"
)

// Pause state machine per record. Admin pause is independent of owner pause
// and takes precedence: while PausedByAdmin is set, owner-level unpause is
// rejected regardless of the owner-pause flag.

func (r *DefaultProviderRegistry) PauseByOwner(ctx context.Context, caller, key string) error {
	if err := r.Guard.Acquire(); err != nil {
		return err
	}
	defer r.Guard.Release()

	record, err := r.ownedRecord(ctx, caller, key)
	if err != nil {
		return err
	}
	if record.PausedByAdmin {
		return domain.Errorf(domain.KindInvalidState, "provider %s is paused by admin", key)
	}
	if record.PausedByOwner {
		return domain.Errorf(domain.KindInvalidState, "provider %s is already paused by owner", key)
	}

	record.PausedByOwner = true
	if err := r.Repo.Save(ctx, record); err != nil {
		return fmt.Errorf("saving provider %s: %w", key, err)
	}
	r.recordPauseEvent(ctx, domain.EventProviderPausedByOwner, record, caller)
	return nil
}

func (r *DefaultProviderRegistry) UnpauseByOwner(ctx context.Context, caller, key string) error {
	if err := r.Guard.Acquire(); err != nil {
		return err
	}
	defer r.Guard.Release()

	record, err := r.ownedRecord(ctx, caller, key)
	if err != nil {
		return err
	}
	if record.PausedByAdmin {
		return domain.Errorf(domain.KindInvalidState, "provider %s is paused by admin", key)
	}
	if !record.PausedByOwner {
		return domain.Errorf(domain.KindInvalidState, "provider %s is not paused by owner", key)
	}

	record.PausedByOwner = false
	if err := r.Repo.Save(ctx, record); err != nil {
		return fmt.Errorf("saving provider %s: %w", key, err)
	}
	r.recordPauseEvent(ctx, domain.EventProviderUnpausedByOwner, record, caller)
	return nil
}

func (r *DefaultProviderRegistry) PauseByAdmin(ctx context.Context, caller, key string) error {
	if err := r.Guard.Acquire(); err != nil {
		return err
	}
	defer r.Guard.Release()

	record, err := r.adminRecord(ctx, caller, key)
	if err != nil {
		return err
	}
	if record.PausedByAdmin {
		return domain.Errorf(domain.KindInvalidState, "provider %s is already paused by admin", key)
	}

	record.PausedByAdmin = true
	if err := r.Repo.Save(ctx, record); err != nil {
		return fmt.Errorf("saving provider %s: %w", key, err)
	}
	r.recordPauseEvent(ctx, domain.EventProviderPausedByAdmin, record, caller)
	return nil
}

func (r *DefaultProviderRegistry) UnpauseByAdmin(ctx context.Context, caller, key string) error {
	if err := r.Guard.Acquire(); err != nil {
		return err
	}
	defer r.Guard.Release()

	record, err := r.adminRecord(ctx, caller, key)
	if err != nil {
		return err
	}
	if !record.PausedByAdmin {
		return domain.Errorf(domain.KindInvalidState, "provider %s is not paused by admin", key)
	}

	record.PausedByAdmin = false
	if err := r.Repo.Save(ctx, record); err != nil {
		return fmt.Errorf("saving provider %s: %w", key, err)
	}
	r.recordPauseEvent(ctx, domain.EventProviderUnpausedByAdmin, record, caller)
	return nil
}

func (r *DefaultProviderRegistry) ownedRecord(ctx context.Context, caller, key string) (*domain.ProviderRecord, error) {
	record, err := r.Repo.GetByKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("loading provider %s: %w", key, err)
	}
	if record == nil || !record.Exists {
		return nil, domain.Errorf(domain.KindInvalidState, "provider %s is not registered", key)
	}
	if record.OwnerAddress != caller {
		return nil, domain.Errorf(domain.KindAuthorization,
			"caller %s does not own provider %s", caller, key)
	}
	return record, nil
}

func (r *DefaultProviderRegistry) adminRecord(ctx context.Context, caller, key string) (*domain.ProviderRecord, error) {
	admin, err := r.isAdmin(ctx, caller)
	if err != nil {
		return nil, err
	}
	if !admin {
		return nil, domain.Errorf(domain.KindAuthorization, "caller %s is not an admin", caller)
	}
	record, err := r.Repo.GetByKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("loading provider %s: %w", key, err)
	}
	if record == nil || !record.Exists {
		return nil, domain.Errorf(domain.KindInvalidState, "provider %s is not registered", key)
	}
	return record, nil
}

func (r *DefaultProviderRegistry) recordPauseEvent(ctx context.Context, eventType domain.EventType, record *domain.ProviderRecord, caller string) {
	r.record(ctx, domain.AuditEvent{
		ID:              newEventID(),
		Type:            eventType,
		OccurredAt:      r.Clock.Now().Unix(),
		ProviderKey:     record.Key,
		ProviderAddress: record.Address,
		OwnerAddress:    caller,
	})
}
