package registry

import (
	"context"
	"fmt"

	"github.com/LavaJover/shvark-swap-service/internal/domain"
	"github.com/jaevor/go-nanoid"
)

func newEventID() string {
	idGenerator, err := nanoid.Standard(15)
	if err != nil {
		return ""
	}
	return idGenerator()
}

// RegisterProvider creates or updates a provider record. An existing live
// record can only be updated by its owner; a logically deleted key is free
// for anyone to take.
func (r *DefaultProviderRegistry) RegisterProvider(ctx context.Context, caller, key, address string) error {
	if err := r.Guard.Acquire(); err != nil {
		return err
	}
	defer r.Guard.Release()

	if address == "" {
		return domain.Errorf(domain.KindValidation, "provider address must not be zero")
	}
	if key == "" {
		return domain.Errorf(domain.KindValidation, "provider key must not be empty")
	}

	record, err := r.Repo.GetByKey(ctx, key)
	if err != nil {
		return fmt.Errorf("loading provider %s: %w", key, err)
	}
	if record != nil && record.Exists && record.OwnerAddress != caller {
		return domain.Errorf(domain.KindConflict,
			"provider %s is already registered to another owner", key)
	}

	// One live record per address: the reverse mapping must stay unique.
	holder, err := r.Repo.GetKeyByAddress(ctx, address)
	if err != nil {
		return fmt.Errorf("looking up address %s: %w", address, err)
	}
	if holder != "" && holder != key {
		return domain.Errorf(domain.KindConflict,
			"address %s is already held by provider %s", address, holder)
	}

	updated := &domain.ProviderRecord{
		Key:          key,
		Address:      address,
		OwnerAddress: caller,
		CreatedAt:    r.Clock.Now(),
		Exists:       true,
	}
	if err := r.Repo.Save(ctx, updated); err != nil {
		return fmt.Errorf("saving provider %s: %w", key, err)
	}
	if err := r.Repo.AppendIndex(ctx, key); err != nil {
		return fmt.Errorf("indexing provider %s: %w", key, err)
	}

	r.Metrics.RecordProviderRegistered()
	r.record(ctx, domain.AuditEvent{
		ID:              newEventID(),
		Type:            domain.EventProviderRegistered,
		OccurredAt:      r.Clock.Now().Unix(),
		ProviderKey:     key,
		ProviderAddress: address,
		OwnerAddress:    caller,
	})
	return nil
}

// UnregisterProvider logically deletes a record. The stored address must
// match; only the owner may unregister.
func (r *DefaultProviderRegistry) UnregisterProvider(ctx context.Context, caller, key, address string) error {
	if err := r.Guard.Acquire(); err != nil {
		return err
	}
	defer r.Guard.Release()

	record, err := r.Repo.GetByKey(ctx, key)
	if err != nil {
		return fmt.Errorf("loading provider %s: %w", key, err)
	}
	if record == nil || !record.Exists {
		return domain.Errorf(domain.KindNotFound, "provider %s is not registered", key)
	}
	if record.OwnerAddress != caller {
		return domain.Errorf(domain.KindAuthorization,
			"caller %s does not own provider %s", caller, key)
	}
	if record.Address != address {
		return domain.Errorf(domain.KindConflict,
			"provider %s is registered at a different address", key)
	}

	record.Exists = false
	record.Address = ""
	if err := r.Repo.Save(ctx, record); err != nil {
		return fmt.Errorf("saving provider %s: %w", key, err)
	}

	r.record(ctx, domain.AuditEvent{
		ID:              newEventID(),
		Type:            domain.EventProviderUnregistered,
		OccurredAt:      r.Clock.Now().Unix(),
		ProviderKey:     key,
		ProviderAddress: address,
		OwnerAddress:    caller,
	})
	return nil
}
