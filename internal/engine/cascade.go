package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rbolet/every-player/internal/store"
)

// Delete removes (kind, id) and everything it owns. The periods whose rows
// the cascade touches are locked in ascending id order for the duration.
func (e *Engine) Delete(ctx context.Context, kind store.Kind, id string) error {
	var periodIDs []string
	err := e.view(ctx, func(tx *store.Tx) (err error) {
		periodIDs, err = tx.CascadePeriodIDs(kind, id)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	unlock := e.locks.LockAll(periodIDs)
	defer unlock()

	fields := []zap.Field{zap.String("kind", string(kind)), zap.String("id", id), zap.Int("periods", len(periodIDs))}
	err = e.update(ctx, "delete", fields, func(tx *store.Tx) error {
		return tx.Delete(kind, id, e.now())
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	return nil
}
