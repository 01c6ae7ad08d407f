package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/hanriver/tradepilot/internal/models"
)

// Cleanup implements §4.4's cleanup(thresholds): deactivate Principles and
// Intuitions with supporting_trades < 2 older than StaleDays; cap active
// Principles and Intuitions at their configured maxima; delete layer-3
// journals older than ArchiveDays. Idempotent within the same thresholds
// and clock.
func (s *Store) Cleanup(ctx context.Context, realm models.Realm, now time.Time, policy models.CompressionPolicy) error {
	if err := s.deactivateStalePrinciples(ctx, realm, now, policy.StaleDays); err != nil {
		return err
	}
	if err := s.deactivateStaleIntuitions(ctx, realm, now, policy.StaleDays); err != nil {
		return err
	}

	principleCount, err := s.CountPrinciples(ctx, realm)
	if err != nil {
		return err
	}
	if over := principleCount - policy.MaxPrinciples; over > 0 {
		if err := s.DeactivateWeakestPrinciples(ctx, realm, over); err != nil {
			return err
		}
	}

	intuitionCount, err := s.CountIntuitions(ctx, realm)
	if err != nil {
		return err
	}
	if over := intuitionCount - policy.MaxIntuitions; over > 0 {
		if err := s.DeactivateWeakestIntuitions(ctx, realm, over); err != nil {
			return err
		}
	}

	return s.deleteArchivedJournals(ctx, realm, now, policy.ArchiveDays)
}

func (s *Store) deactivateStalePrinciples(ctx context.Context, realm models.Realm, now time.Time, staleDays time.Duration) error {
	cutoff := now.Add(-staleDays)
	_, err := s.db.ExecContext(ctx, `
		UPDATE principles SET is_active = 0
		WHERE market = ? AND is_active = 1 AND supporting_trades < 2 AND created_at < ?
	`, string(realm), cutoff)
	if err != nil {
		return fmt.Errorf("deactivate stale principles: %w", err)
	}
	return nil
}

func (s *Store) deactivateStaleIntuitions(ctx context.Context, realm models.Realm, now time.Time, staleDays time.Duration) error {
	cutoff := now.Add(-staleDays)
	_, err := s.db.ExecContext(ctx, `
		UPDATE intuitions SET is_active = 0
		WHERE market = ? AND is_active = 1 AND supporting_trades < 2 AND created_at < ?
	`, string(realm), cutoff)
	if err != nil {
		return fmt.Errorf("deactivate stale intuitions: %w", err)
	}
	return nil
}

func (s *Store) deleteArchivedJournals(ctx context.Context, realm models.Realm, now time.Time, archiveDays time.Duration) error {
	cutoff := now.Add(-archiveDays)
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM journals WHERE market = ? AND compression_layer = ? AND created_at < ?
	`, string(realm), models.LayerIntuition, cutoff)
	if err != nil {
		return fmt.Errorf("delete archived journals: %w", err)
	}
	return nil
}
