package memory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hanriver/tradepilot/internal/models"
)

func (s *Store) InsertPrinciple(ctx context.Context, p models.Principle) error {
	sourceJSON, _ := json.Marshal(p.SourceJournalIDs)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO principles (id, market, condition, action, reason, scope, sector,
			supporting_trades, success_rate, is_active, source_journal_ids_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, string(p.Market), p.Condition, p.Action, p.Reason, p.Scope, p.Sector,
		p.SupportingTrades, p.SuccessRate, boolToInt(p.IsActive), string(sourceJSON), p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert principle: %w", err)
	}
	return nil
}

func (s *Store) ActivePrinciples(ctx context.Context, realm models.Realm, sector string) ([]models.Principle, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, condition, action, reason, scope, sector, supporting_trades, success_rate,
		       is_active, source_journal_ids_json, created_at
		FROM principles WHERE market = ? AND is_active = 1
		  AND (scope = 'universal' OR sector = ?)
		ORDER BY success_rate DESC
	`, string(realm), sector)
	if err != nil {
		return nil, fmt.Errorf("query principles: %w", err)
	}
	defer rows.Close()

	var out []models.Principle
	for rows.Next() {
		var p models.Principle
		var isActive int
		var sourceJSON string
		if err := rows.Scan(&p.ID, &p.Condition, &p.Action, &p.Reason, &p.Scope, &p.Sector,
			&p.SupportingTrades, &p.SuccessRate, &isActive, &sourceJSON, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan principle: %w", err)
		}
		p.Market = realm
		p.IsActive = isActive == 1
		_ = json.Unmarshal([]byte(sourceJSON), &p.SourceJournalIDs)
		out = append(out, p)
	}
	return out, nil
}

// CountPrinciples returns the number of active principles for realm, used
// by cleanup's MaxPrinciples cap.
func (s *Store) CountPrinciples(ctx context.Context, realm models.Realm) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM principles WHERE market = ? AND is_active = 1`, string(realm)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count principles: %w", err)
	}
	return n, nil
}

// DeactivateWeakestPrinciples deactivates the n lowest-success-rate active
// principles for realm, oldest first among ties.
func (s *Store) DeactivateWeakestPrinciples(ctx context.Context, realm models.Realm, n int) error {
	if n <= 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE principles SET is_active = 0 WHERE id IN (
			SELECT id FROM principles WHERE market = ? AND is_active = 1
			ORDER BY success_rate ASC, created_at ASC LIMIT ?
		)
	`, string(realm), n)
	if err != nil {
		return fmt.Errorf("deactivate weakest principles: %w", err)
	}
	return nil
}

func (s *Store) InsertIntuition(ctx context.Context, in models.Intuition) error {
	sourceJSON, _ := json.Marshal(in.SourceJournalIDs)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO intuitions (id, market, category, subcategory, condition, insight, confidence,
			supporting_trades, success_rate, is_active, source_journal_ids_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, in.ID, string(in.Market), in.Category, in.Subcategory, in.Condition, in.Insight, in.Confidence,
		in.SupportingTrades, in.SuccessRate, boolToInt(in.IsActive), string(sourceJSON), in.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert intuition: %w", err)
	}
	return nil
}

func (s *Store) ActiveIntuitions(ctx context.Context, realm models.Realm) ([]models.Intuition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category, subcategory, condition, insight, confidence, supporting_trades,
		       success_rate, is_active, source_journal_ids_json, created_at
		FROM intuitions WHERE market = ? AND is_active = 1 ORDER BY confidence DESC
	`, string(realm))
	if err != nil {
		return nil, fmt.Errorf("query intuitions: %w", err)
	}
	defer rows.Close()

	var out []models.Intuition
	for rows.Next() {
		var in models.Intuition
		var isActive int
		var sourceJSON string
		if err := rows.Scan(&in.ID, &in.Category, &in.Subcategory, &in.Condition, &in.Insight,
			&in.Confidence, &in.SupportingTrades, &in.SuccessRate, &isActive, &sourceJSON, &in.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan intuition: %w", err)
		}
		in.Market = realm
		in.IsActive = isActive == 1
		_ = json.Unmarshal([]byte(sourceJSON), &in.SourceJournalIDs)
		out = append(out, in)
	}
	return out, nil
}

func (s *Store) CountIntuitions(ctx context.Context, realm models.Realm) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM intuitions WHERE market = ? AND is_active = 1`, string(realm)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count intuitions: %w", err)
	}
	return n, nil
}

func (s *Store) DeactivateWeakestIntuitions(ctx context.Context, realm models.Realm, n int) error {
	if n <= 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE intuitions SET is_active = 0 WHERE id IN (
			SELECT id FROM intuitions WHERE market = ? AND is_active = 1
			ORDER BY confidence ASC, created_at ASC LIMIT ?
		)
	`, string(realm), n)
	if err != nil {
		return fmt.Errorf("deactivate weakest intuitions: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
