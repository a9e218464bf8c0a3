package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ayusman/unistroke/internal/gesture"
)

// Sample is one raw recorded stroke a template was trained from. Data uses
// the same text form as Template.Data.
type Sample struct {
	ID          int64
	TemplateID  string
	SampleIndex int
	Data        string
	CreatedAt   time.Time
}

// Decode parses the stored stroke.
func (s *Sample) Decode() (*gesture.Gesture, error) {
	g, err := gesture.Parse(s.Data)
	if err != nil {
		return nil, fmt.Errorf("sample %d: %w", s.SampleIndex, err)
	}
	return g, nil
}

// SampleRepository provides access to raw template samples.
type SampleRepository struct {
	db *sql.DB
}

// Samples returns the sample repository for this store.
func (s *Store) Samples() *SampleRepository {
	return &SampleRepository{db: s.db}
}

// Replace swaps the samples of a template for a new set in a single
// transaction and updates the template's sample count.
func (r *SampleRepository) Replace(templateID string, samples []*gesture.Gesture) error {
	encoded := make([]string, len(samples))
	for i, g := range samples {
		data, err := g.MarshalText()
		if err != nil {
			return fmt.Errorf("sample %d: %w", i, err)
		}
		encoded[i] = string(data)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.Exec(`UPDATE templates SET samples = ?, updated_at = ? WHERE id = ?`,
		len(samples), time.Now(), templateID)
	if err != nil {
		return err
	}
	if err := expectOneRow(result); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM template_samples WHERE template_id = ?`, templateID); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO template_samples (template_id, sample_index, data) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, data := range encoded {
		if _, err := stmt.Exec(templateID, i, data); err != nil {
			return mapError(err)
		}
	}

	return tx.Commit()
}

// GetByTemplateID retrieves all samples for a template in recording order.
func (r *SampleRepository) GetByTemplateID(templateID string) ([]Sample, error) {
	rows, err := r.db.Query(
		`SELECT id, template_id, sample_index, data, created_at
		 FROM template_samples
		 WHERE template_id = ?
		 ORDER BY sample_index`,
		templateID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		var s Sample
		if err := rows.Scan(&s.ID, &s.TemplateID, &s.SampleIndex, &s.Data, &s.CreatedAt); err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return samples, nil
}
