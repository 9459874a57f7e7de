package seeder

import (
	"context"
	"time"

	"github.com/google/uuid"

	"skillmatch/internal/database"
	"skillmatch/internal/domain/matching"
)

// SkillsSeeder mirrors the matching vocabulary into the skills table.
// Existing names are left untouched.
type SkillsSeeder struct {
	Vocabulary matching.Vocabulary
}

func (SkillsSeeder) Name() string { return "skills" }

func (s SkillsSeeder) Seed(ctx context.Context, db database.DB) (int, error) {
	if err := EnsureTableColumns(ctx, db, "skills", "id", "name", "created_at"); err != nil {
		return 0, err
	}

	added := 0
	now := time.Now().UTC()
	err := database.WithTx(ctx, db, func(q database.Querier) error {
		for _, name := range s.Vocabulary.Terms() {
			n, err := q.Exec(ctx,
				`INSERT INTO skills (id, name, created_at) VALUES ($1, $2, $3) ON CONFLICT (name) DO NOTHING`,
				uuid.New(), name, now,
			)
			if err != nil {
				return err
			}
			added += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}
