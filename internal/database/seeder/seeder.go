// Package seeder fills reference tables after migrations have run.
package seeder

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"skillmatch/internal/database"
	"skillmatch/internal/domain/matching"
)

// Seeder inserts reference rows and reports how many were new.
type Seeder interface {
	Name() string
	Seed(ctx context.Context, db database.DB) (int, error)
}

// Defaults is the seeder set run at startup and by the seed command.
func Defaults(vocab matching.Vocabulary) []Seeder {
	return []Seeder{SkillsSeeder{Vocabulary: vocab}}
}

type Runner struct {
	Seeders []Seeder
	Logger  *zap.Logger
}

// Run applies every seeder in order and returns the number of rows added.
func (r Runner) Run(ctx context.Context, db database.DB) (int, error) {
	if db == nil {
		return 0, database.ErrNilDB
	}
	log := r.Logger
	if log == nil {
		log = zap.NewNop()
	}

	total := 0
	for _, s := range r.Seeders {
		if s == nil {
			continue
		}
		n, err := s.Seed(ctx, db)
		if err != nil {
			return total, fmt.Errorf("seed %s: %w", s.Name(), err)
		}
		total += n
		log.Info("seeder applied", zap.String("seeder", s.Name()), zap.Int("added", n))
	}
	return total, nil
}
