package usecase

import (
	"context"

	"skillmatch/internal/domain/matching"
	"skillmatch/internal/repository"
)

type SkillUsecase interface {
	ListSkills(ctx context.Context) ([]string, error)
}

// Skill lists the skill catalogue. The seeded skills table wins; the loaded
// vocabulary is used while the table is empty.
type Skill struct {
	repo  repository.SkillRepository
	vocab matching.Vocabulary
}

func NewSkillUsecase(repo repository.SkillRepository, vocab matching.Vocabulary) *Skill {
	return &Skill{repo: repo, vocab: vocab}
}

func (u *Skill) ListSkills(ctx context.Context) ([]string, error) {
	if u.repo != nil {
		items, err := u.repo.GetAllSkills(ctx)
		if err != nil {
			return nil, ErrInternal
		}
		if len(items) > 0 {
			out := make([]string, 0, len(items))
			for _, it := range items {
				out = append(out, it.Name)
			}
			return out, nil
		}
	}
	return u.vocab.Terms(), nil
}
