package inmemdb

import (
	"context"

	"github.com/speakwell/academy/core/account"
)

type profileRepository struct {
	db *profileTable
}

func NewProfileRepository(db *DB) account.Repository {
	return &profileRepository{db: db.profile}
}

func (repo *profileRepository) GetProfile(_ context.Context, id string) (account.Profile, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if p, ok := repo.db.table[id]; ok {
		return *p, nil
	}
	return account.Profile{}, account.ErrNotFound
}

func (repo *profileRepository) CreateProfile(_ context.Context, p account.Profile) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	// first write wins when two requests race on a new learner
	if _, ok := repo.db.table[p.ID]; !ok {
		repo.db.table[p.ID] = &p
	}
	return nil
}

func (repo *profileRepository) UpdateProfile(_ context.Context, p account.Profile) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[p.ID]; !ok {
		return account.ErrNotFound
	}
	repo.db.table[p.ID] = &p
	return nil
}

func (repo *profileRepository) CountProfiles(_ context.Context) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return len(repo.db.table), nil
}
