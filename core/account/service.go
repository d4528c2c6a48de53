package account

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/speakwell/academy/core"
)

var ErrNotFound = errors.New("profile not found")

type (
	Repository interface {
		GetProfile(ctx context.Context, id string) (Profile, error)
		CreateProfile(ctx context.Context, p Profile) error
		UpdateProfile(ctx context.Context, p Profile) error
		CountProfiles(ctx context.Context) (int, error)
	}

	Service interface {
		Get(ctx context.Context, id string) (Profile, error)
		// GetOrCreate returns the learner's profile, creating it on first sight.
		GetOrCreate(ctx context.Context, ident Identity) (Profile, error)
		Update(ctx context.Context, id string, up UpdateProfile) (Profile, error)
		Count(ctx context.Context) (int, error)
	}

	service struct {
		repo     Repository
		validate *validator.Validate
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, validate *validator.Validate) Service {
	return &service{repo: repo, validate: validate}
}

func (svc *service) Get(ctx context.Context, id string) (Profile, error) {
	return svc.repo.GetProfile(ctx, id)
}

func (svc *service) GetOrCreate(ctx context.Context, ident Identity) (Profile, error) {
	p, err := svc.repo.GetProfile(ctx, ident.ID)
	if err == nil {
		return p, nil
	}
	if errors.Cause(err) != ErrNotFound {
		return Profile{}, errors.Wrap(err, "getting profile")
	}

	now := time.Now().UTC()
	p = Profile{
		ID:                 ident.ID,
		DisplayName:        core.CleanString(ident.Name),
		Email:              core.CleanString(ident.Email, true /* lower */),
		Level:              core.Levels[0],
		DailyGoalMinutes:   15,
		EmailNotifications: true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err = svc.repo.CreateProfile(ctx, p); err != nil {
		return Profile{}, errors.Wrap(err, "creating profile")
	}
	return p, nil
}

func (svc *service) Update(ctx context.Context, id string, up UpdateProfile) (Profile, error) {
	if err := up.Validate(svc.validate); err != nil {
		return Profile{}, err
	}
	p, err := svc.repo.GetProfile(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	up.apply(&p)
	p.UpdatedAt = time.Now().UTC()
	if err = svc.repo.UpdateProfile(ctx, p); err != nil {
		return Profile{}, errors.Wrap(err, "updating profile")
	}
	return p, nil
}

func (svc *service) Count(ctx context.Context) (int, error) {
	return svc.repo.CountProfiles(ctx)
}
