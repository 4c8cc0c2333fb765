package state

import (
	"context"

	"github.com/abelbrown/harbor/internal/api"
	"github.com/abelbrown/harbor/internal/model"
)

// ProfileAPI is the part of the gateway the profile store needs.
type ProfileAPI interface {
	Profile(ctx context.Context) (*model.Profile, error)
	UpdateProfile(ctx context.Context, upd api.ProfileUpdate) (*model.Profile, error)
}

// ProfileState backs the profile view.
type ProfileState struct {
	Profile Resource[model.Profile]
	Saving  Resource[struct{}]
}

// Profile loads and saves the current user's profile.
type Profile struct {
	*Store[ProfileState]
	api ProfileAPI
}

// NewProfile creates an empty profile store.
func NewProfile(api ProfileAPI) *Profile {
	return &Profile{
		Store: NewStore(func() ProfileState { return ProfileState{} }, nil),
		api:   api,
	}
}

func profileData(s *ProfileState) *Resource[model.Profile] { return &s.Profile }
func profileSave(s *ProfileState) *Resource[struct{}]      { return &s.Saving }

// Fetch loads the profile.
func (p *Profile) Fetch(ctx context.Context) error {
	_, err := Load(ctx, p.Store, profileData, LastResolved, func(ctx context.Context) (model.Profile, error) {
		prof, err := p.api.Profile(ctx)
		if err != nil {
			return model.Profile{}, err
		}
		return *prof, nil
	})
	return err
}

// Save stores upd and replaces the cached profile with the server's copy.
func (p *Profile) Save(ctx context.Context, upd api.ProfileUpdate) (*model.Profile, error) {
	var saved *model.Profile
	_, err := Load(ctx, p.Store, profileSave, LastResolved, func(ctx context.Context) (struct{}, error) {
		var err error
		saved, err = p.api.UpdateProfile(ctx, upd)
		return struct{}{}, err
	})
	if err != nil {
		return nil, err
	}
	p.Update(func(s ProfileState) ProfileState {
		s.Profile.Data = *saved
		return s
	})
	return saved, nil
}
