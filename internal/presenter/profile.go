package presenter

import (
	"context"
	"net/url"

	"image-feed/internal/services"
)

const (
	namePlaceholder  = "Name not set"
	loginPlaceholder = "@unknown_user"
	bioPlaceholder   = "Profile is empty"
)

// ProfileView renders the profile screen
type ProfileView interface {
	UpdateProfileDetails(name, loginName, bio string)
	UpdateAvatar(avatarURL *url.URL)
}

// ProfileViewPresenter drives a ProfileView from the cached profile and avatar
type ProfileViewPresenter struct {
	view         ProfileView
	profile      *services.ProfileService
	profileImage *services.ProfileImageService
	bus          *services.EventBus
}

// NewProfileViewPresenter creates a new profile presenter
func NewProfileViewPresenter(
	view ProfileView,
	profile *services.ProfileService,
	profileImage *services.ProfileImageService,
	bus *services.EventBus,
) *ProfileViewPresenter {
	return &ProfileViewPresenter{
		view:         view,
		profile:      profile,
		profileImage: profileImage,
		bus:          bus,
	}
}

// ViewDidLoad renders the cached profile; nothing is rendered without one
func (p *ProfileViewPresenter) ViewDidLoad() {
	profile, ok := p.profile.Profile()
	if !ok {
		return
	}

	name := profile.Name
	if name == "" {
		name = namePlaceholder
	}
	loginName := profile.LoginName
	if loginName == "" {
		loginName = loginPlaceholder
	}
	bio := bioPlaceholder
	if profile.Bio != nil && *profile.Bio != "" {
		bio = *profile.Bio
	}

	p.view.UpdateProfileDetails(name, loginName, bio)
}

// UpdateAvatar renders the avatar, or nil when the URL is missing or invalid
func (p *ProfileViewPresenter) UpdateAvatar() {
	raw, ok := p.profileImage.AvatarURL()
	if !ok {
		p.view.UpdateAvatar(nil)
		return
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		p.view.UpdateAvatar(nil)
		return
	}
	p.view.UpdateAvatar(u)
}

// Listen redraws the avatar on every avatar change until ctx is done
func (p *ProfileViewPresenter) Listen(ctx context.Context) {
	events, unsubscribe := p.bus.Subscribe(services.ProfileImageDidChange)
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-events:
			if !ok {
				return
			}
			p.UpdateAvatar()
		}
	}
}
