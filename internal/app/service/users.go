package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	userstore "github.com/dalemusser/studysync/internal/app/store/users"
	"github.com/dalemusser/studysync/internal/app/system/auth"
	"github.com/dalemusser/studysync/internal/app/system/changefeed"
	"github.com/dalemusser/studysync/internal/app/system/htmlsanitize"
	"github.com/dalemusser/studysync/internal/app/system/inputval"
	"github.com/dalemusser/studysync/internal/app/system/normalize"
	"github.com/dalemusser/studysync/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	maxNameLength = 100
	maxCourses    = 50
)

// Profile is the input to Onboard. Blank Name and Email fall back to the
// identity's claims.
type Profile struct {
	Name       string   `json:"name" validate:"required,max=100" label:"Name"`
	Email      string   `json:"email" validate:"required,max=254,email" label:"Email"`
	University string   `json:"university" validate:"max=200" label:"University"`
	Major      string   `json:"major" validate:"max=200" label:"Major"`
	ImageURL   string   `json:"image_url" validate:"omitempty,max=2048,httpurl" label:"Image URL"`
	Courses    []string `json:"courses" validate:"max=50" label:"Courses"`
}

// CurrentUser returns the caller's profile, or ErrUnauthorized if they have
// not onboarded.
func (s *Service) CurrentUser(ctx context.Context, caller auth.Identity) (models.User, error) {
	return s.resolve(ctx, caller)
}

// Onboard creates the caller's profile, or returns the existing one.
// created reports whether a profile was inserted.
func (s *Service) Onboard(ctx context.Context, caller auth.Identity, p Profile) (_ models.User, created bool, err error) {
	defer func() { s.record("onboard", err) }()

	if caller.IsZero() {
		return models.User{}, false, ErrUnauthorized
	}
	ext := strings.TrimSpace(caller.Subject)
	existing, err := s.users.GetByExternalID(ctx, ext)
	switch {
	case err == nil:
		return *existing, false, nil
	case err != mongo.ErrNoDocuments:
		return models.User{}, false, fmt.Errorf("load user: %w", err)
	}

	if strings.TrimSpace(p.Name) == "" {
		p.Name = caller.Name
	}
	if strings.TrimSpace(p.Email) == "" {
		p.Email = caller.Email
	}
	p.Name = htmlsanitize.PlainText(p.Name)
	p.Email = normalize.Email(p.Email)
	p.University = htmlsanitize.PlainText(p.University)
	p.Major = htmlsanitize.PlainText(p.Major)
	p.ImageURL = strings.TrimSpace(p.ImageURL)
	p.Courses = normalize.Courses(p.Courses)
	if res := inputval.Validate(p); res.HasErrors() {
		return models.User{}, false, invalidResult(res)
	}

	u, created, err := s.users.Onboard(ctx, models.User{
		ExternalID: ext,
		Name:       p.Name,
		Email:      p.Email,
		University: p.University,
		Major:      p.Major,
		ImageURL:   p.ImageURL,
		Courses:    p.Courses,
	})
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		return models.User{}, false, fmt.Errorf("%w: a user with this email already exists", ErrConflict)
	}
	if err != nil {
		return models.User{}, false, fmt.Errorf("onboard user: %w", err)
	}

	if created {
		s.audit.UserOnboarded(ctx, u.ID, ext)
		s.publish(ctx, event(changefeed.KindProfile, primitive.NilObjectID, u.ID, u.ID), changefeed.UserTopic(u.ID))
	}
	return u, created, nil
}

// GetUser returns a user by id, or ErrNotFound.
func (s *Service) GetUser(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	return found(s.users.GetByID(ctx, id))
}

// GetUserByExternalID returns the user bound to an auth identity, or ErrNotFound.
func (s *Service) GetUserByExternalID(ctx context.Context, externalID string) (models.User, error) {
	return found(s.users.GetByExternalID(ctx, strings.TrimSpace(externalID)))
}

// GetUserByEmail returns the user with email, or ErrNotFound.
func (s *Service) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	email = normalize.Email(email)
	if email == "" {
		return models.User{}, ErrNotFound
	}
	return found(s.users.GetByEmail(ctx, email))
}

// ListUsers returns every user ordered by name.
func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

func found(u *models.User, err error) (models.User, error) {
	if err == mongo.ErrNoDocuments {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return *u, nil
}

// UpdateProfile applies upd to userID's profile. Only the profile's owner
// may change it.
func (s *Service) UpdateProfile(ctx context.Context, caller auth.Identity, userID primitive.ObjectID, upd userstore.ProfileUpdate) (_ models.User, err error) {
	defer func() { s.record("update_profile", err) }()

	u, err := s.resolve(ctx, caller)
	if err != nil {
		return models.User{}, err
	}
	if u.ID != userID {
		return models.User{}, ErrUnauthorized
	}

	if err := cleanProfileUpdate(&upd); err != nil {
		return models.User{}, err
	}
	if upd.IsEmpty() {
		return u, nil
	}

	updated, err := s.users.UpdateProfile(ctx, userID, upd)
	if err == mongo.ErrNoDocuments {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("update profile: %w", err)
	}

	s.audit.ProfileUpdated(ctx, userID)
	s.publish(ctx, event(changefeed.KindProfile, primitive.NilObjectID, userID, userID), changefeed.UserTopic(userID))
	return *updated, nil
}

func cleanProfileUpdate(upd *userstore.ProfileUpdate) error {
	if upd.Name != nil {
		name := htmlsanitize.PlainText(*upd.Name)
		switch {
		case name == "":
			return invalid("Name is required.")
		case len([]rune(name)) > maxNameLength:
			return invalid(fmt.Sprintf("Name must be at most %d characters.", maxNameLength))
		}
		upd.Name = &name
	}
	if upd.University != nil {
		v := htmlsanitize.PlainText(*upd.University)
		upd.University = &v
	}
	if upd.Major != nil {
		v := htmlsanitize.PlainText(*upd.Major)
		upd.Major = &v
	}
	if upd.ImageURL != nil {
		v := strings.TrimSpace(*upd.ImageURL)
		if v != "" && !inputval.IsValidHTTPURL(v) {
			return invalid("Image URL must be a valid http(s) URL.")
		}
		upd.ImageURL = &v
	}
	if upd.Courses != nil {
		upd.Courses = normalize.Courses(upd.Courses)
		if len(upd.Courses) > maxCourses {
			return invalid(fmt.Sprintf("Courses must have at most %d entries.", maxCourses))
		}
	}
	return nil
}
