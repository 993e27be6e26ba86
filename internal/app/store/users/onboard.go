package userstore

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/studysync/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

// Onboard returns the user bound to u.ExternalID, creating it when absent.
// created reports whether a new document was inserted.
//
// Two concurrent onboards for the same identity both succeed: the loser of
// the unique-index race re-reads the winner's document.
// Returns ErrDuplicateEmail when the email belongs to a different identity.
func (s *Store) Onboard(ctx context.Context, u models.User) (user models.User, created bool, err error) {
	ext := strings.TrimSpace(u.ExternalID)
	if ext == "" {
		return models.User{}, false, errMissingExternalID
	}

	existing, err := s.GetByExternalID(ctx, ext)
	switch {
	case err == nil:
		return *existing, false, nil
	case err != mongo.ErrNoDocuments:
		return models.User{}, false, err
	}

	u.ExternalID = ext
	user, err = s.Create(ctx, u)
	if errors.Is(err, ErrDuplicateExternalID) {
		existing, err := s.GetByExternalID(ctx, ext)
		if err != nil {
			return models.User{}, false, err
		}
		return *existing, false, nil
	}
	if err != nil {
		return models.User{}, false, err
	}
	return user, true, nil
}
