package userstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/studysync/internal/app/system/normalize"
	"github.com/dalemusser/studysync/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

var (
	// ErrDuplicateEmail is returned when another identity already uses the email.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	// ErrDuplicateExternalID is returned when the identity is already onboarded.
	ErrDuplicateExternalID = errors.New("a user with this external id already exists")

	errMissingExternalID = errors.New("external_id is required")
	errMissingName       = errors.New("name is required")
	errMissingEmail      = errors.New("email is required")
)

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByExternalID loads the user bound to an auth identity.
// Returns mongo.ErrNoDocuments if the identity has not been onboarded.
func (s *Store) GetByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"external_id": externalID}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// List returns every user ordered by name.
func (s *Store) List(ctx context.Context) ([]models.User, error) {
	cur, err := s.c.Find(ctx, bson.M{}, sortByName())
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	users := []models.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func sortByName() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
}

// Create inserts a new user after normalizing fields. Courses default to an
// empty list.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ExternalID = strings.TrimSpace(u.ExternalID)
	u.Name = normalize.Name(u.Name)
	u.NameCI = text.Fold(u.Name)
	u.Email = normalize.Email(u.Email)
	u.University = normalize.Name(u.University)
	u.Major = normalize.Name(u.Major)
	u.ImageURL = strings.TrimSpace(u.ImageURL)
	u.Courses = normalize.Courses(u.Courses)

	switch {
	case u.ExternalID == "":
		return models.User{}, errMissingExternalID
	case u.Name == "":
		return models.User{}, errMissingName
	case u.Email == "":
		return models.User{}, errMissingEmail
	}

	u.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		return models.User{}, translateDup(err)
	}
	return u, nil
}

// translateDup maps a duplicate-key error to the sentinel for the index hit.
func translateDup(err error) error {
	if !wafflemongo.IsDup(err) {
		return err
	}
	if strings.Contains(err.Error(), "external_id") {
		return ErrDuplicateExternalID
	}
	return ErrDuplicateEmail
}

// ProfileUpdate holds the profile fields a user may change. Nil fields are
// left untouched.
type ProfileUpdate struct {
	Name       *string
	University *string
	Major      *string
	ImageURL   *string
	Courses    []string // nil = unchanged; empty slice clears
}

// IsEmpty reports whether the update changes nothing.
func (p ProfileUpdate) IsEmpty() bool {
	return p.Name == nil && p.University == nil && p.Major == nil && p.ImageURL == nil && p.Courses == nil
}

// UpdateProfile applies upd and returns the updated user.
// Returns mongo.ErrNoDocuments if the user does not exist.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) (*models.User, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Name != nil {
		name := normalize.Name(*upd.Name)
		if name == "" {
			return nil, errMissingName
		}
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}
	if upd.University != nil {
		set["university"] = normalize.Name(*upd.University)
	}
	if upd.Major != nil {
		set["major"] = normalize.Name(*upd.Major)
	}
	if upd.ImageURL != nil {
		set["image_url"] = strings.TrimSpace(*upd.ImageURL)
	}
	if upd.Courses != nil {
		set["courses"] = normalize.Courses(upd.Courses)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var u models.User
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}
