// Package params reads path and query parameters shared by the API handlers.
package params

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrBadID is returned when a path segment is not an ObjectID.
var ErrBadID = errors.New("invalid id")

// ObjectID parses the chi path parameter name as an ObjectID.
func ObjectID(r *http.Request, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		return primitive.NilObjectID, ErrBadID
	}
	return id, nil
}

// Int reads query parameter name as an int. Missing or malformed values
// yield 0, which the service replaces with its default.
func Int(r *http.Request, name string) int {
	v := strings.TrimSpace(query.Get(r, name))
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
