package params_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/studysync/internal/app/features/shared/params"
	"github.com/dalemusser/studysync/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestObjectID(t *testing.T) {
	id := primitive.NewObjectID()
	r := testutil.WithChiURLParam(httptest.NewRequest("GET", "/", nil), "id", id.Hex())

	got, err := params.ObjectID(r, "id")
	if err != nil || got != id {
		t.Errorf("ObjectID = %v, %v; want %v", got, err, id)
	}

	r = testutil.WithChiURLParam(httptest.NewRequest("GET", "/", nil), "id", "not-an-id")
	if _, err := params.ObjectID(r, "id"); err != params.ErrBadID {
		t.Errorf("err = %v, want ErrBadID", err)
	}
}

func TestInt(t *testing.T) {
	tests := []struct {
		target string
		want   int
	}{
		{"/?limit=7", 7},
		{"/?limit=%207%20", 7},
		{"/", 0},
		{"/?limit=abc", 0},
		{"/?limit=-3", 0},
	}
	for _, tt := range tests {
		if got := params.Int(httptest.NewRequest("GET", tt.target, nil), "limit"); got != tt.want {
			t.Errorf("Int(%q) = %d, want %d", tt.target, got, tt.want)
		}
	}
}
