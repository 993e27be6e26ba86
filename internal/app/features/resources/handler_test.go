package resources_test

import (
	"net/http"
	"testing"

	uierrors "github.com/dalemusser/studysync/internal/app/features/errors"
	"github.com/dalemusser/studysync/internal/app/features/resources"
	"github.com/dalemusser/studysync/internal/app/service"
	"github.com/dalemusser/studysync/internal/domain/models"
	"github.com/dalemusser/studysync/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func newRouter(t *testing.T) (chi.Router, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupIndexedDB(t)
	logger := zap.NewNop()
	svc := service.New(service.Deps{DB: db, Log: logger})
	h := resources.NewHandler(svc, uierrors.NewErrorLogger(logger), logger)

	r := chi.NewRouter()
	r.Mount("/api/groups/{id}/resources", resources.Routes(h, testutil.NewSessionManager(t), nil))
	return r, testutil.NewFixtures(t, db)
}

func do(r chi.Router, req *http.Request) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestUpload_DerivesType(t *testing.T) {
	r, fx := newRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := fx.CreateUser(ctx, "Ada", "ada@example.com")
	g := fx.CreateGroup(ctx, "Algo", "CS201", true, u.ID)
	fx.CreateMembership(ctx, g.ID, u.ID)
	path := "/api/groups/" + g.ID.Hex() + "/resources"

	tests := []struct {
		body map[string]string
		want string
	}{
		{map[string]string{"name": "Notes", "url": "https://example.com/notes.pdf"}, models.ResourceTypePDF},
		{map[string]string{"name": "Slides", "url": "https://example.com/deck.PPTX?dl=1"}, models.ResourceTypePPT},
		{map[string]string{"name": "Site", "url": "https://example.com/"}, models.ResourceTypeFile},
	}
	for _, tt := range tests {
		rec := do(r, testutil.WithUser(testutil.NewJSONRequest(http.MethodPost, path, tt.body), u))
		rec.AssertStatus(t, http.StatusCreated)
		var res models.Resource
		rec.DecodeJSON(t, &res)
		if res.Type != tt.want {
			t.Errorf("%s: type = %q, want %q", tt.body["url"], res.Type, tt.want)
		}
	}

	rec := do(r, testutil.NewAuthenticatedRequest(http.MethodGet, path, u))
	rec.AssertStatus(t, http.StatusOK)
	var list []models.Resource
	rec.DecodeJSON(t, &list)
	if len(list) != 3 {
		t.Errorf("got %d resources, want 3", len(list))
	}
}

func TestUpload_Invalid(t *testing.T) {
	r, fx := newRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := fx.CreateUser(ctx, "Ada", "ada@example.com")
	g := fx.CreateGroup(ctx, "Algo", "CS201", true, u.ID)
	fx.CreateMembership(ctx, g.ID, u.ID)
	path := "/api/groups/" + g.ID.Hex() + "/resources"

	for _, body := range []map[string]string{
		{"name": "", "url": "https://example.com/a.pdf"},
		{"name": "Bad", "url": "ftp://example.com/a.pdf"},
		{"name": "Bad", "url": "javascript:alert(1)"},
	} {
		rec := do(r, testutil.WithUser(testutil.NewJSONRequest(http.MethodPost, path, body), u))
		rec.AssertStatus(t, http.StatusBadRequest)
	}
}

func TestUpload_NonMember(t *testing.T) {
	r, fx := newRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	owner := fx.CreateUser(ctx, "Owner", "owner@example.com")
	u := fx.CreateUser(ctx, "Ada", "ada@example.com")
	g := fx.CreateGroup(ctx, "Algo", "CS201", true, owner.ID)

	body := map[string]string{"name": "Notes", "url": "https://example.com/notes.pdf"}
	rec := do(r, testutil.WithUser(testutil.NewJSONRequest(http.MethodPost, "/api/groups/"+g.ID.Hex()+"/resources", body), u))
	rec.AssertStatus(t, http.StatusForbidden)
}

func TestList_PrivateGroupRequiresMembership(t *testing.T) {
	r, fx := newRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	owner := fx.CreateUser(ctx, "Owner", "owner@example.com")
	u := fx.CreateUser(ctx, "Ada", "ada@example.com")
	g := fx.CreateGroup(ctx, "Study hall", "CS201", false, owner.ID)
	fx.CreateMembership(ctx, g.ID, owner.ID)
	fx.CreateResource(ctx, g.ID, owner.ID, "Notes", "https://example.com/notes.pdf", 1000)
	path := "/api/groups/" + g.ID.Hex() + "/resources"

	rec := do(r, testutil.NewAuthenticatedRequest(http.MethodGet, path, u))
	rec.AssertStatus(t, http.StatusForbidden)

	rec = do(r, testutil.NewAuthenticatedRequest(http.MethodGet, path, owner))
	rec.AssertStatus(t, http.StatusOK)
}
