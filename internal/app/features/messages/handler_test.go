package messages_test

import (
	"net/http"
	"strings"
	"testing"

	uierrors "github.com/dalemusser/studysync/internal/app/features/errors"
	"github.com/dalemusser/studysync/internal/app/features/messages"
	"github.com/dalemusser/studysync/internal/app/service"
	"github.com/dalemusser/studysync/internal/domain/models"
	"github.com/dalemusser/studysync/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func newRouter(t *testing.T) (chi.Router, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupIndexedDB(t)
	logger := zap.NewNop()
	svc := service.New(service.Deps{DB: db, Log: logger})
	h := messages.NewHandler(svc, uierrors.NewErrorLogger(logger), logger)

	r := chi.NewRouter()
	r.Mount("/api/groups/{id}/messages", messages.Routes(h, testutil.NewSessionManager(t), nil))
	return r, testutil.NewFixtures(t, db)
}

func do(r chi.Router, req *http.Request) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestSend_MemberThenList(t *testing.T) {
	r, fx := newRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := fx.CreateUser(ctx, "Ada", "ada@example.com")
	g := fx.CreateGroup(ctx, "Algo", "CS201", true, u.ID)
	fx.CreateMembership(ctx, g.ID, u.ID)
	path := "/api/groups/" + g.ID.Hex() + "/messages"

	for _, text := range []string{"first", "second"} {
		rec := do(r, testutil.WithUser(testutil.NewJSONRequest(http.MethodPost, path, map[string]string{"content": text}), u))
		rec.AssertStatus(t, http.StatusCreated)
	}

	rec := do(r, testutil.NewAuthenticatedRequest(http.MethodGet, path, u))
	rec.AssertStatus(t, http.StatusOK)
	var msgs []models.Message
	rec.DecodeJSON(t, &msgs)
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].Content != "second" {
		t.Errorf("newest message = %q, want second", msgs[0].Content)
	}

	rec = do(r, testutil.NewAuthenticatedRequest(http.MethodGet, path+"?limit=1", u))
	msgs = nil
	rec.DecodeJSON(t, &msgs)
	if len(msgs) != 1 {
		t.Errorf("limit=1 returned %d", len(msgs))
	}
}

func TestSend_NonMemberWritesNothing(t *testing.T) {
	r, fx := newRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	owner := fx.CreateUser(ctx, "Owner", "owner@example.com")
	u := fx.CreateUser(ctx, "Ada", "ada@example.com")
	g := fx.CreateGroup(ctx, "Algo", "CS201", true, owner.ID)

	rec := do(r, testutil.WithUser(testutil.NewJSONRequest(http.MethodPost, "/api/groups/"+g.ID.Hex()+"/messages", map[string]string{"content": "hi"}), u))
	rec.AssertStatus(t, http.StatusForbidden)

	n, err := fx.DB().Collection("messages").CountDocuments(ctx, bson.M{"group_id": g.ID})
	if err != nil || n != 0 {
		t.Errorf("messages = %d (%v), want 0", n, err)
	}
}

func TestSend_Invalid(t *testing.T) {
	r, fx := newRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := fx.CreateUser(ctx, "Ada", "ada@example.com")
	g := fx.CreateGroup(ctx, "Algo", "CS201", true, u.ID)
	fx.CreateMembership(ctx, g.ID, u.ID)
	path := "/api/groups/" + g.ID.Hex() + "/messages"

	for _, content := range []string{"   ", strings.Repeat("a", service.MaxMessageLength+1)} {
		rec := do(r, testutil.WithUser(testutil.NewJSONRequest(http.MethodPost, path, map[string]string{"content": content}), u))
		rec.AssertStatus(t, http.StatusBadRequest)
	}
}

func TestList_MissingGroup(t *testing.T) {
	r, fx := newRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := fx.CreateUser(ctx, "Ada", "ada@example.com")

	rec := do(r, testutil.NewAuthenticatedRequest(http.MethodGet, "/api/groups/000000000000000000000000/messages", u))
	rec.AssertStatus(t, http.StatusNotFound)

	rec = do(r, testutil.NewAuthenticatedRequest(http.MethodGet, "/api/groups/nope/messages", u))
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestList_PrivateGroupRequiresMembership(t *testing.T) {
	r, fx := newRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	owner := fx.CreateUser(ctx, "Owner", "owner@example.com")
	u := fx.CreateUser(ctx, "Ada", "ada@example.com")
	g := fx.CreateGroup(ctx, "Study hall", "CS201", false, owner.ID)
	fx.CreateMembership(ctx, g.ID, owner.ID)
	fx.CreateMessage(ctx, g.ID, owner.ID, "members only", 1000)
	path := "/api/groups/" + g.ID.Hex() + "/messages"

	rec := do(r, testutil.NewAuthenticatedRequest(http.MethodGet, path, u))
	rec.AssertStatus(t, http.StatusForbidden)

	rec = do(r, testutil.NewAuthenticatedRequest(http.MethodGet, path, owner))
	rec.AssertStatus(t, http.StatusOK)
}
