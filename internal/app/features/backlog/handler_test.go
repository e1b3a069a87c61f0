package backlog_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pulsehq/pulse/internal/app/features/backlog"
	"github.com/pulsehq/pulse/internal/app/store/audit"
	"github.com/pulsehq/pulse/internal/app/system/auditlog"
	"github.com/pulsehq/pulse/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*backlog.Handler, *testutil.Fixtures, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	auditLog := auditlog.New(audit.New(db), logger, auditlog.Config{})
	return backlog.NewHandler(db, auditLog, logger), testutil.NewFixtures(t, db), db
}

func adminRequest(method, url, body string, user testutil.TestUser, params ...string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, url, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, url, nil)
	}
	if len(params) > 0 {
		req = testutil.WithChiURLParams(req, params...)
	}
	return testutil.WithUser(req, user)
}

func TestHandleCreateItem(t *testing.T) {
	handler, _, _ := newTestHandler(t)
	admin := testutil.AdminUser()

	rec := httptest.NewRecorder()
	handler.HandleCreateItem(rec, adminRequest("POST", "/backlog",
		`{"title":"Dark mode","description":"Requested often","category":"feature"}`, admin))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d (body: %s)", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var resp struct {
		ID        string `json:"id"`
		Title     string `json:"title"`
		Status    string `json:"status"`
		SortOrder int    `json:"sort_order"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if resp.Status != "idea" {
		t.Errorf("status: got %q, want %q (default column)", resp.Status, "idea")
	}
	if resp.SortOrder != 0 {
		t.Errorf("sort order: got %d, want 0", resp.SortOrder)
	}

	// The next card in the same column lands below.
	rec = httptest.NewRecorder()
	handler.HandleCreateItem(rec, adminRequest("POST", "/backlog",
		`{"title":"Exports v2","category":"feature"}`, admin))
	if rec.Code != http.StatusCreated {
		t.Fatalf("second create: got %d (body: %s)", rec.Code, rec.Body.String())
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if resp.SortOrder != 1 {
		t.Errorf("second sort order: got %d, want 1", resp.SortOrder)
	}
}

func TestHandleCreateItemValidation(t *testing.T) {
	handler, _, _ := newTestHandler(t)
	admin := testutil.AdminUser()

	for _, tc := range []struct {
		name string
		body string
	}{
		{"missing title", `{"description":"x","category":"feature"}`},
		{"unknown category", `{"title":"x","category":"wishlist"}`},
		{"unknown status", `{"title":"x","category":"feature","status":"someday"}`},
		{"not JSON", `title=x`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.HandleCreateItem(rec, adminRequest("POST", "/backlog", tc.body, admin))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("got %d, want %d (body: %s)", rec.Code, http.StatusBadRequest, rec.Body.String())
			}
		})
	}
}

func TestBacklogAdminOnly(t *testing.T) {
	handler, fixtures, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateOwner(ctx, "Owner", "owner@example.com", "transition_coach")
	user := testutil.AsSessionUser(owner.ID, owner.FullName, owner.Email, owner.Role, "transition_coach")

	rec := httptest.NewRecorder()
	handler.ServeItems(rec, adminRequest("GET", "/backlog", "", user))
	if rec.Code != http.StatusForbidden {
		t.Errorf("owner list: got %d, want %d", rec.Code, http.StatusForbidden)
	}

	rec = httptest.NewRecorder()
	handler.HandleCreateItem(rec, adminRequest("POST", "/backlog",
		`{"title":"x","category":"feature"}`, user))
	if rec.Code != http.StatusForbidden {
		t.Errorf("owner create: got %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestHandleMoveItem(t *testing.T) {
	handler, _, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	admin := testutil.AdminUser()

	item, err := handler.Items.Create(ctx, "Dark mode", "", "idea", "feature")
	if err != nil {
		t.Fatalf("create item: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.HandleMoveItem(rec, adminRequest("POST", "/backlog/"+item.ID.Hex()+"/move",
		`{"status":"in_progress","sort_order":0}`, admin, "id", item.ID.Hex()))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("move: got %d, want %d (body: %s)", rec.Code, http.StatusNoContent, rec.Body.String())
	}

	moved, err := handler.Items.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("reload item: %v", err)
	}
	if moved.Status != "in_progress" {
		t.Errorf("status: got %q, want %q", moved.Status, "in_progress")
	}

	rec = httptest.NewRecorder()
	handler.HandleMoveItem(rec, adminRequest("POST", "/backlog/"+item.ID.Hex()+"/move",
		`{"status":"idea","sort_order":-1}`, admin, "id", item.ID.Hex()))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative sort order: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestReleaseNoteLifecycle(t *testing.T) {
	handler, _, _ := newTestHandler(t)
	admin := testutil.AdminUser()

	rec := httptest.NewRecorder()
	handler.HandleCreateNote(rec, adminRequest("POST", "/backlog/notes",
		`{"version":"1.4.0","title":"Exports","body":"CSV exports for survey data."}`, admin))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create note: got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var note struct {
		ID        string `json:"id"`
		Published bool   `json:"published"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &note); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if note.Published {
		t.Error("new note should be a draft")
	}

	// Drafts are invisible on the public changelog.
	rec = httptest.NewRecorder()
	handler.ServeChangelog(rec, httptest.NewRequest("GET", "/changelog", nil))
	if !strings.Contains(rec.Body.String(), `"notes":[]`) {
		t.Errorf("changelog should be empty, got %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handler.HandlePublishNote(rec, adminRequest("POST", "/backlog/notes/"+note.ID+"/publish",
		`{"published":true}`, admin, "id", note.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("publish: got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var published struct {
		Published   bool    `json:"published"`
		PublishedAt *string `json:"published_at"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &published); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if !published.Published || published.PublishedAt == nil {
		t.Errorf("publish state: got %+v", published)
	}

	// Now it shows up publicly, without a session.
	rec = httptest.NewRecorder()
	handler.ServeChangelog(rec, httptest.NewRequest("GET", "/changelog", nil))
	if !strings.Contains(rec.Body.String(), "1.4.0") {
		t.Errorf("changelog should list the published note, got %s", rec.Body.String())
	}
}

func TestHandleCreateNoteValidation(t *testing.T) {
	handler, _, _ := newTestHandler(t)
	admin := testutil.AdminUser()

	for _, tc := range []struct {
		name string
		body string
	}{
		{"missing version", `{"title":"x","body":"y"}`},
		{"missing title", `{"version":"1.0.0","body":"y"}`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.HandleCreateNote(rec, adminRequest("POST", "/backlog/notes", tc.body, admin))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("got %d, want %d (body: %s)", rec.Code, http.StatusBadRequest, rec.Body.String())
			}
		})
	}
}
