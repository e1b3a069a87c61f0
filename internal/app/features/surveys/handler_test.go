package surveys_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pulsehq/pulse/internal/app/features/surveys"
	"github.com/pulsehq/pulse/internal/app/system/indexes"
	"github.com/pulsehq/pulse/internal/domain/models"
	"github.com/pulsehq/pulse/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*surveys.Handler, *testutil.Fixtures, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return surveys.NewHandler(db, zap.NewNop()), testutil.NewFixtures(t, db), db
}

func openRequest(slug string, user testutil.TestUser) *http.Request {
	req := httptest.NewRequest("POST", "/teams/"+slug+"/surveys/sessions", nil)
	req = testutil.WithChiURLParam(req, "slug", slug)
	return testutil.WithUser(req, user)
}

func answerRequest(slug, sessionID, body string, user testutil.TestUser) *http.Request {
	url := fmt.Sprintf("/teams/%s/surveys/sessions/%s/responses", slug, sessionID)
	req := httptest.NewRequest("POST", url, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = testutil.WithChiURLParams(req, "slug", slug, "id", sessionID)
	return testutil.WithUser(req, user)
}

func closeRequest(slug, sessionID string, user testutil.TestUser) *http.Request {
	url := fmt.Sprintf("/teams/%s/surveys/sessions/%s/close", slug, sessionID)
	req := httptest.NewRequest("POST", url, nil)
	req = testutil.WithChiURLParams(req, "slug", slug, "id", sessionID)
	return testutil.WithUser(req, user)
}

func TestServeStatements(t *testing.T) {
	handler, _, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeStatements(rec, httptest.NewRequest("GET", "/teams/alpha/surveys/statements", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}
	var resp struct {
		Statements []string `json:"statements"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if len(resp.Statements) != len(models.SurveyStatements) {
		t.Fatalf("statements: got %d, want %d", len(resp.Statements), len(models.SurveyStatements))
	}
	if resp.Statements[0] != "goal_clarity" {
		t.Errorf("first statement: got %q, want %q", resp.Statements[0], "goal_clarity")
	}
}

func TestHandleOpenSession(t *testing.T) {
	handler, fixtures, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateOwner(ctx, "Owner", "owner@example.com", "scrum_master")
	team := fixtures.CreateTeam(ctx, "Alpha", owner.ID)
	user := testutil.AsSessionUser(owner.ID, owner.FullName, owner.Email, owner.Role, "scrum_master")

	rec := httptest.NewRecorder()
	handler.HandleOpenSession(rec, openRequest(team.Slug, user))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d (body: %s)", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var resp struct {
		ID      string `json:"id"`
		Ordinal int    `json:"ordinal"`
		Status  string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if resp.Ordinal != 1 {
		t.Errorf("ordinal: got %d, want 1", resp.Ordinal)
	}
	if resp.Status != models.SurveyOpen {
		t.Errorf("status: got %q, want %q", resp.Status, models.SurveyOpen)
	}

	// A second open while the first round is still running conflicts.
	rec = httptest.NewRecorder()
	handler.HandleOpenSession(rec, openRequest(team.Slug, user))
	if rec.Code != http.StatusConflict {
		t.Errorf("second open: got %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestHandleOpenSessionAuthorization(t *testing.T) {
	handler, fixtures, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateOwner(ctx, "Owner", "owner@example.com", "")
	team := fixtures.CreateTeam(ctx, "Alpha", owner.ID)

	member := fixtures.CreateMember(ctx, "Member", "member@example.com")
	rec := httptest.NewRecorder()
	handler.HandleOpenSession(rec, openRequest(team.Slug,
		testutil.AsSessionUser(member.ID, member.FullName, member.Email, member.Role, "")))
	if rec.Code != http.StatusForbidden {
		t.Errorf("member open: got %d, want %d", rec.Code, http.StatusForbidden)
	}

	other := fixtures.CreateOwner(ctx, "Other", "other@example.com", "")
	rec = httptest.NewRecorder()
	handler.HandleOpenSession(rec, openRequest(team.Slug,
		testutil.AsSessionUser(other.ID, other.FullName, other.Email, other.Role, "")))
	if rec.Code != http.StatusForbidden {
		t.Errorf("foreign owner open: got %d, want %d", rec.Code, http.StatusForbidden)
	}

	admin := fixtures.CreateAdmin(ctx, "Admin", "admin@example.com")
	rec = httptest.NewRecorder()
	handler.HandleOpenSession(rec, openRequest(team.Slug,
		testutil.AsSessionUser(admin.ID, admin.FullName, admin.Email, admin.Role, "")))
	if rec.Code != http.StatusCreated {
		t.Errorf("admin open: got %d, want %d (body: %s)", rec.Code, http.StatusCreated, rec.Body.String())
	}
}

func TestHandleOpenSessionToolDisabled(t *testing.T) {
	handler, fixtures, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateOwner(ctx, "Owner", "owner@example.com", "")
	team := fixtures.CreateTeam(ctx, "Alpha", owner.ID)
	_, err := db.Collection("teams").UpdateByID(ctx, team.ID,
		bson.M{"$set": bson.M{"tools": []string{models.ToolVibe}}})
	if err != nil {
		t.Fatalf("disable tool: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.HandleOpenSession(rec, openRequest(team.Slug,
		testutil.AsSessionUser(owner.ID, owner.FullName, owner.Email, owner.Role, "")))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleAnswer(t *testing.T) {
	handler, fixtures, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}

	owner := fixtures.CreateOwner(ctx, "Owner", "owner@example.com", "")
	team := fixtures.CreateTeam(ctx, "Alpha", owner.ID)
	member := fixtures.CreateMember(ctx, "Member", "member@example.com")
	user := testutil.AsSessionUser(member.ID, member.FullName, member.Email, member.Role, "")

	session, err := handler.Surveys.OpenSession(ctx, team.ID)
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	sid := session.ID.Hex()

	rec := httptest.NewRecorder()
	handler.HandleAnswer(rec, answerRequest(team.Slug, sid, `{"statement":"planning","score":4}`, user))
	if rec.Code != http.StatusCreated {
		t.Fatalf("answer: got %d, want %d (body: %s)", rec.Code, http.StatusCreated, rec.Body.String())
	}

	// Answering the same statement twice is a conflict.
	rec = httptest.NewRecorder()
	handler.HandleAnswer(rec, answerRequest(team.Slug, sid, `{"statement":"planning","score":5}`, user))
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate answer: got %d, want %d", rec.Code, http.StatusConflict)
	}

	// A different statement from the same member is fine.
	rec = httptest.NewRecorder()
	handler.HandleAnswer(rec, answerRequest(team.Slug, sid, `{"statement":"collaboration","score":3}`, user))
	if rec.Code != http.StatusCreated {
		t.Errorf("second statement: got %d, want %d", rec.Code, http.StatusCreated)
	}
}

func TestHandleAnswerValidation(t *testing.T) {
	handler, fixtures, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateOwner(ctx, "Owner", "owner@example.com", "")
	team := fixtures.CreateTeam(ctx, "Alpha", owner.ID)
	member := fixtures.CreateMember(ctx, "Member", "member@example.com")
	user := testutil.AsSessionUser(member.ID, member.FullName, member.Email, member.Role, "")

	session, err := handler.Surveys.OpenSession(ctx, team.ID)
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	sid := session.ID.Hex()

	cases := []struct {
		name string
		id   string
		body string
		want int
	}{
		{"score too low", sid, `{"statement":"planning","score":0}`, http.StatusBadRequest},
		{"score too high", sid, `{"statement":"planning","score":6}`, http.StatusBadRequest},
		{"unknown statement", sid, `{"statement":"velocity","score":3}`, http.StatusBadRequest},
		{"not JSON", sid, `planning=3`, http.StatusBadRequest},
		{"malformed session id", "not-a-hex-id", `{"statement":"planning","score":3}`, http.StatusBadRequest},
		{"unknown session", primitive.NewObjectID().Hex(), `{"statement":"planning","score":3}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.HandleAnswer(rec, answerRequest(team.Slug, tc.id, tc.body, user))
			if rec.Code != tc.want {
				t.Errorf("got %d, want %d (body: %s)", rec.Code, tc.want, rec.Body.String())
			}
		})
	}
}

func TestHandleAnswerWrongTeamSession(t *testing.T) {
	handler, fixtures, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateOwner(ctx, "Owner", "owner@example.com", "")
	team := fixtures.CreateTeam(ctx, "Alpha", owner.ID)
	other := fixtures.CreateTeam(ctx, "Beta", owner.ID)
	member := fixtures.CreateMember(ctx, "Member", "member@example.com")
	user := testutil.AsSessionUser(member.ID, member.FullName, member.Email, member.Role, "")

	session, err := handler.Surveys.OpenSession(ctx, other.ID)
	if err != nil {
		t.Fatalf("open session: %v", err)
	}

	// A round belonging to another team must not be reachable through this
	// team's URL.
	rec := httptest.NewRecorder()
	handler.HandleAnswer(rec, answerRequest(team.Slug, session.ID.Hex(), `{"statement":"planning","score":3}`, user))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleCloseSession(t *testing.T) {
	handler, fixtures, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateOwner(ctx, "Owner", "owner@example.com", "")
	team := fixtures.CreateTeam(ctx, "Alpha", owner.ID)
	user := testutil.AsSessionUser(owner.ID, owner.FullName, owner.Email, owner.Role, "")

	session, err := handler.Surveys.OpenSession(ctx, team.ID)
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	for i, score := range []int{4, 4, 5} {
		p := fixtures.CreateMember(ctx, "Member", fmt.Sprintf("m%d@example.com", i))
		ref, err := handler.Participants.EnsureRef(ctx, team.ID, p.ID)
		if err != nil {
			t.Fatalf("ensure ref: %v", err)
		}
		_, err = handler.Surveys.AddResponse(ctx, models.SurveyResponse{
			SessionID:      session.ID,
			TeamID:         team.ID,
			ParticipantRef: ref,
			Statement:      "planning",
			Score:          score,
		})
		if err != nil {
			t.Fatalf("add response: %v", err)
		}
	}

	rec := httptest.NewRecorder()
	handler.HandleCloseSession(rec, closeRequest(team.Slug, session.ID.Hex(), user))
	if rec.Code != http.StatusOK {
		t.Fatalf("close: got %d, want %d (body: %s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	var resp struct {
		Status       string   `json:"status"`
		AverageScore *float64 `json:"average_score"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if resp.Status != models.SurveyClosed {
		t.Errorf("status: got %q, want %q", resp.Status, models.SurveyClosed)
	}
	if resp.AverageScore == nil || *resp.AverageScore != 4.3 {
		t.Errorf("average: got %v, want 4.3", resp.AverageScore)
	}

	// Closing twice conflicts.
	rec = httptest.NewRecorder()
	handler.HandleCloseSession(rec, closeRequest(team.Slug, session.ID.Hex(), user))
	if rec.Code != http.StatusConflict {
		t.Errorf("second close: got %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestHandleCloseSessionForbiddenForMembers(t *testing.T) {
	handler, fixtures, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateOwner(ctx, "Owner", "owner@example.com", "")
	team := fixtures.CreateTeam(ctx, "Alpha", owner.ID)
	member := fixtures.CreateMember(ctx, "Member", "member@example.com")

	session, err := handler.Surveys.OpenSession(ctx, team.ID)
	if err != nil {
		t.Fatalf("open session: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.HandleCloseSession(rec, closeRequest(team.Slug, session.ID.Hex(),
		testutil.AsSessionUser(member.ID, member.FullName, member.Email, member.Role, "")))
	if rec.Code != http.StatusForbidden {
		t.Errorf("got %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestServeSessions(t *testing.T) {
	handler, fixtures, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateOwner(ctx, "Owner", "owner@example.com", "")
	team := fixtures.CreateTeam(ctx, "Alpha", owner.ID)
	user := testutil.AsSessionUser(owner.ID, owner.FullName, owner.Email, owner.Role, "")

	avg := 3.2
	fixtures.CreateClosedSession(ctx, team.ID, 1, &avg)
	if _, err := handler.Surveys.OpenSession(ctx, team.ID); err != nil {
		t.Fatalf("open session: %v", err)
	}

	req := httptest.NewRequest("GET", "/teams/"+team.Slug+"/surveys/sessions", nil)
	req = testutil.WithChiURLParam(req, "slug", team.Slug)
	rec := httptest.NewRecorder()
	handler.ServeSessions(rec, testutil.WithUser(req, user))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d (body: %s)", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp struct {
		Sessions []struct {
			Ordinal      int      `json:"ordinal"`
			Status       string   `json:"status"`
			AverageScore *float64 `json:"average_score"`
		} `json:"sessions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if len(resp.Sessions) != 2 {
		t.Fatalf("sessions: got %d, want 2", len(resp.Sessions))
	}
	if resp.Sessions[0].Ordinal != 2 || resp.Sessions[0].Status != models.SurveyOpen {
		t.Errorf("newest session: got ordinal %d status %q, want 2 %q",
			resp.Sessions[0].Ordinal, resp.Sessions[0].Status, models.SurveyOpen)
	}
	if resp.Sessions[1].AverageScore == nil || *resp.Sessions[1].AverageScore != 3.2 {
		t.Errorf("closed session average: got %v, want 3.2", resp.Sessions[1].AverageScore)
	}
}
