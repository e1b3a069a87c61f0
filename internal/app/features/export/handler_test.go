package export_test

import (
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pulsehq/pulse/internal/app/features/export"
	checkinstore "github.com/pulsehq/pulse/internal/app/store/checkins"
	"github.com/pulsehq/pulse/internal/domain/models"
	"github.com/pulsehq/pulse/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*export.Handler, *testutil.Fixtures, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return export.NewHandler(db, zap.NewNop()), testutil.NewFixtures(t, db), db
}

func exportRequest(slug, path, rawQuery string, user testutil.TestUser) *http.Request {
	url := "/teams/" + slug + "/export/" + path
	if rawQuery != "" {
		url += "?" + rawQuery
	}
	req := httptest.NewRequest("GET", url, nil)
	req = testutil.WithChiURLParam(req, "slug", slug)
	return testutil.WithUser(req, user)
}

func TestServeCheckinsCSV(t *testing.T) {
	handler, fixtures, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateOwner(ctx, "Owner", "owner@example.com", "")
	team := fixtures.CreateTeam(ctx, "Alpha", owner.ID)
	today := checkinstore.DateKey(time.Now().UTC())
	fixtures.CreateCheckIn(ctx, team.ID, "ref-1", 4, today)
	fixtures.CreateCheckIn(ctx, team.ID, "ref-2", 2, today)

	user := testutil.AsSessionUser(owner.ID, owner.FullName, owner.Email, owner.Role, "")
	rec := httptest.NewRecorder()
	handler.ServeCheckins(rec, exportRequest(team.Slug, "checkins", "", user))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d (body: %s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("content type: got %q, want text/csv", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "alpha_checkins_") {
		t.Errorf("content disposition: got %q", cd)
	}

	body := rec.Body.String()
	if !strings.HasPrefix(body, "\xEF\xBB\xBF") {
		t.Error("CSV export is missing the UTF-8 BOM")
	}
	if !strings.Contains(body, "\r\n") {
		t.Error("CSV export should use CRLF line endings")
	}

	records, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(body, "\xEF\xBB\xBF"))).ReadAll()
	if err != nil {
		t.Fatalf("parse CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("rows: got %d, want header + 2", len(records))
	}
	if got := strings.Join(records[0], ","); got != "participant_ref,entry_date,score,created_at" {
		t.Errorf("header: got %q", got)
	}
}

func TestServeCheckinsJSON(t *testing.T) {
	handler, fixtures, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateOwner(ctx, "Owner", "owner@example.com", "")
	team := fixtures.CreateTeam(ctx, "Alpha", owner.ID)
	fixtures.CreateCheckIn(ctx, team.ID, "ref-1", 5, checkinstore.DateKey(time.Now().UTC()))

	user := testutil.AsSessionUser(owner.ID, owner.FullName, owner.Email, owner.Role, "")
	rec := httptest.NewRecorder()
	handler.ServeCheckins(rec, exportRequest(team.Slug, "checkins", "format=json", user))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("content type: got %q, want application/json", ct)
	}

	var resp struct {
		Team     string `json:"team"`
		Checkins []struct {
			ParticipantRef string `json:"participant_ref"`
			Score          int    `json:"score"`
		} `json:"checkins"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if resp.Team != "alpha" {
		t.Errorf("team: got %q, want %q", resp.Team, "alpha")
	}
	if len(resp.Checkins) != 1 || resp.Checkins[0].Score != 5 {
		t.Errorf("checkins: got %+v", resp.Checkins)
	}
}

func TestServeCheckinsDateRange(t *testing.T) {
	handler, fixtures, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateOwner(ctx, "Owner", "owner@example.com", "")
	team := fixtures.CreateTeam(ctx, "Alpha", owner.ID)
	fixtures.CreateCheckIn(ctx, team.ID, "ref-1", 3, "2026-02-01")
	fixtures.CreateCheckIn(ctx, team.ID, "ref-1", 4, "2026-02-10")
	fixtures.CreateCheckIn(ctx, team.ID, "ref-1", 5, "2026-02-20")

	user := testutil.AsSessionUser(owner.ID, owner.FullName, owner.Email, owner.Role, "")
	rec := httptest.NewRecorder()
	handler.ServeCheckins(rec, exportRequest(team.Slug, "checkins",
		"start=2026-02-05&end=2026-02-10&format=json", user))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}

	var resp struct {
		Checkins []struct {
			EntryDate string `json:"entry_date"`
		} `json:"checkins"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	// The end date is inclusive, so only the 02-10 entry qualifies.
	if len(resp.Checkins) != 1 || resp.Checkins[0].EntryDate != "2026-02-10" {
		t.Errorf("checkins: got %+v, want only 2026-02-10", resp.Checkins)
	}
}

func TestServeSurveysCSV(t *testing.T) {
	handler, fixtures, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateOwner(ctx, "Owner", "owner@example.com", "")
	team := fixtures.CreateTeam(ctx, "Alpha", owner.ID)

	session, err := handler.Surveys.OpenSession(ctx, team.ID)
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	_, err = handler.Surveys.AddResponse(ctx, models.SurveyResponse{
		SessionID:      session.ID,
		TeamID:         team.ID,
		ParticipantRef: "ref-1",
		Statement:      "planning",
		Score:          4,
	})
	if err != nil {
		t.Fatalf("add response: %v", err)
	}

	user := testutil.AsSessionUser(owner.ID, owner.FullName, owner.Email, owner.Role, "")
	rec := httptest.NewRecorder()
	handler.ServeSurveys(rec, exportRequest(team.Slug, "surveys", "", user))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d (body: %s)", rec.Code, http.StatusOK, rec.Body.String())
	}

	body := strings.TrimPrefix(rec.Body.String(), "\xEF\xBB\xBF")
	records, err := csv.NewReader(strings.NewReader(body)).ReadAll()
	if err != nil {
		t.Fatalf("parse CSV: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("rows: got %d, want header + 1", len(records))
	}
	if records[1][2] != "planning" || records[1][3] != "4" {
		t.Errorf("row: got %v", records[1])
	}
}

func TestExportAccessControl(t *testing.T) {
	handler, fixtures, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateOwner(ctx, "Owner", "owner@example.com", "")
	team := fixtures.CreateTeam(ctx, "Alpha", owner.ID)
	member := fixtures.CreateMember(ctx, "Member", "member@example.com")
	fixtures.CreateParticipant(ctx, team.ID, member.ID)

	// Raw exports expose per-ref entries, so participating members are
	// still rejected.
	rec := httptest.NewRecorder()
	handler.ServeCheckins(rec, exportRequest(team.Slug, "checkins", "",
		testutil.AsSessionUser(member.ID, member.FullName, member.Email, member.Role, "")))
	if rec.Code != http.StatusForbidden {
		t.Errorf("member: got %d, want %d", rec.Code, http.StatusForbidden)
	}

	rec = httptest.NewRecorder()
	handler.ServeCheckins(rec, exportRequest("no-such-team", "checkins", "",
		testutil.AsSessionUser(owner.ID, owner.FullName, owner.Email, owner.Role, "")))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown team: got %d, want %d", rec.Code, http.StatusNotFound)
	}
}
