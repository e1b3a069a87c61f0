// internal/app/store/surveys/surveystore.go
package surveystore

import (
	"context"
	"errors"
	"time"

	"github.com/pulsehq/pulse/internal/domain/metrics"
	"github.com/pulsehq/pulse/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	sessions  *mongo.Collection
	responses *mongo.Collection
}

var (
	ErrSessionOpen      = errors.New("team already has an open survey session")
	ErrSessionNotOpen   = errors.New("survey session is not open")
	ErrDuplicateAnswer  = errors.New("statement already answered in this session")
	ErrUnknownStatement = errors.New("unknown survey statement")
)

func New(db *mongo.Database) *Store {
	return &Store{
		sessions:  db.Collection("survey_sessions"),
		responses: db.Collection("survey_responses"),
	}
}

// OpenSession starts a new survey round for a team. Only one session may be
// open per team; the ordinal continues the team's sequence.
func (s *Store) OpenSession(ctx context.Context, teamID primitive.ObjectID) (models.SurveySession, error) {
	n, err := s.sessions.CountDocuments(ctx, bson.M{"team_id": teamID, "status": models.SurveyOpen})
	if err != nil {
		return models.SurveySession{}, err
	}
	if n > 0 {
		return models.SurveySession{}, ErrSessionOpen
	}

	last, err := s.latestOrdinal(ctx, teamID)
	if err != nil {
		return models.SurveySession{}, err
	}

	sess := models.SurveySession{
		ID:       primitive.NewObjectID(),
		TeamID:   teamID,
		Ordinal:  last + 1,
		Status:   models.SurveyOpen,
		OpenedAt: time.Now().UTC(),
	}
	if _, err := s.sessions.InsertOne(ctx, sess); err != nil {
		return models.SurveySession{}, err
	}
	return sess, nil
}

func (s *Store) latestOrdinal(ctx context.Context, teamID primitive.ObjectID) (int, error) {
	var last models.SurveySession
	err := s.sessions.FindOne(ctx, bson.M{"team_id": teamID},
		options.FindOne().SetSort(bson.D{{Key: "ordinal", Value: -1}})).Decode(&last)
	if err == mongo.ErrNoDocuments {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return last.Ordinal, nil
}

func (s *Store) GetSession(ctx context.Context, id primitive.ObjectID) (models.SurveySession, error) {
	var sess models.SurveySession
	if err := s.sessions.FindOne(ctx, bson.M{"_id": id}).Decode(&sess); err != nil {
		return models.SurveySession{}, err
	}
	return sess, nil
}

// AddResponse records one statement score in an open session. The unique
// index on (session_id, participant_ref, statement) rejects re-answers.
// Score range validation happens at the handler; statement membership is
// checked here against the fixed statement set.
func (s *Store) AddResponse(ctx context.Context, r models.SurveyResponse) (models.SurveyResponse, error) {
	valid := false
	for _, st := range models.SurveyStatements {
		if st == r.Statement {
			valid = true
			break
		}
	}
	if !valid {
		return models.SurveyResponse{}, ErrUnknownStatement
	}

	sess, err := s.GetSession(ctx, r.SessionID)
	if err != nil {
		return models.SurveyResponse{}, err
	}
	if sess.Status != models.SurveyOpen {
		return models.SurveyResponse{}, ErrSessionNotOpen
	}

	r.ID = primitive.NewObjectID()
	r.TeamID = sess.TeamID
	r.CreatedAt = time.Now().UTC()

	if _, err := s.responses.InsertOne(ctx, r); err != nil {
		if wafflemongo.IsDup(err) {
			return models.SurveyResponse{}, ErrDuplicateAnswer
		}
		return models.SurveyResponse{}, err
	}
	return r, nil
}

// CloseSession freezes a session: it computes the session average from all
// collected responses and stores it on the session document. Closing an
// already-closed session is an error.
func (s *Store) CloseSession(ctx context.Context, id primitive.ObjectID) (models.SurveySession, error) {
	sess, err := s.GetSession(ctx, id)
	if err != nil {
		return models.SurveySession{}, err
	}
	if sess.Status != models.SurveyOpen {
		return models.SurveySession{}, ErrSessionNotOpen
	}

	scores, err := s.SessionScores(ctx, id)
	if err != nil {
		return models.SurveySession{}, err
	}

	now := time.Now().UTC()
	sess.Status = models.SurveyClosed
	sess.AverageScore = metrics.AggregateScores(scores)
	sess.ClosedAt = &now

	_, err = s.sessions.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"status":        sess.Status,
		"average_score": sess.AverageScore,
		"closed_at":     sess.ClosedAt,
	}})
	if err != nil {
		return models.SurveySession{}, err
	}
	return sess, nil
}

// SessionScores returns every statement score collected in a session.
func (s *Store) SessionScores(ctx context.Context, sessionID primitive.ObjectID) ([]int, error) {
	cur, err := s.responses.Find(ctx, bson.M{"session_id": sessionID},
		options.Find().SetProjection(bson.M{"score": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []int
	for cur.Next(ctx) {
		var doc struct {
			Score int `bson:"score"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.Score)
	}
	return out, cur.Err()
}

// ListSessions returns a team's sessions, newest round first.
func (s *Store) ListSessions(ctx context.Context, teamID primitive.ObjectID) ([]models.SurveySession, error) {
	cur, err := s.sessions.Find(ctx, bson.M{"team_id": teamID},
		options.Find().SetSort(bson.D{{Key: "ordinal", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.SurveySession
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// LatestClosedAverages returns the averages of the two most recent closed
// sessions: the current comparison window and the previous one. Either or
// both may be nil when the team lacks closed sessions or a session closed
// with no responses.
func (s *Store) LatestClosedAverages(ctx context.Context, teamID primitive.ObjectID) (current, previous *float64, err error) {
	cur, err := s.sessions.Find(ctx,
		bson.M{"team_id": teamID, "status": models.SurveyClosed},
		options.Find().SetSort(bson.D{{Key: "ordinal", Value: -1}}).SetLimit(2))
	if err != nil {
		return nil, nil, err
	}
	defer cur.Close(ctx)

	var sessions []models.SurveySession
	if err := cur.All(ctx, &sessions); err != nil {
		return nil, nil, err
	}
	if len(sessions) > 0 {
		current = sessions[0].AverageScore
	}
	if len(sessions) > 1 {
		previous = sessions[1].AverageScore
	}
	return current, previous, nil
}

// ListResponses returns every response for a team, newest first.
// Used by the export endpoints.
func (s *Store) ListResponses(ctx context.Context, teamID primitive.ObjectID) ([]models.SurveyResponse, error) {
	cur, err := s.responses.Find(ctx, bson.M{"team_id": teamID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.SurveyResponse
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountResponsesOnDate returns the number of responses a team produced on
// one UTC date. Feeds today-entries for the WoW participation ratio.
func (s *Store) CountResponsesOnDate(ctx context.Context, teamID primitive.ObjectID, dayStart, dayEnd time.Time) (int64, error) {
	return s.responses.CountDocuments(ctx, bson.M{
		"team_id":    teamID,
		"created_at": bson.M{"$gte": dayStart, "$lt": dayEnd},
	})
}

// DeleteByTeam removes all sessions and responses for a team.
func (s *Store) DeleteByTeam(ctx context.Context, teamID primitive.ObjectID) (int64, error) {
	resSess, err := s.sessions.DeleteMany(ctx, bson.M{"team_id": teamID})
	if err != nil {
		return 0, err
	}
	resResp, err := s.responses.DeleteMany(ctx, bson.M{"team_id": teamID})
	if err != nil {
		return resSess.DeletedCount, err
	}
	return resSess.DeletedCount + resResp.DeletedCount, nil
}
