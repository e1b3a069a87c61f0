// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureUsers(ctx, db); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := ensureTeams(ctx, db); err != nil {
		problems = append(problems, "teams: "+err.Error())
	}
	if err := ensureParticipants(ctx, db); err != nil {
		problems = append(problems, "participants: "+err.Error())
	}
	if err := ensureCheckins(ctx, db); err != nil {
		problems = append(problems, "checkins: "+err.Error())
	}
	if err := ensureSurveySessions(ctx, db); err != nil {
		problems = append(problems, "survey_sessions: "+err.Error())
	}
	if err := ensureSurveyResponses(ctx, db); err != nil {
		problems = append(problems, "survey_responses: "+err.Error())
	}
	if err := ensureFeedback(ctx, db); err != nil {
		problems = append(problems, "feedback: "+err.Error())
	}
	if err := ensureInsights(ctx, db); err != nil {
		problems = append(problems, "insights: "+err.Error())
	}
	if err := ensureSubscriptions(ctx, db); err != nil {
		problems = append(problems, "subscriptions: "+err.Error())
	}
	if err := ensureBacklog(ctx, db); err != nil {
		problems = append(problems, "backlog_items: "+err.Error())
	}
	if err := ensureReleaseNotes(ctx, db); err != nil {
		problems = append(problems, "release_notes: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameBoolPtr(a, b *bool) bool {
	av := false
	bv := false
	if a != nil {
		av = *a
	}
	if b != nil {
		bv = *b
	}
	return av == bv
}

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 { // E11000 duplicate key error index
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	for _, m := range models {
		var desiredName string
		var desiredUnique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			if m.Options.Unique != nil {
				desiredUnique = m.Options.Unique
			}
		}
		desiredSig := keySig(m.Keys.(bson.D))

		start := time.Now()

		// Load existing indexes and match on key pattern.
		existing := map[string]existingIndex{} // sig -> index
		cur, err := coll.Indexes().List(ctx)
		if err == nil {
			for cur.Next(ctx) {
				var idx existingIndex
				if err := cur.Decode(&idx); err != nil {
					zap.L().Warn("failed to decode existing index",
						zap.String("collection", coll.Name()),
						zap.Error(err))
					continue
				}
				existing[keySig(idx.Key)] = idx
			}
			cur.Close(ctx)
		}

		if ex, ok := existing[desiredSig]; ok {
			if sameBoolPtr(desiredUnique, ex.Unique) {
				// Same keys, same options: reuse regardless of name.
				continue
			}

			// Options mismatch (e.g., upgrading to unique). Drop & recreate.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), desiredName, err))
				continue
			}
			if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
				if isDuplicateKeyErr(err) && desiredUnique != nil && *desiredUnique {
					errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), desiredName))
				} else {
					errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
				}
				continue
			}
			zap.L().Info("index dropped and recreated",
				zap.String("collection", coll.Name()),
				zap.String("name", desiredName),
				zap.String("keys", desiredSig),
				zap.String("took", time.Since(start).String()))
			continue
		}

		// No existing index with the same keys: create it.
		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if isDuplicateKeyErr(err) && desiredUnique != nil && *desiredUnique {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), desiredName))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
			}
			continue
		}
		zap.L().Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", desiredSig),
			zap.Bool("unique", desiredUnique != nil && *desiredUnique),
			zap.String("took", time.Since(start).String()))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                             */
/* -------------------------------------------------------------------------- */

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("users")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Folded email is the login key and must be globally unique.
		{
			Keys:    bson.D{{Key: "email_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_emailci"),
		},
		// Admin user lists: filter by status, sort by folded name.
		{
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "full_name_ci", Value: 1},
				{Key: "_id", Value: 1},
			},
			Options: options.Index().SetName("idx_users_status_fullnameci_id"),
		},
	})
}

func ensureTeams(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("teams")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Slug is the public URL handle.
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_teams_slug"),
		},
		// Owner dashboards: list and count the owner's teams by name.
		{
			Keys: bson.D{
				{Key: "owner_id", Value: 1},
				{Key: "name_ci", Value: 1},
				{Key: "_id", Value: 1},
			},
			Options: options.Index().SetName("idx_teams_owner_nameci_id"),
		},
		// Refresh sweep: active teams with a live owner.
		{
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "owner_id", Value: 1},
			},
			Options: options.Index().SetName("idx_teams_status_owner"),
		},
	})
}

func ensureParticipants(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("participants")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// One anonymous ref per (team, user) pair; EnsureRef races rely on this.
		{
			Keys: bson.D{
				{Key: "team_id", Value: 1},
				{Key: "user_id", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("uniq_participants_team_user"),
		},
		// Detected-size counts.
		{
			Keys:    bson.D{{Key: "team_id", Value: 1}},
			Options: options.Index().SetName("idx_participants_team"),
		},
	})
}

func ensureCheckins(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("checkins")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// One check-in per participant per team per day.
		{
			Keys: bson.D{
				{Key: "team_id", Value: 1},
				{Key: "participant_ref", Value: 1},
				{Key: "entry_date", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("uniq_checkins_team_ref_date"),
		},
		// Window scans and today counts.
		{
			Keys: bson.D{
				{Key: "team_id", Value: 1},
				{Key: "entry_date", Value: 1},
			},
			Options: options.Index().SetName("idx_checkins_team_date"),
		},
	})
}

func ensureSurveySessions(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("survey_sessions")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Latest-ordinal lookups and session history.
		{
			Keys: bson.D{
				{Key: "team_id", Value: 1},
				{Key: "ordinal", Value: -1},
			},
			Options: options.Index().SetName("idx_sessions_team_ordinal"),
		},
		// Open-session existence checks.
		{
			Keys: bson.D{
				{Key: "team_id", Value: 1},
				{Key: "status", Value: 1},
			},
			Options: options.Index().SetName("idx_sessions_team_status"),
		},
	})
}

func ensureSurveyResponses(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("survey_responses")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// One answer per participant per statement per session.
		{
			Keys: bson.D{
				{Key: "session_id", Value: 1},
				{Key: "participant_ref", Value: 1},
				{Key: "statement", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("uniq_responses_session_ref_stmt"),
		},
		// Today counts for participation.
		{
			Keys: bson.D{
				{Key: "team_id", Value: 1},
				{Key: "created_at", Value: 1},
			},
			Options: options.Index().SetName("idx_responses_team_created"),
		},
	})
}

func ensureFeedback(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("feedback")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Recipient inbox, newest first.
		{
			Keys: bson.D{
				{Key: "recipient_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_feedback_recipient_created"),
		},
		{
			Keys:    bson.D{{Key: "team_id", Value: 1}},
			Options: options.Index().SetName("idx_feedback_team"),
		},
	})
}

func ensureInsights(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("insights")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "team_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_insights_team_created"),
		},
	})
}

func ensureSubscriptions(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("subscriptions")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Webhook lookups by the reference handed to the payment provider.
		{
			Keys:    bson.D{{Key: "provider_ref", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_subs_providerref"),
		},
		{
			Keys: bson.D{
				{Key: "owner_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_subs_owner_created"),
		},
		// Stale-pending cleanup scans.
		{
			Keys: bson.D{
				{Key: "state", Value: 1},
				{Key: "created_at", Value: 1},
			},
			Options: options.Index().SetName("idx_subs_state_created"),
		},
	})
}

func ensureBacklog(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("backlog_items")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Board columns in sort order.
		{
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "sort_order", Value: 1},
			},
			Options: options.Index().SetName("idx_backlog_status_order"),
		},
	})
}

func ensureReleaseNotes(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("release_notes")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Public changelog: published notes, newest first.
		{
			Keys: bson.D{
				{Key: "published", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_notes_published_created"),
		},
	})
}
