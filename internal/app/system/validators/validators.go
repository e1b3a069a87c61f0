// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	// Accounts and team structure
	ensure("users", usersSchema())
	ensure("teams", teamsSchema())
	ensure("participants", participantsSchema())

	// Tool data
	ensure("checkins", checkinsSchema())
	ensure("survey_sessions", surveySessionsSchema())
	ensure("survey_responses", surveyResponsesSchema())
	ensure("feedback", feedbackSchema())

	// Billing and product administration
	ensure("subscriptions", subscriptionsSchema())
	ensure("backlog_items", backlogItemsSchema())
	ensure("release_notes", releaseNotesSchema())

	// These don't strictly need validators; we still ensure the collections exist.
	ensure("insights", nil)
	ensure("audit_events", nil)
	ensure("oauth_states", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"full_name", "email", "role"},
			"properties": bson.M{
				"full_name":    bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"full_name_ci": bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"email":        bson.M{"bsonType": "string", "minLength": 3},
				"email_ci":     bson.M{"bsonType": "string", "minLength": 3},
				"role":         bson.M{"enum": bson.A{"admin", "owner", "member"}},
				"status":       bson.M{"enum": bson.A{"active", "disabled"}},
				"auth_method":  bson.M{"enum": bson.A{"password", "google"}},
				"tier":         bson.M{"enum": bson.A{"free", "scrum_master", "agile_coach", "transition_coach"}},
			},
		},
	}
}

func teamsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"slug", "name", "name_ci", "tools", "status"},
			"properties": bson.M{
				"slug":    bson.M{"bsonType": "string", "minLength": 1},
				"name":    bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"name_ci": bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"owner_id": bson.M{"bsonType": "objectId"},
				"tools": bson.M{
					"bsonType": "array",
					"items":    bson.M{"enum": bson.A{"vibe", "wow"}},
				},
				"expected_team_size": bson.M{"bsonType": "int", "minimum": 0},
				"status":             bson.M{"enum": bson.A{"active", "archived"}},
			},
		},
	}
}

func participantsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"team_id", "user_id", "participant_ref"},
			"properties": bson.M{
				"team_id":         bson.M{"bsonType": "objectId"},
				"user_id":         bson.M{"bsonType": "objectId"},
				"participant_ref": bson.M{"bsonType": "string", "minLength": 1},
				"created_at":      bson.M{"bsonType": "date"},
			},
		},
	}
}

func checkinsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"team_id", "participant_ref", "score", "entry_date"},
			"properties": bson.M{
				"team_id":         bson.M{"bsonType": "objectId"},
				"participant_ref": bson.M{"bsonType": "string", "minLength": 1},
				"score":           bson.M{"bsonType": "int", "minimum": 1, "maximum": 5},
				"entry_date":      bson.M{"bsonType": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"},
				"created_at":      bson.M{"bsonType": "date"},
			},
		},
	}
}

func surveySessionsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"team_id", "ordinal", "status"},
			"properties": bson.M{
				"team_id":   bson.M{"bsonType": "objectId"},
				"ordinal":   bson.M{"bsonType": "int", "minimum": 1},
				"status":    bson.M{"enum": bson.A{"open", "closed"}},
				"opened_at": bson.M{"bsonType": "date"},
			},
		},
	}
}

func surveyResponsesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"session_id", "team_id", "participant_ref", "statement", "score"},
			"properties": bson.M{
				"session_id":      bson.M{"bsonType": "objectId"},
				"team_id":         bson.M{"bsonType": "objectId"},
				"participant_ref": bson.M{"bsonType": "string", "minLength": 1},
				"statement":       bson.M{"bsonType": "string", "minLength": 1},
				"score":           bson.M{"bsonType": "int", "minimum": 1, "maximum": 5},
				"created_at":      bson.M{"bsonType": "date"},
			},
		},
	}
}

func feedbackSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"team_id", "recipient_id", "participant_ref", "body"},
			"properties": bson.M{
				"team_id":         bson.M{"bsonType": "objectId"},
				"recipient_id":    bson.M{"bsonType": "objectId"},
				"participant_ref": bson.M{"bsonType": "string", "minLength": 1},
				"body":            bson.M{"bsonType": "string", "minLength": 1},
				"created_at":      bson.M{"bsonType": "date"},
			},
		},
	}
}

func subscriptionsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"owner_id", "target_tier", "state", "provider_ref"},
			"properties": bson.M{
				"owner_id":     bson.M{"bsonType": "objectId"},
				"target_tier":  bson.M{"enum": bson.A{"free", "scrum_master", "agile_coach", "transition_coach"}},
				"state":        bson.M{"enum": bson.A{"pending", "paid", "failed", "canceled"}},
				"provider_ref": bson.M{"bsonType": "string", "minLength": 1},
				"created_at":   bson.M{"bsonType": "date"},
			},
		},
	}
}

func backlogItemsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"title", "status", "category", "sort_order"},
			"properties": bson.M{
				"title":      bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"status":     bson.M{"enum": bson.A{"idea", "planned", "in_progress", "done"}},
				"category":   bson.M{"enum": bson.A{"feature", "bug", "chore"}},
				"sort_order": bson.M{"bsonType": "int", "minimum": 0},
			},
		},
	}
}

func releaseNotesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"version", "title", "published"},
			"properties": bson.M{
				"version":   bson.M{"bsonType": "string", "minLength": 1},
				"title":     bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"body":      bson.M{"bsonType": "string"},
				"published": bson.M{"bsonType": "bool"},
			},
		},
	}
}
