// internal/app/features/backlog/handler.go
package backlog

import (
	uierrors "github.com/pulsehq/pulse/internal/app/features/errors"
	backlogstore "github.com/pulsehq/pulse/internal/app/store/backlog"
	releasenotestore "github.com/pulsehq/pulse/internal/app/store/releasenotes"
	"github.com/pulsehq/pulse/internal/app/system/auditlog"
	"github.com/pulsehq/pulse/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the product backlog board and release notes. Administration
// is admin-only; the published changelog is public.
type Handler struct {
	Items    *backlogstore.Store
	Notes    *releasenotestore.Store
	AuditLog *auditlog.Logger
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
}

func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Items:    backlogstore.New(db),
		Notes:    releasenotestore.New(db),
		AuditLog: audit,
		Log:      logger,
		ErrLog:   uierrors.NewErrorLogger(logger),
	}
}

type itemResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Category    string `json:"category"`
	SortOrder   int    `json:"sort_order"`
}

func toItemResponse(it models.BacklogItem) itemResponse {
	return itemResponse{
		ID:          it.ID.Hex(),
		Title:       it.Title,
		Description: it.Description,
		Status:      it.Status,
		Category:    it.Category,
		SortOrder:   it.SortOrder,
	}
}
