// internal/app/features/groups/handler.go
package groups

import (
	uierrors "github.com/dalemusser/studysync/internal/app/features/errors"
	"github.com/dalemusser/studysync/internal/app/service"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for the groups feature.
// List, create, membership and recommendation handlers all go through the
// service, which owns validation and change notifications.
type Handler struct {
	Svc    *service.Service
	ErrLog *uierrors.ErrorLogger
	Log    *zap.Logger
}

// NewHandler constructs a new groups Handler. It is called from
// bootstrap.BuildHandler once the service is wired.
func NewHandler(svc *service.Service, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Svc:    svc,
		ErrLog: errLog,
		Log:    logger,
	}
}
