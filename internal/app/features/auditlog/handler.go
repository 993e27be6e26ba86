// internal/app/features/auditlog/handler.go
package auditlog

import (
	uierrors "github.com/dalemusser/studysync/internal/app/features/errors"
	"github.com/dalemusser/studysync/internal/app/service"
	"go.uber.org/zap"
)

// Handler serves audit history to the people it concerns: a caller's own
// events, and a group's activity to its members.
type Handler struct {
	Svc    *service.Service
	ErrLog *uierrors.ErrorLogger
	Log    *zap.Logger
}

func NewHandler(svc *service.Service, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Svc:    svc,
		ErrLog: errLog,
		Log:    logger,
	}
}
