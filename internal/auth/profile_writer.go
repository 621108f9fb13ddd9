package auth

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/spec-kit/medmarket-admin/internal/domain"
	"github.com/spec-kit/medmarket-admin/internal/session"
)

// AdminProfileWriter returns the login hook that persists the encrypted
// admin profile record. It runs after the session manager has stored the
// credential and session profile, and writes independently of both.
func AdminProfileWriter(store session.Store, cipher *ProfileCipher, logger *zap.Logger) func(context.Context, *session.LoginReply) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, reply *session.LoginReply) {
		payload, err := json.Marshal(domain.AdminProfile{
			Email:    reply.User.Email,
			Name:     reply.User.Name,
			Subadmin: reply.Subadmin,
		})
		if err != nil {
			logger.Warn("admin profile marshal failed", zap.Error(err))
			return
		}

		blob, err := cipher.Seal(payload)
		if err != nil {
			logger.Warn("admin profile seal failed", zap.Error(err))
			return
		}

		if err := store.SetAdminProfile(ctx, blob); err != nil {
			logger.Warn("admin profile persist failed", zap.Error(err))
		}
	}
}
