package auth

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mathmindlabs/mathmind-backend/internal/credentials"
	"github.com/mathmindlabs/mathmind-backend/internal/users"
	"github.com/mathmindlabs/mathmind-backend/pkg/db/models"
	"github.com/mathmindlabs/mathmind-backend/pkg/enums"
	pkgerrors "github.com/mathmindlabs/mathmind-backend/pkg/errors"
	"github.com/mathmindlabs/mathmind-backend/pkg/outbox"
	"github.com/mathmindlabs/mathmind-backend/pkg/outbox/payloads"
	"github.com/mathmindlabs/mathmind-backend/pkg/security"
)

// Register provisions a user, its email credential link, and the
// user.registered outbox event in one transaction, then signs the new
// user in.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	hash, err := security.HashPassword(req.Password, s.pwCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid password")
	}

	var user *models.User
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		created, err := s.users.CreateInTx(tx, users.CreateUserDTO{
			Email:        email,
			PasswordHash: &hash,
			Name:         req.Name,
			ProfileImage: req.ProfileImage,
		})
		if err != nil {
			return err
		}

		_, err = s.creds.CreateInTx(tx, credentials.CreateCredentialDTO{
			UserID:         created.UserID,
			Provider:       enums.AuthProviderEmail,
			ProviderUserID: email,
		})
		if err != nil {
			return err
		}

		if err := s.emitUserRegistered(ctx, tx, created, enums.AuthProviderEmail); err != nil {
			return err
		}

		user = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"user_id":  user.UserID,
			"provider": enums.AuthProviderEmail,
		})
		s.logg.Info(logCtx, "user registered")
	}

	return s.issueTokens(ctx, user, time.Now().UTC())
}

func (s *service) emitUserRegistered(ctx context.Context, tx *gorm.DB, user *models.User, provider enums.AuthProvider) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventUserRegistered,
		AggregateType: enums.AggregateUser,
		AggregateID:   formatUserID(user.UserID),
		Actor:         &outbox.ActorRef{UserID: user.UserID, Email: user.Email},
		Data: payloads.UserRegisteredEvent{
			UserID:       user.UserID,
			Email:        user.Email,
			Name:         user.Name,
			Provider:     provider.String(),
			RegisteredAt: time.Now().UTC(),
		},
	})
}
