package auth

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/mathmindlabs/mathmind-backend/internal/credentials"
	"github.com/mathmindlabs/mathmind-backend/internal/users"
	"github.com/mathmindlabs/mathmind-backend/pkg/db/models"
	"github.com/mathmindlabs/mathmind-backend/pkg/enums"
	pkgerrors "github.com/mathmindlabs/mathmind-backend/pkg/errors"
)

// GoogleLogin signs in a Google identity. Unknown subjects are
// auto-provisioned: the credential is linked to an existing account
// with the same email, or a fresh account is created without a
// password hash.
func (s *service) GoogleLogin(ctx context.Context, req GoogleLoginRequest) (*AuthResponse, error) {
	subject := strings.TrimSpace(req.GoogleID)
	if subject == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "google id is required")
	}
	email := normalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	cred, err := s.creds.FindByProviderSubject(ctx, enums.AuthProviderGoogle, subject)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup credential")
	}

	var user *models.User
	if cred != nil {
		user, err = s.users.FindByUserID(ctx, cred.UserID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
		}
	} else {
		user, err = s.provisionGoogleUser(ctx, req, email, subject)
		if err != nil {
			return nil, err
		}
	}

	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	now := s.recordLogin(ctx, user, enums.AuthProviderGoogle, subject)
	return s.issueTokens(ctx, user, now)
}

// provisionGoogleUser links the subject to the account owning the
// asserted email, creating that account first when it does not exist.
func (s *service) provisionGoogleUser(ctx context.Context, req GoogleLoginRequest, email, subject string) (*models.User, error) {
	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	var user *models.User
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		user = existing
		if user == nil {
			created, err := s.users.CreateInTx(tx, users.CreateUserDTO{
				Email:        email,
				Name:         req.Name,
				ProfileImage: req.ProfileImage,
			})
			if err != nil {
				return err
			}
			if err := s.emitUserRegistered(ctx, tx, created, enums.AuthProviderGoogle); err != nil {
				return err
			}
			user = created
		}

		_, err := s.creds.CreateInTx(tx, credentials.CreateCredentialDTO{
			UserID:         user.UserID,
			Provider:       enums.AuthProviderGoogle,
			ProviderUserID: subject,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"user_id":  user.UserID,
			"provider": enums.AuthProviderGoogle,
			"linked":   existing != nil,
		})
		s.logg.Info(logCtx, "google identity provisioned")
	}
	return user, nil
}
