package credentials

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mathmindlabs/mathmind-backend/pkg/db"
	"github.com/mathmindlabs/mathmind-backend/pkg/db/models"
	"github.com/mathmindlabs/mathmind-backend/pkg/enums"
	pkgerrors "github.com/mathmindlabs/mathmind-backend/pkg/errors"
)

// CreateCredentialDTO holds the fields needed to link an external
// identity to an internal user.
type CreateCredentialDTO struct {
	UserID         int64
	Provider       enums.AuthProvider
	ProviderUserID string
}

// Repository persists credential links. A credential is the only path
// from an external identity (provider plus subject) to a user_id.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateInTx inserts a credential link inside the caller's transaction.
func (r *Repository) CreateInTx(tx *gorm.DB, dto CreateCredentialDTO) (*models.AuthCredential, error) {
	cred := &models.AuthCredential{
		UserID:         dto.UserID,
		Provider:       dto.Provider,
		ProviderUserID: dto.ProviderUserID,
	}
	if err := tx.Create(cred).Error; err != nil {
		if db.IsUniqueViolation(err, "ux_credentials_provider_subject", "auth_credentials.provider") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "identity is already linked to an account")
		}
		return nil, err
	}
	return cred, nil
}

// FindByProviderSubject resolves a credential by provider and the id
// the provider knows the user by.
func (r *Repository) FindByProviderSubject(ctx context.Context, provider enums.AuthProvider, providerUserID string) (*models.AuthCredential, error) {
	var cred models.AuthCredential
	err := r.db.WithContext(ctx).
		Where("provider = ? AND provider_user_id = ?", provider, providerUserID).
		First(&cred).Error
	if err != nil {
		return nil, err
	}
	return &cred, nil
}

// ListByUserID returns every credential linked to the user.
func (r *Repository) ListByUserID(ctx context.Context, userID int64) ([]models.AuthCredential, error) {
	var creds []models.AuthCredential
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&creds).Error
	if err != nil {
		return nil, err
	}
	return creds, nil
}

// UpdateLastLogin stamps the credential that vouched for a sign-in.
func (r *Repository) UpdateLastLogin(ctx context.Context, provider enums.AuthProvider, providerUserID string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.AuthCredential{}).
		Where("provider = ? AND provider_user_id = ?", provider, providerUserID).
		UpdateColumn("last_login_at", at).Error
}

// DeleteByUserID removes every credential linked to the user. Used by
// the purge job for stores that do not enforce the foreign key cascade.
func (r *Repository) DeleteByUserID(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.AuthCredential{}).Error
}
