package users

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mathmindlabs/mathmind-backend/pkg/db"
	"github.com/mathmindlabs/mathmind-backend/pkg/db/models"
	pkgerrors "github.com/mathmindlabs/mathmind-backend/pkg/errors"
)

// maxAllocationAttempts bounds the id allocation retry loop. Two
// concurrent registrations can race on the same candidate user_id; the
// unique index rejects the loser, who re-reads the max and tries again.
const maxAllocationAttempts = 5

const allocationSavepoint = "sp_user_alloc"

// Repository exposes user-related persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateInTx inserts a new user inside the caller's transaction,
// allocating the next sequential user_id. The candidate id is
// max(user_id)+1; collisions with concurrent inserts surface as unique
// violations on ux_users_user_id and are retried under a savepoint so
// the surrounding transaction stays usable.
func (r *Repository) CreateInTx(tx *gorm.DB, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()

	for attempt := 0; attempt < maxAllocationAttempts; attempt++ {
		nextID, err := nextUserID(tx)
		if err != nil {
			return nil, fmt.Errorf("allocating user id: %w", err)
		}
		user.UserID = nextID

		if err := tx.SavePoint(allocationSavepoint).Error; err != nil {
			return nil, err
		}

		err = tx.Create(user).Error
		if err == nil {
			return user, nil
		}

		if rbErr := tx.RollbackTo(allocationSavepoint).Error; rbErr != nil {
			return nil, rbErr
		}

		if db.IsUniqueViolation(err, "ux_users_email", "users.email") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email is already registered")
		}
		if !db.IsUniqueViolation(err, "ux_users_user_id", "users.user_id") {
			return nil, err
		}
	}

	return nil, pkgerrors.New(pkgerrors.CodeConflict, "could not allocate a user id, please retry")
}

// Create inserts a new user in its own transaction.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	var user *models.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, err := r.CreateInTx(tx, dto)
		if err != nil {
			return err
		}
		user = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func nextUserID(tx *gorm.DB) (int64, error) {
	var maxID int64
	err := tx.Model(&models.User{}).
		Select("COALESCE(MAX(user_id), 0)").
		Scan(&maxID).Error
	if err != nil {
		return 0, err
	}
	return maxID + 1, nil
}

// FindByUserID loads a user by their public sequential id.
func (r *Repository) FindByUserID(ctx context.Context, userID int64) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user by their storage key.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail retrieves the user matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateLastLogin refreshes the user's last_login_at timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("user_id = ?", userID).
		UpdateColumn("last_login_at", at).Error
}

// ListInactiveSince returns active users whose last sign-in (or account
// creation, for users who never signed in) predates cutoff.
func (r *Repository) ListInactiveSince(ctx context.Context, cutoff time.Time, limit int) ([]models.User, error) {
	var out []models.User
	q := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("(last_login_at < ?) OR (last_login_at IS NULL AND created_at < ?)", cutoff, cutoff).
		Order("user_id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Deactivate flips the user inactive and stamps deactivated_at so the
// purge pass can honor the grace window.
func (r *Repository) Deactivate(ctx context.Context, userID int64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		UpdateColumns(map[string]any{
			"is_active":      false,
			"deactivated_at": at,
		}).Error
}

// ListDeactivatedBefore returns inactive users whose deactivation
// predates cutoff and who are therefore eligible for deletion.
func (r *Repository) ListDeactivatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.User, error) {
	var out []models.User
	q := r.db.WithContext(ctx).
		Where("is_active = ?", false).
		Where("deactivated_at IS NOT NULL AND deactivated_at < ?", cutoff).
		Order("user_id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteByUserID permanently removes the user row. Credential links go
// with it through the foreign key cascade.
func (r *Repository) DeleteByUserID(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.User{}).Error
}
