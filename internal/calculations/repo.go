package calculations

import (
	"context"

	"gorm.io/gorm"

	"github.com/mathmindlabs/mathmind-backend/pkg/db/models"
	pkgerrors "github.com/mathmindlabs/mathmind-backend/pkg/errors"
	"github.com/mathmindlabs/mathmind-backend/pkg/pagination"
)

// Repository persists the append-only calculation log. Rows are never
// updated or deleted by the application.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateInTx appends one history entry inside the caller's transaction.
func (r *Repository) CreateInTx(tx *gorm.DB, userID int64, dto SaveCalculationDTO) (*models.Calculation, error) {
	calc := &models.Calculation{
		UserID: userID,
		Type:   dto.Type,
		Input:  dto.Input,
		Result: *dto.Result,
	}
	if err := tx.Create(calc).Error; err != nil {
		return nil, err
	}
	return calc, nil
}

// ListByUser returns one page of the user's history, newest first.
// Ordering is (created_at DESC, id DESC) so ties on created_at page
// deterministically.
func (r *Repository) ListByUser(ctx context.Context, userID int64, params pagination.Params) (*CalculationList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	q := r.db.WithContext(ctx).
		Model(&models.Calculation{}).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))
	if cursor != nil {
		q = q.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Calculation
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &CalculationList{Calculations: make([]CalculationDTO, 0, len(rows))}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	for i := range rows {
		list.Calculations = append(list.Calculations, *FromModel(&rows[i]))
	}
	if hasMore {
		last := rows[len(rows)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return list, nil
}

// DeleteByUserID removes the user's history. Only the purge job calls
// this; the API surface stays append-only.
func (r *Repository) DeleteByUserID(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.Calculation{}).Error
}
