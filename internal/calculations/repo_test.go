package calculations

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mathmindlabs/mathmind-backend/pkg/db/models"
	"github.com/mathmindlabs/mathmind-backend/pkg/pagination"
)

func setupCalculationsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ToLower(t.Name()))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Calculation{}))
	return conn
}

func seedCalculation(t *testing.T, conn *gorm.DB, userID int64, input string, created time.Time) *models.Calculation {
	t.Helper()

	calc := &models.Calculation{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      "basic",
		Input:     input,
		Result:    "42",
		CreatedAt: created,
	}
	require.NoError(t, conn.Create(calc).Error)
	return calc
}

func TestRepositoryListByUserNewestFirst(t *testing.T) {
	conn := setupCalculationsTestDB(t)
	repo := NewRepository(conn)

	now := time.Now().UTC()
	seedCalculation(t, conn, 1, "1+1", now.Add(-2*time.Hour))
	seedCalculation(t, conn, 1, "2+2", now.Add(-time.Hour))
	seedCalculation(t, conn, 1, "3+3", now)
	seedCalculation(t, conn, 2, "9*9", now)

	list, err := repo.ListByUser(context.Background(), 1, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, list.Calculations, 3)
	assert.Equal(t, "3+3", list.Calculations[0].Input)
	assert.Equal(t, "2+2", list.Calculations[1].Input)
	assert.Equal(t, "1+1", list.Calculations[2].Input)
	assert.Empty(t, list.NextCursor)
}

func TestRepositoryListByUserPagination(t *testing.T) {
	conn := setupCalculationsTestDB(t)
	repo := NewRepository(conn)

	now := time.Now().UTC()
	for i := 0; i < 5; i++ {
		seedCalculation(t, conn, 1, fmt.Sprintf("%d+%d", i, i), now.Add(time.Duration(i)*time.Minute))
	}

	first, err := repo.ListByUser(context.Background(), 1, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Calculations, 2)
	require.NotEmpty(t, first.NextCursor)
	assert.Equal(t, "4+4", first.Calculations[0].Input)
	assert.Equal(t, "3+3", first.Calculations[1].Input)

	second, err := repo.ListByUser(context.Background(), 1, pagination.Params{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Calculations, 2)
	require.NotEmpty(t, second.NextCursor)
	assert.Equal(t, "2+2", second.Calculations[0].Input)
	assert.Equal(t, "1+1", second.Calculations[1].Input)

	last, err := repo.ListByUser(context.Background(), 1, pagination.Params{Limit: 2, Cursor: second.NextCursor})
	require.NoError(t, err)
	require.Len(t, last.Calculations, 1)
	assert.Equal(t, "0+0", last.Calculations[0].Input)
	assert.Empty(t, last.NextCursor)
}

func TestRepositoryListByUserInvalidCursor(t *testing.T) {
	conn := setupCalculationsTestDB(t)
	repo := NewRepository(conn)

	_, err := repo.ListByUser(context.Background(), 1, pagination.Params{Cursor: "not-base64!"})
	require.Error(t, err)
}

func TestRepositoryDeleteByUserID(t *testing.T) {
	conn := setupCalculationsTestDB(t)
	repo := NewRepository(conn)

	now := time.Now().UTC()
	seedCalculation(t, conn, 1, "1+1", now)
	seedCalculation(t, conn, 2, "2+2", now)

	require.NoError(t, repo.DeleteByUserID(context.Background(), 1))

	page, err := repo.ListByUser(context.Background(), 1, pagination.Params{})
	require.NoError(t, err)
	assert.Empty(t, page.Calculations)

	page, err = repo.ListByUser(context.Background(), 2, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, page.Calculations, 1)
}
