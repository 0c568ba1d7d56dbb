package credentials

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mathmindlabs/mathmind-backend/pkg/db/models"
	"github.com/mathmindlabs/mathmind-backend/pkg/enums"
	pkgerrors "github.com/mathmindlabs/mathmind-backend/pkg/errors"
)

func setupCredentialsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ToLower(t.Name()))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.AuthCredential{}))
	return conn
}

func createLink(t *testing.T, repo *Repository, conn *gorm.DB, userID int64, provider enums.AuthProvider, subject string) *models.AuthCredential {
	t.Helper()

	var cred *models.AuthCredential
	err := conn.Transaction(func(tx *gorm.DB) error {
		created, err := repo.CreateInTx(tx, CreateCredentialDTO{
			UserID:         userID,
			Provider:       provider,
			ProviderUserID: subject,
		})
		if err != nil {
			return err
		}
		cred = created
		return nil
	})
	require.NoError(t, err)
	return cred
}

func TestRepositoryCreateAndFind(t *testing.T) {
	conn := setupCredentialsTestDB(t)
	repo := NewRepository(conn)

	created := createLink(t, repo, conn, 1, enums.AuthProviderEmail, "one@example.com")
	assert.Equal(t, int64(1), created.UserID)

	found, err := repo.FindByProviderSubject(context.Background(), enums.AuthProviderEmail, "one@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, enums.AuthProviderEmail, found.Provider)

	_, err = repo.FindByProviderSubject(context.Background(), enums.AuthProviderGoogle, "one@example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositorySameSubjectDifferentProviders(t *testing.T) {
	conn := setupCredentialsTestDB(t)
	repo := NewRepository(conn)

	createLink(t, repo, conn, 1, enums.AuthProviderEmail, "dual@example.com")
	createLink(t, repo, conn, 1, enums.AuthProviderGoogle, "dual@example.com")

	creds, err := repo.ListByUserID(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, creds, 2)
}

func TestRepositoryDuplicateLinkRejected(t *testing.T) {
	conn := setupCredentialsTestDB(t)
	repo := NewRepository(conn)

	createLink(t, repo, conn, 1, enums.AuthProviderGoogle, "google-sub-1")

	err := conn.Transaction(func(tx *gorm.DB) error {
		_, err := repo.CreateInTx(tx, CreateCredentialDTO{
			UserID:         2,
			Provider:       enums.AuthProviderGoogle,
			ProviderUserID: "google-sub-1",
		})
		return err
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestRepositoryUpdateLastLogin(t *testing.T) {
	conn := setupCredentialsTestDB(t)
	repo := NewRepository(conn)

	createLink(t, repo, conn, 7, enums.AuthProviderEmail, "seven@example.com")

	at := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.UpdateLastLogin(context.Background(), enums.AuthProviderEmail, "seven@example.com", at))

	found, err := repo.FindByProviderSubject(context.Background(), enums.AuthProviderEmail, "seven@example.com")
	require.NoError(t, err)
	require.NotNil(t, found.LastLoginAt)
	assert.WithinDuration(t, at, *found.LastLoginAt, time.Second)
}

func TestRepositoryDeleteByUserID(t *testing.T) {
	conn := setupCredentialsTestDB(t)
	repo := NewRepository(conn)

	createLink(t, repo, conn, 9, enums.AuthProviderEmail, "nine@example.com")
	createLink(t, repo, conn, 9, enums.AuthProviderGoogle, "nine-google")

	require.NoError(t, repo.DeleteByUserID(context.Background(), 9))

	creds, err := repo.ListByUserID(context.Background(), 9)
	require.NoError(t, err)
	assert.Empty(t, creds)
}
