package cron

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mathmindlabs/mathmind-backend/internal/calculations"
	"github.com/mathmindlabs/mathmind-backend/internal/credentials"
	"github.com/mathmindlabs/mathmind-backend/internal/users"
	"github.com/mathmindlabs/mathmind-backend/pkg/config"
	"github.com/mathmindlabs/mathmind-backend/pkg/db/models"
	"github.com/mathmindlabs/mathmind-backend/pkg/enums"
	"github.com/mathmindlabs/mathmind-backend/pkg/logger"
	"github.com/mathmindlabs/mathmind-backend/pkg/metrics"
)

type fakeLocker struct {
	held map[string]bool
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: map[string]bool{}}
}

func (f *fakeLocker) SetNX(_ context.Context, key string, _ any, _ time.Duration) (bool, error) {
	if f.held[key] {
		return false, nil
	}
	f.held[key] = true
	return true, nil
}

func (f *fakeLocker) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.held, key)
	}
	return nil
}

func (f *fakeLocker) LockKey(name string) string {
	return "mm:lock:" + name
}

type cronFixture struct {
	job    *InactiveUsersJob
	conn   *gorm.DB
	users  *users.Repository
	locker *fakeLocker
	reg    *prometheus.Registry
}

func setupJob(t *testing.T) *cronFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ToLower(t.Name()))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.User{}, &models.AuthCredential{}, &models.Calculation{}))

	reg := prometheus.NewRegistry()
	lock := newFakeLocker()
	userRepo := users.NewRepository(conn)

	job, err := NewInactiveUsersJob(InactiveUsersJobParams{
		Logger:       logger.New(logger.Options{Output: io.Discard}),
		Users:        userRepo,
		Credentials:  credentials.NewRepository(conn),
		Calculations: calculations.NewRepository(conn),
		Locker:       lock,
		Metrics:      metrics.NewCronJobMetrics(reg),
		Retention: config.RetentionConfig{
			InactiveAfterDays: 365,
			PurgeAfterDays:    30,
			CronInterval:      24 * time.Hour,
		},
	})
	require.NoError(t, err)

	return &cronFixture{job: job, conn: conn, users: userRepo, locker: lock, reg: reg}
}

func createUser(t *testing.T, fx *cronFixture, email string, lastLogin time.Time) *models.User {
	t.Helper()

	user, err := fx.users.Create(context.Background(), users.CreateUserDTO{
		Email: email,
		Name:  "Cron Test",
	})
	require.NoError(t, err)
	require.NoError(t, fx.users.UpdateLastLogin(context.Background(), user.UserID, lastLogin))
	return user
}

func counterValue(t *testing.T, reg *prometheus.Registry, name, job string) float64 {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "job" && label.GetValue() == job {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestRunOnceDeactivatesAndPurges(t *testing.T) {
	fx := setupJob(t)
	ctx := context.Background()
	now := time.Now().UTC()

	stale := createUser(t, fx, "stale@example.com", now.Add(-400*24*time.Hour))
	fresh := createUser(t, fx, "fresh@example.com", now.Add(-time.Hour))

	expired := createUser(t, fx, "expired@example.com", now.Add(-500*24*time.Hour))
	require.NoError(t, fx.users.Deactivate(ctx, expired.UserID, now.Add(-40*24*time.Hour)))
	require.NoError(t, fx.conn.Create(&models.AuthCredential{
		ID:             uuid.New(),
		UserID:         expired.UserID,
		Provider:       enums.AuthProviderEmail,
		ProviderUserID: "expired@example.com",
	}).Error)
	require.NoError(t, fx.conn.Create(&models.Calculation{
		ID:     uuid.New(),
		UserID: expired.UserID,
		Type:   "basic",
		Input:  "1+1",
		Result: "2",
	}).Error)

	require.NoError(t, fx.job.RunOnce(ctx))

	staleAfter, err := fx.users.FindByUserID(ctx, stale.UserID)
	require.NoError(t, err)
	assert.False(t, staleAfter.IsActive)
	assert.NotNil(t, staleAfter.DeactivatedAt)

	freshAfter, err := fx.users.FindByUserID(ctx, fresh.UserID)
	require.NoError(t, err)
	assert.True(t, freshAfter.IsActive)

	_, err = fx.users.FindByUserID(ctx, expired.UserID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var credCount, calcCount int64
	require.NoError(t, fx.conn.Model(&models.AuthCredential{}).Where("user_id = ?", expired.UserID).Count(&credCount).Error)
	require.NoError(t, fx.conn.Model(&models.Calculation{}).Where("user_id = ?", expired.UserID).Count(&calcCount).Error)
	assert.Zero(t, credCount)
	assert.Zero(t, calcCount)

	assert.Equal(t, float64(1), counterValue(t, fx.reg, "job_success", "delete_inactive_users"))
	assert.False(t, fx.locker.held[fx.locker.LockKey(inactiveUsersLockName)])
}

func TestRunOnceRecentlyDeactivatedSurvivesGrace(t *testing.T) {
	fx := setupJob(t)
	ctx := context.Background()
	now := time.Now().UTC()

	recent := createUser(t, fx, "recent@example.com", now.Add(-500*24*time.Hour))
	require.NoError(t, fx.users.Deactivate(ctx, recent.UserID, now.Add(-10*24*time.Hour)))

	require.NoError(t, fx.job.RunOnce(ctx))

	found, err := fx.users.FindByUserID(ctx, recent.UserID)
	require.NoError(t, err)
	assert.False(t, found.IsActive)
}

func TestRunOnceSkipsWhenLockHeld(t *testing.T) {
	fx := setupJob(t)
	ctx := context.Background()
	now := time.Now().UTC()

	stale := createUser(t, fx, "locked@example.com", now.Add(-400*24*time.Hour))
	fx.locker.held[fx.locker.LockKey(inactiveUsersLockName)] = true

	require.NoError(t, fx.job.RunOnce(ctx))

	found, err := fx.users.FindByUserID(ctx, stale.UserID)
	require.NoError(t, err)
	assert.True(t, found.IsActive)
	assert.Zero(t, counterValue(t, fx.reg, "job_success", "delete_inactive_users"))
}

func TestNewInactiveUsersJobValidatesRetention(t *testing.T) {
	_, err := NewInactiveUsersJob(InactiveUsersJobParams{
		Logger:       logger.New(logger.Options{Output: io.Discard}),
		Users:        &users.Repository{},
		Credentials:  &credentials.Repository{},
		Calculations: &calculations.Repository{},
		Locker:       newFakeLocker(),
		Retention:    config.RetentionConfig{InactiveAfterDays: 0, PurgeAfterDays: 30},
	})
	require.Error(t, err)
}
