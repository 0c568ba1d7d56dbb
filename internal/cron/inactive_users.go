package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/mathmindlabs/mathmind-backend/pkg/config"
	"github.com/mathmindlabs/mathmind-backend/pkg/db/models"
	"github.com/mathmindlabs/mathmind-backend/pkg/logger"
	"github.com/mathmindlabs/mathmind-backend/pkg/metrics"
)

const (
	inactiveUsersJobName  = "delete_inactive_users"
	inactiveUsersLockName = "delete-inactive-users"

	// lockTTL caps how long a crashed worker can hold the cycle lock.
	lockTTL = 30 * time.Minute

	// batchSize bounds how many users one cycle touches.
	batchSize = 500
)

type userLifecycleRepo interface {
	ListInactiveSince(ctx context.Context, cutoff time.Time, limit int) ([]models.User, error)
	Deactivate(ctx context.Context, userID int64, at time.Time) error
	ListDeactivatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.User, error)
	DeleteByUserID(ctx context.Context, userID int64) error
}

type userDataRepo interface {
	DeleteByUserID(ctx context.Context, userID int64) error
}

type locker interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	LockKey(name string) string
}

// InactiveUsersJob deactivates users who have not signed in within the
// retention window and hard-deletes users whose deactivation has
// outlived the grace window.
type InactiveUsersJob struct {
	logg         *logger.Logger
	users        userLifecycleRepo
	credentials  userDataRepo
	calculations userDataRepo
	locker       locker
	metrics      *metrics.CronJobMetrics
	retention    config.RetentionConfig
}

type InactiveUsersJobParams struct {
	Logger       *logger.Logger
	Users        userLifecycleRepo
	Credentials  userDataRepo
	Calculations userDataRepo
	Locker       locker
	Metrics      *metrics.CronJobMetrics
	Retention    config.RetentionConfig
}

func NewInactiveUsersJob(params InactiveUsersJobParams) (*InactiveUsersJob, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if params.Credentials == nil {
		return nil, fmt.Errorf("credential repository required")
	}
	if params.Calculations == nil {
		return nil, fmt.Errorf("calculation repository required")
	}
	if params.Locker == nil {
		return nil, fmt.Errorf("locker required")
	}
	if params.Retention.InactiveAfterDays <= 0 {
		return nil, fmt.Errorf("inactive retention days must be positive")
	}
	if params.Retention.PurgeAfterDays <= 0 {
		return nil, fmt.Errorf("purge grace days must be positive")
	}
	return &InactiveUsersJob{
		logg:         params.Logger,
		users:        params.Users,
		credentials:  params.Credentials,
		calculations: params.Calculations,
		locker:       params.Locker,
		metrics:      params.Metrics,
		retention:    params.Retention,
	}, nil
}

// Run executes the job on the configured interval until the context is
// canceled.
func (j *InactiveUsersJob) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	interval := j.retention.CronInterval
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	if err := j.RunOnce(ctx); err != nil {
		j.logg.Error(ctx, "inactive users cycle failed", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logg.Info(ctx, "inactive users job context canceled")
			return ctx.Err()
		case <-ticker.C:
			if err := j.RunOnce(ctx); err != nil {
				j.logg.Error(ctx, "inactive users cycle failed", err)
			}
		}
	}
}

// RunOnce performs a single locked cycle. Only one worker runs the
// cycle at a time; losing the SETNX race is not an error.
func (j *InactiveUsersJob) RunOnce(ctx context.Context) error {
	lockKey := j.locker.LockKey(inactiveUsersLockName)
	acquired, err := j.locker.SetNX(ctx, lockKey, time.Now().UTC().Format(time.RFC3339), lockTTL)
	if err != nil {
		j.metrics.IncFailure(inactiveUsersJobName)
		return fmt.Errorf("acquire cycle lock: %w", err)
	}
	if !acquired {
		j.logg.Info(ctx, "inactive users cycle already running elsewhere")
		return nil
	}
	defer func() {
		if err := j.locker.Del(ctx, lockKey); err != nil {
			j.logg.Error(ctx, "release cycle lock", err)
		}
	}()

	started := time.Now()
	err = j.process(ctx)
	j.metrics.ObserveDuration(inactiveUsersJobName, time.Since(started))
	if err != nil {
		j.metrics.IncFailure(inactiveUsersJobName)
		return err
	}
	j.metrics.IncSuccess(inactiveUsersJobName)
	return nil
}

func (j *InactiveUsersJob) process(ctx context.Context) error {
	now := time.Now().UTC()
	var errs error

	deactivated, err := j.deactivateStale(ctx, now)
	errs = multierr.Append(errs, err)

	purged, err := j.purgeExpired(ctx, now)
	errs = multierr.Append(errs, err)

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"deactivated": deactivated,
		"purged":      purged,
	})
	j.logg.Info(logCtx, "inactive users cycle complete")
	return errs
}

func (j *InactiveUsersJob) deactivateStale(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.AddDate(0, 0, -j.retention.InactiveAfterDays)
	stale, err := j.users.ListInactiveSince(ctx, cutoff, batchSize)
	if err != nil {
		return 0, fmt.Errorf("list inactive users: %w", err)
	}

	var errs error
	deactivated := 0
	for _, user := range stale {
		if err := j.users.Deactivate(ctx, user.UserID, now); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("deactivate user %d: %w", user.UserID, err))
			continue
		}
		deactivated++
	}
	return deactivated, errs
}

func (j *InactiveUsersJob) purgeExpired(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.AddDate(0, 0, -j.retention.PurgeAfterDays)
	expired, err := j.users.ListDeactivatedBefore(ctx, cutoff, batchSize)
	if err != nil {
		return 0, fmt.Errorf("list deactivated users: %w", err)
	}

	var errs error
	purged := 0
	for _, user := range expired {
		if err := j.purgeUser(ctx, user.UserID); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("purge user %d: %w", user.UserID, err))
			continue
		}
		purged++
	}
	return purged, errs
}

// purgeUser removes the user's data before the user row itself so a
// partial failure never orphans rows behind a deleted account.
func (j *InactiveUsersJob) purgeUser(ctx context.Context, userID int64) error {
	if err := j.calculations.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("delete calculations: %w", err)
	}
	if err := j.credentials.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("delete credentials: %w", err)
	}
	if err := j.users.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
