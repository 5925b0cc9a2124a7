package jobs

import (
	"context"
	"fmt"
	"time"

	"rebeat_backend/internal/config"
	"rebeat_backend/internal/token"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// TokenRefreshJob periodically renews provider tokens that are close to
// expiring, so API calls rarely pay the refresh round-trip themselves.
type TokenRefreshJob struct {
	tokenService  *token.Service
	logger        *zap.Logger
	cfg           *config.Config
	cronScheduler *cron.Cron
}

// NewTokenRefreshJob creates a new TokenRefreshJob.
func NewTokenRefreshJob(
	tokenService *token.Service,
	logger *zap.Logger,
	cfg *config.Config,
) *TokenRefreshJob {
	scheduler := cron.New(cron.WithLogger(NewCronLogger(logger.Named("cron"))))

	return &TokenRefreshJob{
		tokenService:  tokenService,
		logger:        logger.Named("TokenRefreshJob"),
		cfg:           cfg,
		cronScheduler: scheduler,
	}
}

// SetupAndStart schedules and starts the cron job.
func (j *TokenRefreshJob) SetupAndStart() error {
	jobSpec := j.cfg.TokenRefreshJobSchedule
	if jobSpec == "" {
		j.logger.Warn("Token refresh job schedule not defined (TOKEN_REFRESH_JOB_SCHEDULE). Job will not run.")
		return nil
	}

	jobID, err := j.cronScheduler.AddFunc(jobSpec, j.runJob)
	if err != nil {
		j.logger.Error("Failed to schedule token refresh job", zap.String("spec", jobSpec), zap.Error(err))
		return err
	}

	j.logger.Info("Token refresh job scheduled", zap.String("spec", jobSpec), zap.Any("jobID", jobID))
	j.cronScheduler.Start()
	return nil
}

func (j *TokenRefreshJob) runJob() {
	j.logger.Info("Starting token refresh sweep...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	renewed, err := j.tokenService.RefreshExpiringWithin(ctx, j.cfg.TokenRefreshSweepWindow)
	if err != nil {
		j.logger.Error("Token refresh sweep failed", zap.Error(err))
	} else {
		j.logger.Info("Token refresh sweep completed", zap.Int("tokens_renewed", renewed))
	}
}

// Stop gracefully stops the cron scheduler.
func (j *TokenRefreshJob) Stop() {
	if j.cronScheduler != nil {
		j.logger.Info("Stopping token refresh job scheduler...")
		stopCtx := j.cronScheduler.Stop()
		select {
		case <-stopCtx.Done():
			j.logger.Info("Token refresh job scheduler stopped.")
		case <-time.After(10 * time.Second):
			j.logger.Warn("Token refresh job scheduler stop timed out.")
		}
	}
}

// cronLogger adapts zap.Logger to the cron.Logger interface.
type cronLogger struct {
	zl *zap.Logger
}

// NewCronLogger creates a new cronLogger.
func NewCronLogger(zl *zap.Logger) cron.Logger {
	return &cronLogger{zl: zl}
}

func (cl *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	cl.zl.Info(msg, cl.parseKeysAndValues(keysAndValues...)...)
}

func (cl *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := cl.parseKeysAndValues(keysAndValues...)
	fields = append(fields, zap.Error(err))
	cl.zl.Error(msg, fields...)
}

func (cl *cronLogger) parseKeysAndValues(keysAndValues ...interface{}) []zap.Field {
	var fields []zap.Field
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			fields = append(fields, zap.Any(fmt.Sprintf("%v", keysAndValues[i]), keysAndValues[i+1]))
		} else {
			fields = append(fields, zap.Any(fmt.Sprintf("%v", keysAndValues[i]), "MISSING_VALUE"))
		}
	}
	return fields
}
