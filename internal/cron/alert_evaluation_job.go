package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/stocklane/stocklane-backend/internal/alerts"
	"github.com/stocklane/stocklane-backend/pkg/logger"
)

type orgSource interface {
	OrgIDs(ctx context.Context) ([]uuid.UUID, error)
}

type alertEvaluator interface {
	Evaluate(ctx context.Context, orgID uuid.UUID) ([]alerts.AlertChange, error)
}

// AlertEvaluationJobParams configure the alert evaluation job.
type AlertEvaluationJobParams struct {
	Logger    *logger.Logger
	Orgs      orgSource
	Evaluator alertEvaluator
}

// NewAlertEvaluationJob builds the job that sweeps every tenant's stock cells
// and reconciles the active alert set.
func NewAlertEvaluationJob(params AlertEvaluationJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orgs == nil {
		return nil, fmt.Errorf("org source required")
	}
	if params.Evaluator == nil {
		return nil, fmt.Errorf("alert evaluator required")
	}
	return &alertEvaluationJob{
		logg:      params.Logger,
		orgs:      params.Orgs,
		evaluator: params.Evaluator,
	}, nil
}

type alertEvaluationJob struct {
	logg      *logger.Logger
	orgs      orgSource
	evaluator alertEvaluator
}

func (j *alertEvaluationJob) Name() string { return "alert-evaluation" }

// Run evaluates each tenant independently. One broken tenant must not stop
// the sweep, so per-org failures are logged and counted but not returned
// unless every org failed.
func (j *alertEvaluationJob) Run(ctx context.Context) error {
	orgIDs, err := j.orgs.OrgIDs(ctx)
	if err != nil {
		return fmt.Errorf("list orgs: %w", err)
	}
	if len(orgIDs) == 0 {
		j.logg.Info(ctx, "no tenants with stock; nothing to evaluate")
		return nil
	}

	var raised, resolved int
	var errs []error
	for _, orgID := range orgIDs {
		changes, err := j.evaluator.Evaluate(ctx, orgID)
		if err != nil {
			errs = append(errs, fmt.Errorf("org %s: %w", orgID, err))
			orgCtx := j.logg.WithField(ctx, "org_id", orgID.String())
			j.logg.Error(orgCtx, "alert evaluation failed for org", err)
			continue
		}
		for _, change := range changes {
			switch change.Action {
			case alerts.ChangeRaised:
				raised++
			case alerts.ChangeResolved:
				resolved++
			}
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"orgs":     len(orgIDs),
		"raised":   raised,
		"resolved": resolved,
		"failed":   len(errs),
	})
	j.logg.Info(logCtx, "alert evaluation sweep complete")

	if len(errs) == len(orgIDs) {
		return multierr.Combine(errs...)
	}
	return nil
}
