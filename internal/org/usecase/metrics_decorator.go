package usecase

import (
	"context"
	"time"

	"github.com/jediahjireh/credential-management/internal/metrics"
	"github.com/jediahjireh/credential-management/internal/org/domain"
)

// orgUnitUseCaseWithMetrics decorates UseCase with metrics instrumentation.
type orgUnitUseCaseWithMetrics struct {
	next    UseCase
	metrics metrics.BusinessMetrics
}

// NewOrgUnitUseCaseWithMetrics wraps a UseCase with metrics recording.
func NewOrgUnitUseCaseWithMetrics(useCase UseCase, m metrics.BusinessMetrics) UseCase {
	return &orgUnitUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (d *orgUnitUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	d.metrics.RecordOperation(ctx, "org", operation, status)
	d.metrics.RecordDuration(ctx, "org", operation, time.Since(start), status)
}

// List records metrics for hierarchy listing operations.
func (d *orgUnitUseCaseWithMetrics) List(ctx context.Context) ([]*domain.OrganisationalUnit, error) {
	start := time.Now()
	orgUnits, err := d.next.List(ctx)
	d.record(ctx, "org_unit_list", start, err)
	return orgUnits, err
}

// CreateOrgUnit records metrics for organisational unit creation.
func (d *orgUnitUseCaseWithMetrics) CreateOrgUnit(
	ctx context.Context,
	name string,
	divisionNames []string,
) (*domain.OrganisationalUnit, error) {
	start := time.Now()
	ou, err := d.next.CreateOrgUnit(ctx, name, divisionNames)
	d.record(ctx, "org_unit_create", start, err)
	return ou, err
}

// AddCredential records metrics for credential additions.
func (d *orgUnitUseCaseWithMetrics) AddCredential(
	ctx context.Context,
	input AddCredentialInput,
) (*MutationResult, error) {
	start := time.Now()
	result, err := d.next.AddCredential(ctx, input)
	d.record(ctx, "credential_add", start, err)
	return result, err
}

// UpdateCredentials records metrics for credential updates.
func (d *orgUnitUseCaseWithMetrics) UpdateCredentials(
	ctx context.Context,
	input UpdateCredentialsInput,
) (*MutationResult, error) {
	start := time.Now()
	result, err := d.next.UpdateCredentials(ctx, input)
	d.record(ctx, "credential_update", start, err)
	return result, err
}

// AssignOU records metrics for organisational unit assignments.
func (d *orgUnitUseCaseWithMetrics) AssignOU(ctx context.Context, userName, ouName string) (*MutationResult, error) {
	start := time.Now()
	result, err := d.next.AssignOU(ctx, userName, ouName)
	d.record(ctx, "org_unit_assign", start, err)
	return result, err
}

// UnassignOU records metrics for organisational unit unassignments.
func (d *orgUnitUseCaseWithMetrics) UnassignOU(ctx context.Context, userName, ouName string) (*MutationResult, error) {
	start := time.Now()
	result, err := d.next.UnassignOU(ctx, userName, ouName)
	d.record(ctx, "org_unit_unassign", start, err)
	return result, err
}

// AssignDivision records metrics for division assignments.
func (d *orgUnitUseCaseWithMetrics) AssignDivision(
	ctx context.Context,
	userName, divisionName, ouName string,
) (*MutationResult, error) {
	start := time.Now()
	result, err := d.next.AssignDivision(ctx, userName, divisionName, ouName)
	d.record(ctx, "division_assign", start, err)
	return result, err
}

// UnassignDivision records metrics for division unassignments.
func (d *orgUnitUseCaseWithMetrics) UnassignDivision(
	ctx context.Context,
	userName, divisionName, ouName string,
) (*MutationResult, error) {
	start := time.Now()
	result, err := d.next.UnassignDivision(ctx, userName, divisionName, ouName)
	d.record(ctx, "division_unassign", start, err)
	return result, err
}
