// Package usecase implements the hierarchy mutation service: the
// authorization-scoped operations on organisational units, their divisions
// and the credentials those divisions own.
package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jediahjireh/credential-management/internal/database"
	apperrors "github.com/jediahjireh/credential-management/internal/errors"
	identitydomain "github.com/jediahjireh/credential-management/internal/identity/domain"
	"github.com/jediahjireh/credential-management/internal/org/domain"
)

// staleRetryAttempts bounds how often a mutation is replayed when a
// concurrent writer bumps the aggregate version between load and persist.
const staleRetryAttempts = 3

// AddCredentialInput identifies the target division and the credential to add.
type AddCredentialInput struct {
	OrgUnitName        string
	DivisionName       string
	CredentialName     string
	CredentialUsername string
	CredentialEmail    string
	CredentialPassword string
}

// UpdateCredentialsInput identifies the credential by name; blank fields keep
// their stored value.
type UpdateCredentialsInput struct {
	OrgUnitName        string
	DivisionName       string
	CredentialName     string
	CredentialUsername string
	CredentialEmail    string
	CredentialPassword string
}

// MutationResult is the outcome of a hierarchy mutation. Success false with a
// message is a failed outcome delivered with a 200, not an error.
type MutationResult struct {
	Success bool
	Message string
}

// UseCase defines the interface for hierarchy business logic operations.
type UseCase interface {
	List(ctx context.Context) ([]*domain.OrganisationalUnit, error)
	CreateOrgUnit(ctx context.Context, name string, divisionNames []string) (*domain.OrganisationalUnit, error)
	AddCredential(ctx context.Context, input AddCredentialInput) (*MutationResult, error)
	UpdateCredentials(ctx context.Context, input UpdateCredentialsInput) (*MutationResult, error)
	AssignOU(ctx context.Context, userName, ouName string) (*MutationResult, error)
	UnassignOU(ctx context.Context, userName, ouName string) (*MutationResult, error)
	AssignDivision(ctx context.Context, userName, divisionName, ouName string) (*MutationResult, error)
	UnassignDivision(ctx context.Context, userName, divisionName, ouName string) (*MutationResult, error)
}

// OrgUnitRepository interface defines organisational unit repository operations.
type OrgUnitRepository interface {
	Create(ctx context.Context, ou *domain.OrganisationalUnit) error
	GetByName(ctx context.Context, name string) (*domain.OrganisationalUnit, error)
	List(ctx context.Context) ([]*domain.OrganisationalUnit, error)
	Update(ctx context.Context, ou *domain.OrganisationalUnit) error
}

// UserGetter checks that a username exists in the identity store before it is
// assigned anywhere in the hierarchy.
type UserGetter interface {
	GetByUsername(ctx context.Context, username string) (*identitydomain.User, error)
}

// OrgUnitUseCase handles hierarchy-related business logic.
type OrgUnitUseCase struct {
	txManager database.TxManager
	orgRepo   OrgUnitRepository
	userRepo  UserGetter
}

// NewOrgUnitUseCase creates a new OrgUnitUseCase.
func NewOrgUnitUseCase(txManager database.TxManager, orgRepo OrgUnitRepository, userRepo UserGetter) *OrgUnitUseCase {
	return &OrgUnitUseCase{
		txManager: txManager,
		orgRepo:   orgRepo,
		userRepo:  userRepo,
	}
}

// List returns all organisational units in creation order.
func (uc *OrgUnitUseCase) List(ctx context.Context) ([]*domain.OrganisationalUnit, error) {
	return uc.orgRepo.List(ctx)
}

// CreateOrgUnit creates a new, empty organisational unit with the given
// divisions. Used by the operator bootstrap command.
func (uc *OrgUnitUseCase) CreateOrgUnit(
	ctx context.Context,
	name string,
	divisionNames []string,
) (*domain.OrganisationalUnit, error) {
	divisions := make([]domain.Division, 0, len(divisionNames))
	for _, divisionName := range divisionNames {
		divisions = append(divisions, domain.Division{
			Name:        divisionName,
			Users:       []string{},
			Credentials: []domain.Credential{},
		})
	}

	ou := &domain.OrganisationalUnit{
		ID:        uuid.Must(uuid.NewV7()),
		Name:      name,
		Users:     []string{},
		Divisions: divisions,
	}

	err := uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		return uc.orgRepo.Create(ctx, ou)
	})
	if err != nil {
		return nil, err
	}

	return ou, nil
}

// AddCredential appends a new credential to a division.
func (uc *OrgUnitUseCase) AddCredential(ctx context.Context, input AddCredentialInput) (*MutationResult, error) {
	return uc.mutate(ctx, input.OrgUnitName, func(ou *domain.OrganisationalUnit) (*MutationResult, bool, error) {
		credential := domain.Credential{
			Name:     input.CredentialName,
			Username: input.CredentialUsername,
			Email:    input.CredentialEmail,
			Password: input.CredentialPassword,
		}

		err := ou.AddCredential(input.DivisionName, credential)
		switch {
		case apperrors.Is(err, domain.ErrDivisionNotFound):
			return nil, false, divisionNotFound(input.DivisionName)
		case apperrors.Is(err, domain.ErrCredentialNameTaken):
			return nil, false, apperrors.WithMessage(
				apperrors.ErrConflict,
				"The credential name must be unique within the division. '%s' already exists within the %s division.",
				input.CredentialName, input.DivisionName,
			)
		case err != nil:
			return nil, false, err
		}

		return &MutationResult{
			Success: true,
			Message: fmt.Sprintf(
				"Success! New Credential '%s' added to the %s division of Organisational Unit: %s.",
				input.CredentialName, input.DivisionName, input.OrgUnitName,
			),
		}, true, nil
	})
}

// UpdateCredentials updates an existing credential, keeping stored values for
// blank fields. A missing credential is a failed outcome, not an error.
func (uc *OrgUnitUseCase) UpdateCredentials(ctx context.Context, input UpdateCredentialsInput) (*MutationResult, error) {
	return uc.mutate(ctx, input.OrgUnitName, func(ou *domain.OrganisationalUnit) (*MutationResult, bool, error) {
		found, err := ou.UpdateCredential(
			input.DivisionName,
			input.CredentialName,
			input.CredentialUsername,
			input.CredentialEmail,
			input.CredentialPassword,
		)
		switch {
		case apperrors.Is(err, domain.ErrDivisionNotFound):
			return nil, false, divisionNotFound(input.DivisionName)
		case err != nil:
			return nil, false, err
		}

		if !found {
			return &MutationResult{
				Message: fmt.Sprintf(
					"Failed! Credential '%s' not found in the %s division of Organisational Unit: %s.",
					input.CredentialName, input.DivisionName, input.OrgUnitName,
				),
			}, false, nil
		}

		return &MutationResult{
			Success: true,
			Message: fmt.Sprintf(
				"Success! Updated Credential '%s' in the %s division of Organisational Unit: %s.",
				input.CredentialName, input.DivisionName, input.OrgUnitName,
			),
		}, true, nil
	})
}

// AssignOU adds an existing user to an organisational unit.
func (uc *OrgUnitUseCase) AssignOU(ctx context.Context, userName, ouName string) (*MutationResult, error) {
	if err := uc.checkUserExists(ctx, userName); err != nil {
		return nil, err
	}

	return uc.mutate(ctx, ouName, func(ou *domain.OrganisationalUnit) (*MutationResult, bool, error) {
		if err := ou.AssignUser(userName); err != nil {
			if apperrors.Is(err, domain.ErrUserAlreadyAssigned) {
				return nil, false, apperrors.WithMessage(
					apperrors.ErrConflict,
					"User %s is already assigned to Organisational Unit: %s.",
					userName, ouName,
				)
			}
			return nil, false, err
		}

		return &MutationResult{
			Success: true,
			Message: fmt.Sprintf("Success! %s has been assigned to Organisational Unit: %s.", userName, ouName),
		}, true, nil
	})
}

// UnassignOU removes a user from an organisational unit and every one of its
// divisions in the same committed write.
func (uc *OrgUnitUseCase) UnassignOU(ctx context.Context, userName, ouName string) (*MutationResult, error) {
	return uc.mutate(ctx, ouName, func(ou *domain.OrganisationalUnit) (*MutationResult, bool, error) {
		if err := ou.UnassignUser(userName); err != nil {
			if apperrors.Is(err, domain.ErrUserNotAssigned) {
				return nil, false, apperrors.WithMessage(
					apperrors.ErrConflict,
					"User %s is not assigned to Organisational Unit: %s.",
					userName, ouName,
				)
			}
			return nil, false, err
		}

		return &MutationResult{
			Success: true,
			Message: fmt.Sprintf(
				"Success! %s has been unassigned from Organisational Unit: %s and all its divisions.",
				userName, ouName,
			),
		}, true, nil
	})
}

// AssignDivision adds an existing user to a division, assigning them to the
// owning organisational unit as well when needed.
func (uc *OrgUnitUseCase) AssignDivision(
	ctx context.Context,
	userName, divisionName, ouName string,
) (*MutationResult, error) {
	if err := uc.checkUserExists(ctx, userName); err != nil {
		return nil, err
	}

	return uc.mutate(ctx, ouName, func(ou *domain.OrganisationalUnit) (*MutationResult, bool, error) {
		err := ou.AssignDivisionUser(divisionName, userName)
		switch {
		case apperrors.Is(err, domain.ErrDivisionNotFound):
			return nil, false, divisionNotFound(divisionName)
		case apperrors.Is(err, domain.ErrUserAlreadyAssigned):
			return nil, false, apperrors.WithMessage(
				apperrors.ErrConflict,
				"User %s is already assigned to the %s division in Organisational Unit: %s.",
				userName, divisionName, ouName,
			)
		case err != nil:
			return nil, false, err
		}

		return &MutationResult{
			Success: true,
			Message: fmt.Sprintf(
				"Success! %s has been assigned to the %s division in Organisational Unit: %s.",
				userName, divisionName, ouName,
			),
		}, true, nil
	})
}

// UnassignDivision removes a user from a division. Membership of the owning
// organisational unit is untouched.
func (uc *OrgUnitUseCase) UnassignDivision(
	ctx context.Context,
	userName, divisionName, ouName string,
) (*MutationResult, error) {
	return uc.mutate(ctx, ouName, func(ou *domain.OrganisationalUnit) (*MutationResult, bool, error) {
		err := ou.UnassignDivisionUser(divisionName, userName)
		switch {
		case apperrors.Is(err, domain.ErrDivisionNotFound):
			return nil, false, divisionNotFound(divisionName)
		case apperrors.Is(err, domain.ErrUserNotAssigned):
			return nil, false, apperrors.WithMessage(
				apperrors.ErrConflict,
				"User %s is not assigned to the %s division in Organisational Unit: %s.",
				userName, divisionName, ouName,
			)
		case err != nil:
			return nil, false, err
		}

		return &MutationResult{
			Success: true,
			Message: fmt.Sprintf(
				"Success! %s has been unassigned from the %s division in Organisational Unit: %s.",
				userName, divisionName, ouName,
			),
		}, true, nil
	})
}

// mutate runs the load-mutate-persist cycle for one aggregate inside a
// transaction. The mutation fn reports whether the aggregate must be written
// back. Stale writes are replayed against a fresh load up to
// staleRetryAttempts times.
func (uc *OrgUnitUseCase) mutate(
	ctx context.Context,
	ouName string,
	fn func(ou *domain.OrganisationalUnit) (*MutationResult, bool, error),
) (*MutationResult, error) {
	var result *MutationResult

	for attempt := 0; attempt < staleRetryAttempts; attempt++ {
		err := uc.txManager.WithTx(ctx, func(ctx context.Context) error {
			ou, err := uc.orgRepo.GetByName(ctx, ouName)
			if err != nil {
				if apperrors.Is(err, apperrors.ErrNotFound) {
					return apperrors.WithMessage(apperrors.ErrNotFound, "Organisational Unit: %s not found.", ouName)
				}
				return err
			}

			res, write, err := fn(ou)
			if err != nil {
				return err
			}
			result = res

			if !write {
				return nil
			}
			return uc.orgRepo.Update(ctx, ou)
		})
		if err == nil {
			return result, nil
		}
		if !apperrors.Is(err, domain.ErrStaleAggregate) {
			return nil, err
		}
	}

	return nil, domain.ErrStaleAggregate
}

func (uc *OrgUnitUseCase) checkUserExists(ctx context.Context, userName string) error {
	_, err := uc.userRepo.GetByUsername(ctx, userName)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return apperrors.WithMessage(apperrors.ErrNotFound, "User: %s not found.", userName)
		}
		return err
	}
	return nil
}

func divisionNotFound(divisionName string) error {
	return apperrors.WithMessage(
		apperrors.ErrNotFound,
		"Division: %s not found in the specified Organisational Unit.",
		divisionName,
	)
}
