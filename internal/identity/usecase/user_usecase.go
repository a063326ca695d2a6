// Package usecase implements the identity business logic: registration, login,
// role changes and the role-grouped user listing.
package usecase

import (
	"context"
	"fmt"
	"strings"

	validation "github.com/jellydator/validation"

	"github.com/google/uuid"

	"github.com/jediahjireh/credential-management/internal/auth"
	"github.com/jediahjireh/credential-management/internal/database"
	apperrors "github.com/jediahjireh/credential-management/internal/errors"
	"github.com/jediahjireh/credential-management/internal/identity/domain"
	"github.com/jediahjireh/credential-management/internal/identity/service"
	orgdomain "github.com/jediahjireh/credential-management/internal/org/domain"
	appValidation "github.com/jediahjireh/credential-management/internal/validation"
)

// RegisterInput contains the input data for user registration.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Secret   string `json:"secret"`
}

// RegisterResult is the outcome of a registration attempt. A duplicate
// username or email is a failed outcome, not an error.
type RegisterResult struct {
	Success  bool
	Message  string
	Username string
	Token    string
}

// LoginInput contains the input data for a login attempt.
type LoginInput struct {
	Username string `json:"username"`
	Secret   string `json:"secret"`
}

// LoginResult is the outcome of a login attempt. An unknown username or a
// wrong secret is a failed outcome, not an error.
type LoginResult struct {
	Success  bool
	Message  string
	Username string
	Role     domain.Role
	Token    string
}

// ChangeRoleInput selects the user and the role to move them to.
type ChangeRoleInput struct {
	Username string `json:"selectedUserName"`
	Role     string `json:"selectedRole"`
}

// ChangeRoleResult is the outcome of a role change. A missing user or an
// unchanged role is a failed outcome, not an error.
type ChangeRoleResult struct {
	Success bool
	Message string
}

// UserMembership lists the divisions a user belongs to inside one
// organisational unit.
type UserMembership struct {
	OrgUnitName string
	Divisions   []string
}

// UserDetails describes one user in the role-grouped listing.
type UserDetails struct {
	Username            string
	Email               string
	Role                domain.Role
	OrganisationalUnits []UserMembership
}

// UserListing groups all users by role.
type UserListing struct {
	Normal     []UserDetails
	Management []UserDetails
	Admin      []UserDetails
}

// UseCase defines the interface for identity business logic operations.
type UseCase interface {
	Register(ctx context.Context, input RegisterInput) (*RegisterResult, error)
	Login(ctx context.Context, input LoginInput) (*LoginResult, error)
	ChangeRole(ctx context.Context, input ChangeRoleInput) (*ChangeRoleResult, error)
	ListUsers(ctx context.Context) (*UserListing, error)
}

// UserRepository interface defines user repository operations.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	UpdateRole(ctx context.Context, username string, role domain.Role) error
}

// OrgUnitLister exposes the organisational units needed to compute user
// memberships for the listing.
type OrgUnitLister interface {
	List(ctx context.Context) ([]*orgdomain.OrganisationalUnit, error)
}

// UserUseCase handles identity-related business logic.
type UserUseCase struct {
	txManager database.TxManager
	userRepo  UserRepository
	orgRepo   OrgUnitLister
	hasher    service.SecretHasher
	tokens    auth.TokenService
}

// NewUserUseCase creates a new UserUseCase.
func NewUserUseCase(
	txManager database.TxManager,
	userRepo UserRepository,
	orgRepo OrgUnitLister,
	hasher service.SecretHasher,
	tokens auth.TokenService,
) *UserUseCase {
	return &UserUseCase{
		txManager: txManager,
		userRepo:  userRepo,
		orgRepo:   orgRepo,
		hasher:    hasher,
		tokens:    tokens,
	}
}

func (uc *UserUseCase) validateRegisterInput(input RegisterInput) error {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.Username,
			validation.Required.Error("username is required"),
			appValidation.NotBlank,
			appValidation.NoWhitespace,
			validation.Length(1, 255).Error("username must be between 1 and 255 characters"),
		),
		validation.Field(&input.Email,
			validation.Required.Error("email is required"),
			appValidation.NotBlank,
			appValidation.Email,
			validation.Length(5, 255).Error("email must be between 5 and 255 characters"),
		),
		validation.Field(&input.Secret,
			validation.Required.Error("secret is required"),
			validation.Length(1, 128).Error("secret must be between 1 and 128 characters"),
		),
	)
	return appValidation.WrapValidationError(err)
}

// Register creates a new user with the normal role and returns a token for
// the fresh identity. Duplicate usernames and emails are reported as failed
// outcomes with the caller-facing message.
func (uc *UserUseCase) Register(ctx context.Context, input RegisterInput) (*RegisterResult, error) {
	if err := uc.validateRegisterInput(input); err != nil {
		return nil, err
	}

	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(strings.ToLower(input.Email))

	hashedSecret, err := uc.hasher.Hash(input.Secret)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:       uuid.Must(uuid.NewV7()),
		Username: username,
		Email:    email,
		Secret:   hashedSecret,
		Role:     domain.RoleNormal,
	}

	err = uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		return uc.userRepo.Create(ctx, user)
	})
	switch {
	case apperrors.Is(err, domain.ErrUsernameTaken):
		return &RegisterResult{
			Message: fmt.Sprintf(
				"%s already exists in our database. Please register with a different username or login with existing credentials.",
				username,
			),
		}, nil
	case apperrors.Is(err, domain.ErrEmailTaken):
		return &RegisterResult{
			Message: fmt.Sprintf(
				"%s already exists in our database. Please register with a different email address or login with existing credentials.",
				email,
			),
		}, nil
	case err != nil:
		return nil, err
	}

	token, err := uc.tokens.Issue(user.Username, user.Role)
	if err != nil {
		return nil, err
	}

	return &RegisterResult{
		Success:  true,
		Message:  "New user registered and found!",
		Username: user.Username,
		Token:    token,
	}, nil
}

// Login verifies the username and secret and returns a signed token. Unknown
// usernames and wrong secrets are failed outcomes with the caller-facing
// message, not errors.
func (uc *UserUseCase) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	user, err := uc.userRepo.GetByUsername(ctx, input.Username)
	switch {
	case apperrors.Is(err, apperrors.ErrNotFound):
		return &LoginResult{
			Message: "User not found. Double-check your username for errors or register a new user.",
		}, nil
	case err != nil:
		return nil, err
	}

	if !uc.hasher.Verify(input.Secret, user.Secret) {
		return &LoginResult{
			Message: "Invalid login! Please ensure that credentials are filled in and valid.",
		}, nil
	}

	token, err := uc.tokens.Issue(user.Username, user.Role)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Success:  true,
		Message:  "Successful login!",
		Username: user.Username,
		Role:     user.Role,
		Token:    token,
	}, nil
}

// ChangeRole moves the selected user to the selected role. A missing user and
// an already-held role are failed outcomes with the caller-facing message.
func (uc *UserUseCase) ChangeRole(ctx context.Context, input ChangeRoleInput) (*ChangeRoleResult, error) {
	role := domain.Role(input.Role)
	if !role.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid role: %q", input.Role)
	}

	var result *ChangeRoleResult
	err := uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		user, err := uc.userRepo.GetByUsername(ctx, input.Username)
		switch {
		case apperrors.Is(err, apperrors.ErrNotFound):
			result = &ChangeRoleResult{Message: "User not found."}
			return nil
		case err != nil:
			return err
		}

		if user.Role == role {
			result = &ChangeRoleResult{
				Message: fmt.Sprintf(
					"Role change failed! %s is already '%s'. Please select a different role.",
					input.Username, role,
				),
			}
			return nil
		}

		if err := uc.userRepo.UpdateRole(ctx, input.Username, role); err != nil {
			return err
		}

		result = &ChangeRoleResult{
			Success: true,
			Message: fmt.Sprintf("Success! %s's role changed to '%s'.", input.Username, role),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// ListUsers returns all users grouped by role, each with the organisational
// units and divisions they belong to.
func (uc *UserUseCase) ListUsers(ctx context.Context) (*UserListing, error) {
	users, err := uc.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	orgUnits, err := uc.orgRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	listing := &UserListing{
		Normal:     []UserDetails{},
		Management: []UserDetails{},
		Admin:      []UserDetails{},
	}

	for _, user := range users {
		details := UserDetails{
			Username:            user.Username,
			Email:               user.Email,
			Role:                user.Role,
			OrganisationalUnits: userMemberships(orgUnits, user.Username),
		}

		switch user.Role {
		case domain.RoleNormal:
			listing.Normal = append(listing.Normal, details)
		case domain.RoleManagement:
			listing.Management = append(listing.Management, details)
		case domain.RoleAdmin:
			listing.Admin = append(listing.Admin, details)
		}
	}

	return listing, nil
}

func userMemberships(orgUnits []*orgdomain.OrganisationalUnit, username string) []UserMembership {
	memberships := []UserMembership{}
	for _, ou := range orgUnits {
		if !ou.HasUser(username) {
			continue
		}

		divisions := []string{}
		for _, division := range ou.Divisions {
			if division.HasUser(username) {
				divisions = append(divisions, division.Name)
			}
		}

		memberships = append(memberships, UserMembership{
			OrgUnitName: ou.Name,
			Divisions:   divisions,
		})
	}
	return memberships
}
