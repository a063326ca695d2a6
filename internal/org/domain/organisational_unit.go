// Package domain defines the organisational hierarchy aggregate: organisational
// units that own divisions, which in turn own shared credentials.
package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/jediahjireh/credential-management/internal/errors"
)

// Domain errors for organisational hierarchy operations.
var (
	ErrOrgUnitNotFound     = apperrors.WithMessage(apperrors.ErrNotFound, "organisational unit not found")
	ErrOrgUnitNameTaken    = apperrors.WithMessage(apperrors.ErrConflict, "organisational unit name already taken")
	ErrDivisionNotFound    = apperrors.WithMessage(apperrors.ErrNotFound, "division not found")
	ErrUserAlreadyAssigned = apperrors.WithMessage(apperrors.ErrConflict, "user already assigned")
	ErrUserNotAssigned     = apperrors.WithMessage(apperrors.ErrConflict, "user not assigned")
	ErrCredentialNameTaken = apperrors.WithMessage(apperrors.ErrConflict, "credential name already taken")
	ErrStaleAggregate      = apperrors.WithMessage(apperrors.ErrConflict, "organisational unit was modified concurrently")
)

// Credential is a stored service login owned by exactly one division.
// The password travels and is stored as an opaque string.
type Credential struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Division groups users and credentials inside an organisational unit.
// Users is a denormalized membership cache: every entry must also be a
// member of the owning unit.
type Division struct {
	Name        string       `json:"name"`
	Users       []string     `json:"users"`
	Credentials []Credential `json:"credentials"`
}

// HasUser reports whether username is a member of the division.
func (d *Division) HasUser(username string) bool {
	return slices.Contains(d.Users, username)
}

// OrganisationalUnit is the aggregate root of the hierarchy. All mutations to
// nested divisions and credentials go through it: load the whole aggregate,
// mutate, persist the whole aggregate.
type OrganisationalUnit struct {
	ID        uuid.UUID
	Name      string
	Users     []string
	Divisions []Division
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Division returns a pointer to the named division, or false when absent.
// Name comparison is exact and case-sensitive.
func (ou *OrganisationalUnit) Division(name string) (*Division, bool) {
	for i := range ou.Divisions {
		if ou.Divisions[i].Name == name {
			return &ou.Divisions[i], true
		}
	}
	return nil, false
}

// HasUser reports whether username is a member of the unit.
func (ou *OrganisationalUnit) HasUser(username string) bool {
	return slices.Contains(ou.Users, username)
}

// AssignUser adds username to the unit's membership.
func (ou *OrganisationalUnit) AssignUser(username string) error {
	if ou.HasUser(username) {
		return ErrUserAlreadyAssigned
	}

	ou.Users = append(ou.Users, username)
	return nil
}

// UnassignUser removes username from the unit and cascades the removal to
// every division, keeping division membership contained in unit membership.
func (ou *OrganisationalUnit) UnassignUser(username string) error {
	if !ou.HasUser(username) {
		return ErrUserNotAssigned
	}

	ou.Users = slices.DeleteFunc(ou.Users, func(u string) bool { return u == username })
	for i := range ou.Divisions {
		ou.Divisions[i].Users = slices.DeleteFunc(ou.Divisions[i].Users, func(u string) bool { return u == username })
	}
	return nil
}

// AssignDivisionUser adds username to the named division. A user not yet
// assigned to the unit is assigned to it as part of the same mutation.
func (ou *OrganisationalUnit) AssignDivisionUser(divisionName, username string) error {
	division, ok := ou.Division(divisionName)
	if !ok {
		return ErrDivisionNotFound
	}

	if division.HasUser(username) {
		return ErrUserAlreadyAssigned
	}

	division.Users = append(division.Users, username)
	if !ou.HasUser(username) {
		ou.Users = append(ou.Users, username)
	}
	return nil
}

// UnassignDivisionUser removes username from the named division only. Unit
// membership is untouched.
func (ou *OrganisationalUnit) UnassignDivisionUser(divisionName, username string) error {
	division, ok := ou.Division(divisionName)
	if !ok {
		return ErrDivisionNotFound
	}

	if !division.HasUser(username) {
		return ErrUserNotAssigned
	}

	division.Users = slices.DeleteFunc(division.Users, func(u string) bool { return u == username })
	return nil
}

// AddCredential appends credential to the named division. Credential names
// are unique within their division.
func (ou *OrganisationalUnit) AddCredential(divisionName string, credential Credential) error {
	division, ok := ou.Division(divisionName)
	if !ok {
		return ErrDivisionNotFound
	}

	for _, existing := range division.Credentials {
		if existing.Name == credential.Name {
			return ErrCredentialNameTaken
		}
	}

	division.Credentials = append(division.Credentials, credential)
	return nil
}

// UpdateCredential updates the username, email and password of the credential
// named credentialName in the named division. Blank fields keep their stored
// value. Returns false when no credential with that name exists; a missing
// credential is not an error.
func (ou *OrganisationalUnit) UpdateCredential(
	divisionName, credentialName, username, email, password string,
) (bool, error) {
	division, ok := ou.Division(divisionName)
	if !ok {
		return false, ErrDivisionNotFound
	}

	for i := range division.Credentials {
		if division.Credentials[i].Name != credentialName {
			continue
		}

		if username != "" {
			division.Credentials[i].Username = username
		}
		if email != "" {
			division.Credentials[i].Email = email
		}
		if password != "" {
			division.Credentials[i].Password = password
		}
		return true, nil
	}

	return false, nil
}

// Validate checks the aggregate's structural invariants: non-blank names,
// unique division names, unique credential names within each division, unique
// memberships, and division membership contained in unit membership.
func (ou *OrganisationalUnit) Validate() error {
	if ou.Name == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "organisational unit name must not be blank")
	}

	if dup, ok := firstDuplicate(ou.Users); ok {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "duplicate user %q in organisational unit %q", dup, ou.Name)
	}

	divisionNames := make([]string, 0, len(ou.Divisions))
	for i := range ou.Divisions {
		division := &ou.Divisions[i]
		if division.Name == "" {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "division name must not be blank in organisational unit %q", ou.Name)
		}
		divisionNames = append(divisionNames, division.Name)

		if dup, ok := firstDuplicate(division.Users); ok {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "duplicate user %q in division %q", dup, division.Name)
		}

		credentialNames := make([]string, 0, len(division.Credentials))
		for _, credential := range division.Credentials {
			credentialNames = append(credentialNames, credential.Name)
		}
		if dup, ok := firstDuplicate(credentialNames); ok {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "duplicate credential %q in division %q", dup, division.Name)
		}

		for _, username := range division.Users {
			if !ou.HasUser(username) {
				return apperrors.WithMessage(
					apperrors.ErrInvalidInput,
					"user %q belongs to division %q but not to organisational unit %q",
					username, division.Name, ou.Name,
				)
			}
		}
	}

	if dup, ok := firstDuplicate(divisionNames); ok {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "duplicate division %q in organisational unit %q", dup, ou.Name)
	}

	return nil
}

func firstDuplicate(values []string) (string, bool) {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			return v, true
		}
		seen[v] = struct{}{}
	}
	return "", false
}
