// Package dto defines the wire representations for identity endpoints.
package dto

import (
	"github.com/jediahjireh/credential-management/internal/identity/usecase"
)

// LoginRequest is the login payload.
type LoginRequest struct {
	Username string `json:"username"`
	Secret   string `json:"secret"`
}

// LoginResponse carries the login outcome and, on success, the signed token.
type LoginResponse struct {
	Message  string `json:"message"`
	Success  bool   `json:"success"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
	Token    string `json:"token,omitempty"`
}

// RegisterRequest is the registration payload.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Secret   string `json:"secret"`
}

// RegisterResponse carries the registration outcome and, on success, a token
// for the fresh identity.
type RegisterResponse struct {
	Message  string `json:"message"`
	Success  bool   `json:"success"`
	Username string `json:"username,omitempty"`
	Token    string `json:"token,omitempty"`
}

// ChangeRoleRequest selects the user and their new role.
type ChangeRoleRequest struct {
	SelectedUserName string `json:"selectedUserName"`
	SelectedRole     string `json:"selectedRole"`
}

// UserDivisionResponse names one division a user belongs to.
type UserDivisionResponse struct {
	DivisionName string `json:"divisionName"`
}

// UserOrgUnitResponse lists a user's divisions within one organisational unit.
type UserOrgUnitResponse struct {
	OuName    string                 `json:"ouName"`
	Divisions []UserDivisionResponse `json:"divisions"`
}

// UserDetailsResponse describes one user in the role-grouped listing.
type UserDetailsResponse struct {
	Username            string                `json:"username"`
	Email               string                `json:"email"`
	Role                string                `json:"role"`
	OrganisationalUnits []UserOrgUnitResponse `json:"organisationalUnits"`
}

// ListUsersResponse groups all users by role and echoes the verified caller.
type ListUsersResponse struct {
	Message    string                `json:"message"`
	Username   string                `json:"username"`
	Role       string                `json:"role"`
	Normal     []UserDetailsResponse `json:"normal"`
	Management []UserDetailsResponse `json:"management"`
	Admin      []UserDetailsResponse `json:"admin"`
}

// ToLoginInput converts a LoginRequest to the use case input.
func ToLoginInput(req LoginRequest) usecase.LoginInput {
	return usecase.LoginInput{Username: req.Username, Secret: req.Secret}
}

// ToRegisterInput converts a RegisterRequest to the use case input.
func ToRegisterInput(req RegisterRequest) usecase.RegisterInput {
	return usecase.RegisterInput{Username: req.Username, Email: req.Email, Secret: req.Secret}
}

// ToChangeRoleInput converts a ChangeRoleRequest to the use case input.
func ToChangeRoleInput(req ChangeRoleRequest) usecase.ChangeRoleInput {
	return usecase.ChangeRoleInput{Username: req.SelectedUserName, Role: req.SelectedRole}
}

// ToLoginResponse converts a login outcome to its wire form.
func ToLoginResponse(result *usecase.LoginResult) LoginResponse {
	return LoginResponse{
		Message:  result.Message,
		Success:  result.Success,
		Username: result.Username,
		Role:     string(result.Role),
		Token:    result.Token,
	}
}

// ToRegisterResponse converts a registration outcome to its wire form.
func ToRegisterResponse(result *usecase.RegisterResult) RegisterResponse {
	return RegisterResponse{
		Message:  result.Message,
		Success:  result.Success,
		Username: result.Username,
		Token:    result.Token,
	}
}

// ToUserDetailsResponses converts grouped user details to their wire form.
func ToUserDetailsResponses(details []usecase.UserDetails) []UserDetailsResponse {
	responses := make([]UserDetailsResponse, 0, len(details))
	for _, d := range details {
		orgUnits := make([]UserOrgUnitResponse, 0, len(d.OrganisationalUnits))
		for _, membership := range d.OrganisationalUnits {
			divisions := make([]UserDivisionResponse, 0, len(membership.Divisions))
			for _, divisionName := range membership.Divisions {
				divisions = append(divisions, UserDivisionResponse{DivisionName: divisionName})
			}
			orgUnits = append(orgUnits, UserOrgUnitResponse{
				OuName:    membership.OrgUnitName,
				Divisions: divisions,
			})
		}

		responses = append(responses, UserDetailsResponse{
			Username:            d.Username,
			Email:               d.Email,
			Role:                string(d.Role),
			OrganisationalUnits: orgUnits,
		})
	}
	return responses
}
