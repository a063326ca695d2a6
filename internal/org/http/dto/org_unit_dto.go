// Package dto defines the wire representations for hierarchy endpoints. Field
// names match the frontend contract exactly.
package dto

import (
	"github.com/jediahjireh/credential-management/internal/org/domain"
	"github.com/jediahjireh/credential-management/internal/org/usecase"
)

// AddCredentialRequest carries the target division and the new credential.
type AddCredentialRequest struct {
	InputOuName             string `json:"inputOuName"`
	InputDivisionName       string `json:"inputDivisionName"`
	InputCredentialName     string `json:"inputCredentialName"`
	InputCredentialUsername string `json:"inputCredentialUsername"`
	InputCredentialEmail    string `json:"inputCredentialEmail"`
	InputCredentialPassword string `json:"inputCredentialPassword"`
}

// UpdateCredentialsRequest identifies the credential by name; blank fields
// keep their stored values.
type UpdateCredentialsRequest struct {
	InputOuName             string `json:"inputOuName"`
	InputDivisionName       string `json:"inputDivisionName"`
	InputCredentialName     string `json:"inputCredentialName"`
	InputCredentialUsername string `json:"inputCredentialUsername"`
	InputCredentialEmail    string `json:"inputCredentialEmail"`
	InputCredentialPassword string `json:"inputCredentialPassword"`
}

// AssignOURequest targets a user and an organisational unit.
type AssignOURequest struct {
	UserName string `json:"userName"`
	OuName   string `json:"ouName"`
}

// AssignDivisionRequest targets a user and a division within an organisational unit.
type AssignDivisionRequest struct {
	UserName     string `json:"userName"`
	DivisionName string `json:"divisionName"`
	OuName       string `json:"ouName"`
}

// CredentialResponse is the wire form of one stored credential.
type CredentialResponse struct {
	CredentialName     string `json:"credentialName"`
	CredentialEmail    string `json:"credentialEmail"`
	CredentialUsername string `json:"credentialUsername"`
	CredentialPassword string `json:"credentialPassword"`
}

// DivisionResponse is the wire form of one division with its credentials.
type DivisionResponse struct {
	DivisionName  string               `json:"divisionName"`
	DivisionUsers []string             `json:"divisionUsers"`
	Credentials   []CredentialResponse `json:"credentials"`
}

// OrgUnitResponse is the wire form of one organisational unit.
type OrgUnitResponse struct {
	OuName    string             `json:"ouName"`
	OuUsers   []string           `json:"ouUsers"`
	Divisions []DivisionResponse `json:"divisions"`
}

// ListOrgUnitsResponse is the full hierarchy listing.
type ListOrgUnitsResponse struct {
	Message             string            `json:"message"`
	OrganisationalUnits []OrgUnitResponse `json:"organisationalUnits"`
}

// ToAddCredentialInput converts an AddCredentialRequest to the use case input.
func ToAddCredentialInput(req AddCredentialRequest) usecase.AddCredentialInput {
	return usecase.AddCredentialInput{
		OrgUnitName:        req.InputOuName,
		DivisionName:       req.InputDivisionName,
		CredentialName:     req.InputCredentialName,
		CredentialUsername: req.InputCredentialUsername,
		CredentialEmail:    req.InputCredentialEmail,
		CredentialPassword: req.InputCredentialPassword,
	}
}

// ToUpdateCredentialsInput converts an UpdateCredentialsRequest to the use case input.
func ToUpdateCredentialsInput(req UpdateCredentialsRequest) usecase.UpdateCredentialsInput {
	return usecase.UpdateCredentialsInput{
		OrgUnitName:        req.InputOuName,
		DivisionName:       req.InputDivisionName,
		CredentialName:     req.InputCredentialName,
		CredentialUsername: req.InputCredentialUsername,
		CredentialEmail:    req.InputCredentialEmail,
		CredentialPassword: req.InputCredentialPassword,
	}
}

// ToOrgUnitResponses converts aggregates to their wire form.
func ToOrgUnitResponses(orgUnits []*domain.OrganisationalUnit) []OrgUnitResponse {
	responses := make([]OrgUnitResponse, 0, len(orgUnits))
	for _, ou := range orgUnits {
		divisions := make([]DivisionResponse, 0, len(ou.Divisions))
		for _, division := range ou.Divisions {
			credentials := make([]CredentialResponse, 0, len(division.Credentials))
			for _, credential := range division.Credentials {
				credentials = append(credentials, CredentialResponse{
					CredentialName:     credential.Name,
					CredentialEmail:    credential.Email,
					CredentialUsername: credential.Username,
					CredentialPassword: credential.Password,
				})
			}

			users := division.Users
			if users == nil {
				users = []string{}
			}
			divisions = append(divisions, DivisionResponse{
				DivisionName:  division.Name,
				DivisionUsers: users,
				Credentials:   credentials,
			})
		}

		users := ou.Users
		if users == nil {
			users = []string{}
		}
		responses = append(responses, OrgUnitResponse{
			OuName:    ou.Name,
			OuUsers:   users,
			Divisions: divisions,
		})
	}
	return responses
}
