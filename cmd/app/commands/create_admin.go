package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	identitydomain "github.com/jediahjireh/credential-management/internal/identity/domain"
	identityUsecase "github.com/jediahjireh/credential-management/internal/identity/usecase"
)

// createAdminOutput is the command result in JSON format.
type createAdminOutput struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// RunCreateAdmin registers a new user and promotes them to the admin role.
// The registration rejects duplicate usernames and email addresses.
//
// Requirements: Database must be migrated and accessible.
func RunCreateAdmin(
	ctx context.Context,
	userUseCase identityUsecase.UseCase,
	logger *slog.Logger,
	writer io.Writer,
	username string,
	email string,
	secret string,
	format string,
) error {
	logger.Info("creating admin user", slog.String("username", username))

	registerResult, err := userUseCase.Register(ctx, identityUsecase.RegisterInput{
		Username: username,
		Email:    email,
		Secret:   secret,
	})
	if err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}
	if !registerResult.Success {
		return fmt.Errorf("failed to register user: %s", registerResult.Message)
	}

	changeRoleResult, err := userUseCase.ChangeRole(ctx, identityUsecase.ChangeRoleInput{
		Username: username,
		Role:     string(identitydomain.RoleAdmin),
	})
	if err != nil {
		return fmt.Errorf("failed to promote user to admin: %w", err)
	}
	if !changeRoleResult.Success {
		return fmt.Errorf("failed to promote user to admin: %s", changeRoleResult.Message)
	}

	output := createAdminOutput{
		Username: username,
		Role:     string(identitydomain.RoleAdmin),
	}

	if format == "json" {
		outputJSON(output, writer)
	} else {
		_, _ = fmt.Fprintf(writer, "Admin user created\n")
		_, _ = fmt.Fprintf(writer, "Username: %s\n", output.Username)
		_, _ = fmt.Fprintf(writer, "Role:     %s\n", output.Role)
	}

	logger.Info("admin user created successfully", slog.String("username", username))

	return nil
}
