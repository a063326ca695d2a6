package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	orgUsecase "github.com/jediahjireh/credential-management/internal/org/usecase"
)

// createOrgUnitOutput is the command result in JSON format.
type createOrgUnitOutput struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Divisions []string `json:"divisions"`
}

// RunCreateOrgUnit creates a new organisational unit with the given divisions.
//
// Requirements: Database must be migrated and accessible.
func RunCreateOrgUnit(
	ctx context.Context,
	orgUnitUseCase orgUsecase.UseCase,
	logger *slog.Logger,
	writer io.Writer,
	name string,
	divisions []string,
	format string,
) error {
	logger.Info("creating organisational unit",
		slog.String("name", name),
		slog.Int("division_count", len(divisions)),
	)

	ou, err := orgUnitUseCase.CreateOrgUnit(ctx, name, divisions)
	if err != nil {
		return fmt.Errorf("failed to create organisational unit: %w", err)
	}

	output := createOrgUnitOutput{
		ID:        ou.ID.String(),
		Name:      ou.Name,
		Divisions: make([]string, 0, len(ou.Divisions)),
	}
	for _, division := range ou.Divisions {
		output.Divisions = append(output.Divisions, division.Name)
	}

	if format == "json" {
		outputJSON(output, writer)
	} else {
		_, _ = fmt.Fprintf(writer, "Organisational unit created\n")
		_, _ = fmt.Fprintf(writer, "ID:        %s\n", output.ID)
		_, _ = fmt.Fprintf(writer, "Name:      %s\n", output.Name)
		for _, divisionName := range output.Divisions {
			_, _ = fmt.Fprintf(writer, "Division:  %s\n", divisionName)
		}
	}

	logger.Info("organisational unit created successfully", slog.String("name", name))

	return nil
}
