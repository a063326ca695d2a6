// Package repository provides data persistence for organisational unit
// aggregates. Each aggregate is one row: memberships and divisions are stored
// as JSON documents and the whole aggregate is loaded and persisted together.
// Concurrent writers are detected with a version column.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/jediahjireh/credential-management/internal/database"
	apperrors "github.com/jediahjireh/credential-management/internal/errors"
	"github.com/jediahjireh/credential-management/internal/org/domain"
)

// PostgreSQLOrgUnitRepository handles organisational unit persistence for PostgreSQL.
type PostgreSQLOrgUnitRepository struct {
	db *sql.DB
}

// NewPostgreSQLOrgUnitRepository creates a new PostgreSQLOrgUnitRepository.
func NewPostgreSQLOrgUnitRepository(db *sql.DB) *PostgreSQLOrgUnitRepository {
	return &PostgreSQLOrgUnitRepository{db: db}
}

// Create inserts a new organisational unit aggregate with version 1.
func (r *PostgreSQLOrgUnitRepository) Create(ctx context.Context, ou *domain.OrganisationalUnit) error {
	if err := ou.Validate(); err != nil {
		return err
	}

	users, divisions, err := marshalAggregate(ou)
	if err != nil {
		return err
	}

	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO organisational_units (id, name, users, divisions, version, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, 1, NOW(), NOW())`

	_, err = querier.ExecContext(ctx, query, ou.ID, ou.Name, users, divisions)
	if err != nil {
		if isPostgreSQLUniqueViolation(err) {
			return domain.ErrOrgUnitNameTaken
		}
		return apperrors.Wrap(err, "failed to create organisational unit")
	}

	ou.Version = 1
	return nil
}

// GetByName loads the whole aggregate by its unique name.
func (r *PostgreSQLOrgUnitRepository) GetByName(ctx context.Context, name string) (*domain.OrganisationalUnit, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, users, divisions, version, created_at, updated_at
			  FROM organisational_units WHERE name = $1`

	ou, err := scanOrgUnit(querier.QueryRowContext(ctx, query, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOrgUnitNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get organisational unit")
	}

	return ou, nil
}

// List returns all aggregates in creation order.
func (r *PostgreSQLOrgUnitRepository) List(ctx context.Context) ([]*domain.OrganisationalUnit, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, users, divisions, version, created_at, updated_at
			  FROM organisational_units ORDER BY created_at, id`

	rows, err := querier.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list organisational units")
	}
	defer rows.Close()

	var orgUnits []*domain.OrganisationalUnit
	for rows.Next() {
		ou, err := scanOrgUnit(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan organisational unit")
		}
		orgUnits = append(orgUnits, ou)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate organisational units")
	}

	return orgUnits, nil
}

// Update persists the whole aggregate, guarded by the version loaded with it.
// A concurrent write since the load surfaces as ErrStaleAggregate; callers
// reload and retry.
func (r *PostgreSQLOrgUnitRepository) Update(ctx context.Context, ou *domain.OrganisationalUnit) error {
	if err := ou.Validate(); err != nil {
		return err
	}

	users, divisions, err := marshalAggregate(ou)
	if err != nil {
		return err
	}

	querier := database.GetTx(ctx, r.db)

	query := `UPDATE organisational_units
			  SET name = $1, users = $2, divisions = $3, version = version + 1, updated_at = NOW()
			  WHERE id = $4 AND version = $5`

	result, err := querier.ExecContext(ctx, query, ou.Name, users, divisions, ou.ID, ou.Version)
	if err != nil {
		if isPostgreSQLUniqueViolation(err) {
			return domain.ErrOrgUnitNameTaken
		}
		return apperrors.Wrap(err, "failed to update organisational unit")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return domain.ErrStaleAggregate
	}

	ou.Version++
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrgUnit(row rowScanner) (*domain.OrganisationalUnit, error) {
	var (
		ou            domain.OrganisationalUnit
		usersJSON     []byte
		divisionsJSON []byte
	)

	err := row.Scan(&ou.ID, &ou.Name, &usersJSON, &divisionsJSON, &ou.Version, &ou.CreatedAt, &ou.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := unmarshalAggregate(&ou, usersJSON, divisionsJSON); err != nil {
		return nil, err
	}

	return &ou, nil
}

func marshalAggregate(ou *domain.OrganisationalUnit) (users []byte, divisions []byte, err error) {
	ouUsers := ou.Users
	if ouUsers == nil {
		ouUsers = []string{}
	}
	ouDivisions := ou.Divisions
	if ouDivisions == nil {
		ouDivisions = []domain.Division{}
	}

	users, err = json.Marshal(ouUsers)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to marshal users")
	}

	divisions, err = json.Marshal(ouDivisions)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to marshal divisions")
	}

	return users, divisions, nil
}

func unmarshalAggregate(ou *domain.OrganisationalUnit, usersJSON, divisionsJSON []byte) error {
	if len(usersJSON) > 0 {
		if err := json.Unmarshal(usersJSON, &ou.Users); err != nil {
			return apperrors.Wrap(err, "failed to unmarshal users")
		}
	}
	if ou.Users == nil {
		ou.Users = []string{}
	}

	if len(divisionsJSON) > 0 {
		if err := json.Unmarshal(divisionsJSON, &ou.Divisions); err != nil {
			return apperrors.Wrap(err, "failed to unmarshal divisions")
		}
	}
	if ou.Divisions == nil {
		ou.Divisions = []domain.Division{}
	}

	return nil
}

// isPostgreSQLUniqueViolation checks if the error is a PostgreSQL unique constraint violation.
func isPostgreSQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "duplicate key") || strings.Contains(errMsg, "unique constraint")
}
