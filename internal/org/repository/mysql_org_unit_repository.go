package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jediahjireh/credential-management/internal/database"
	apperrors "github.com/jediahjireh/credential-management/internal/errors"
	"github.com/jediahjireh/credential-management/internal/org/domain"
)

// MySQLOrgUnitRepository handles organisational unit persistence for MySQL.
// UUIDs are stored as BINARY(16).
type MySQLOrgUnitRepository struct {
	db *sql.DB
}

// NewMySQLOrgUnitRepository creates a new MySQLOrgUnitRepository.
func NewMySQLOrgUnitRepository(db *sql.DB) *MySQLOrgUnitRepository {
	return &MySQLOrgUnitRepository{db: db}
}

// Create inserts a new organisational unit aggregate with version 1.
func (r *MySQLOrgUnitRepository) Create(ctx context.Context, ou *domain.OrganisationalUnit) error {
	if err := ou.Validate(); err != nil {
		return err
	}

	users, divisions, err := marshalAggregate(ou)
	if err != nil {
		return err
	}

	idBytes, err := ou.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal organisational unit id")
	}

	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO organisational_units (id, name, users, divisions, version, created_at, updated_at)
			  VALUES (?, ?, ?, ?, 1, NOW(), NOW())`

	_, err = querier.ExecContext(ctx, query, idBytes, ou.Name, users, divisions)
	if err != nil {
		if isMySQLUniqueViolation(err) {
			return domain.ErrOrgUnitNameTaken
		}
		return apperrors.Wrap(err, "failed to create organisational unit")
	}

	ou.Version = 1
	return nil
}

// GetByName loads the whole aggregate by its unique name.
func (r *MySQLOrgUnitRepository) GetByName(ctx context.Context, name string) (*domain.OrganisationalUnit, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, users, divisions, version, created_at, updated_at
			  FROM organisational_units WHERE name = ?`

	ou, err := scanMySQLOrgUnit(querier.QueryRowContext(ctx, query, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOrgUnitNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get organisational unit")
	}

	return ou, nil
}

// List returns all aggregates in creation order.
func (r *MySQLOrgUnitRepository) List(ctx context.Context) ([]*domain.OrganisationalUnit, error) {
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
		ou, err := scanMySQLOrgUnit(rows)
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
func (r *MySQLOrgUnitRepository) Update(ctx context.Context, ou *domain.OrganisationalUnit) error {
	if err := ou.Validate(); err != nil {
		return err
	}

	users, divisions, err := marshalAggregate(ou)
	if err != nil {
		return err
	}

	idBytes, err := ou.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal organisational unit id")
	}

	querier := database.GetTx(ctx, r.db)

	query := `UPDATE organisational_units
			  SET name = ?, users = ?, divisions = ?, version = version + 1, updated_at = NOW()
			  WHERE id = ? AND version = ?`

	result, err := querier.ExecContext(ctx, query, ou.Name, users, divisions, idBytes, ou.Version)
	if err != nil {
		if isMySQLUniqueViolation(err) {
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

func scanMySQLOrgUnit(row rowScanner) (*domain.OrganisationalUnit, error) {
	var (
		ou            domain.OrganisationalUnit
		idBytes       []byte
		usersJSON     []byte
		divisionsJSON []byte
		createdAt     time.Time
		updatedAt     time.Time
	)

	err := row.Scan(&idBytes, &ou.Name, &usersJSON, &divisionsJSON, &ou.Version, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	id, err := uuid.FromBytes(idBytes)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to parse organisational unit id")
	}
	ou.ID = id
	ou.CreatedAt = createdAt
	ou.UpdatedAt = updatedAt

	if err := unmarshalAggregate(&ou, usersJSON, divisionsJSON); err != nil {
		return nil, err
	}

	return &ou, nil
}

// isMySQLUniqueViolation checks if the error is a MySQL unique constraint violation.
func isMySQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "duplicate entry") || strings.Contains(errMsg, "1062")
}
