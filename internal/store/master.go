package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"

	"recruitment-portal/internal/common/errors"
	"recruitment-portal/internal/common/logger"
	"recruitment-portal/internal/common/realtime"
	"recruitment-portal/internal/models"

	"github.com/lib/pq"
)

// MasterKind names one of the three reference tables.
type MasterKind string

const (
	KindClient    MasterKind = realtime.TableClients
	KindPosition  MasterKind = realtime.TablePositions
	KindPlacement MasterKind = realtime.TablePlacements
)

// ParseMasterKind accepts the table names and their short forms.
func ParseMasterKind(s string) (MasterKind, error) {
	switch s {
	case "clients", string(KindClient):
		return KindClient, nil
	case "positions", string(KindPosition):
		return KindPosition, nil
	case "placements", string(KindPlacement):
		return KindPlacement, nil
	}
	return "", errors.NewInvalidRequestError(fmt.Sprintf("unknown master data kind %q", s))
}

// DeletionPlan lists the rows a cascade delete removes, children first.
type DeletionPlan struct {
	PlacementIDs []int64 `json:"placement_ids"`
	PositionIDs  []int64 `json:"position_ids"`
	ClientIDs    []int64 `json:"client_ids"`
}

// Empty reports whether nothing would be deleted.
func (p DeletionPlan) Empty() bool {
	return len(p.PlacementIDs)+len(p.PositionIDs)+len(p.ClientIDs) == 0
}

// PlanClientDeletion collects a client with all of its positions and their
// placements.
func PlanClientDeletion(m models.MasterData, clientID int64) DeletionPlan {
	plan := DeletionPlan{PlacementIDs: []int64{}, PositionIDs: []int64{}, ClientIDs: []int64{}}
	found := false
	for _, c := range m.Clients {
		if c.ID == clientID {
			found = true
			break
		}
	}
	if !found {
		return plan
	}

	positions := make(map[int64]bool)
	for _, p := range m.Positions {
		if p.ClientID == clientID {
			positions[p.ID] = true
			plan.PositionIDs = append(plan.PositionIDs, p.ID)
		}
	}
	for _, pl := range m.Placements {
		if positions[pl.PositionID] {
			plan.PlacementIDs = append(plan.PlacementIDs, pl.ID)
		}
	}
	plan.ClientIDs = append(plan.ClientIDs, clientID)
	return plan
}

// PlanPositionDeletion collects a position and its placements.
func PlanPositionDeletion(m models.MasterData, positionID int64) DeletionPlan {
	plan := DeletionPlan{PlacementIDs: []int64{}, PositionIDs: []int64{}, ClientIDs: []int64{}}
	found := false
	for _, p := range m.Positions {
		if p.ID == positionID {
			found = true
			break
		}
	}
	if !found {
		return plan
	}
	for _, pl := range m.Placements {
		if pl.PositionID == positionID {
			plan.PlacementIDs = append(plan.PlacementIDs, pl.ID)
		}
	}
	plan.PositionIDs = append(plan.PositionIDs, positionID)
	return plan
}

// MasterStore manages clients, positions and placements.
type MasterStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewMasterStore(db *sql.DB, log logger.Logger) *MasterStore {
	return &MasterStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "master-store"}),
	}
}

// Load returns every row of the three tables, inactive ones included.
func (s *MasterStore) Load(ctx context.Context) (models.MasterData, error) {
	return loadMaster(ctx, s.db)
}

func loadMaster(ctx context.Context, q dbtx) (models.MasterData, error) {
	m := models.MasterData{
		Clients:    []models.JobClient{},
		Positions:  []models.JobPosition{},
		Placements: []models.JobPlacement{},
	}

	rows, err := q.QueryContext(ctx, "SELECT id, name, is_active, created_at FROM job_clients ORDER BY name, id")
	if err != nil {
		return m, fmt.Errorf("query clients: %w", err)
	}
	for rows.Next() {
		var c models.JobClient
		if err := rows.Scan(&c.ID, &c.Name, &c.IsActive, &c.CreatedAt); err != nil {
			rows.Close()
			return m, fmt.Errorf("scan client: %w", err)
		}
		m.Clients = append(m.Clients, c)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return m, fmt.Errorf("iterate clients: %w", err)
	}

	rows, err = q.QueryContext(ctx, "SELECT id, client_id, name, is_active, created_at FROM job_positions ORDER BY name, id")
	if err != nil {
		return m, fmt.Errorf("query positions: %w", err)
	}
	for rows.Next() {
		var p models.JobPosition
		if err := rows.Scan(&p.ID, &p.ClientID, &p.Name, &p.IsActive, &p.CreatedAt); err != nil {
			rows.Close()
			return m, fmt.Errorf("scan position: %w", err)
		}
		m.Positions = append(m.Positions, p)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return m, fmt.Errorf("iterate positions: %w", err)
	}

	rows, err = q.QueryContext(ctx, "SELECT id, position_id, location, recruiter_phone, is_active, created_at FROM job_placements ORDER BY location, id")
	if err != nil {
		return m, fmt.Errorf("query placements: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var pl models.JobPlacement
		if err := rows.Scan(&pl.ID, &pl.PositionID, &pl.Location, &pl.RecruiterPhone, &pl.IsActive, &pl.CreatedAt); err != nil {
			return m, fmt.Errorf("scan placement: %w", err)
		}
		m.Placements = append(m.Placements, pl)
	}
	if err := rows.Err(); err != nil {
		return m, fmt.Errorf("iterate placements: %w", err)
	}
	return m, nil
}

func (s *MasterStore) CreateClient(ctx context.Context, name string) (*models.JobClient, error) {
	c := &models.JobClient{Name: name, IsActive: true}
	err := s.db.QueryRowContext(ctx,
		"INSERT INTO job_clients (name, is_active) VALUES ($1, TRUE) RETURNING id, created_at", name).
		Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return nil, errors.NewDatabaseInsertFailedError(err)
	}
	return c, nil
}

func (s *MasterStore) CreatePosition(ctx context.Context, clientID int64, name string) (*models.JobPosition, error) {
	p := &models.JobPosition{ClientID: clientID, Name: name, IsActive: true}
	err := s.db.QueryRowContext(ctx,
		"INSERT INTO job_positions (client_id, name, is_active) VALUES ($1, $2, TRUE) RETURNING id, created_at",
		clientID, name).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return nil, errors.NewDatabaseInsertFailedError(err)
	}
	return p, nil
}

func (s *MasterStore) CreatePlacement(ctx context.Context, positionID int64, location, recruiterPhone string) (*models.JobPlacement, error) {
	pl := &models.JobPlacement{PositionID: positionID, Location: location, RecruiterPhone: recruiterPhone, IsActive: true}
	err := s.db.QueryRowContext(ctx,
		"INSERT INTO job_placements (position_id, location, recruiter_phone, is_active) VALUES ($1, $2, $3, TRUE) RETURNING id, created_at",
		positionID, location, recruiterPhone).Scan(&pl.ID, &pl.CreatedAt)
	if err != nil {
		return nil, errors.NewDatabaseInsertFailedError(err)
	}
	return pl, nil
}

func (s *MasterStore) exec(ctx context.Context, entity string, id int64, query string, args ...interface{}) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.NewDatabaseUpdateFailedError(entity, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.NewDatabaseUpdateFailedError(entity, err)
	}
	if n == 0 {
		return errors.NewResourceNotFoundError(entity, fmt.Sprintf("id %d", id))
	}
	return nil
}

func (s *MasterStore) RenameClient(ctx context.Context, id int64, name string) error {
	return s.exec(ctx, "client", id, "UPDATE job_clients SET name = $1 WHERE id = $2", name, id)
}

func (s *MasterStore) RenamePosition(ctx context.Context, id int64, name string) error {
	return s.exec(ctx, "position", id, "UPDATE job_positions SET name = $1 WHERE id = $2", name, id)
}

func (s *MasterStore) UpdatePlacement(ctx context.Context, id int64, location, recruiterPhone string) error {
	return s.exec(ctx, "placement", id,
		"UPDATE job_placements SET location = $1, recruiter_phone = $2 WHERE id = $3", location, recruiterPhone, id)
}

// SetActive toggles visibility of a row on the public form.
func (s *MasterStore) SetActive(ctx context.Context, kind MasterKind, id int64, active bool) error {
	if _, err := ParseMasterKind(string(kind)); err != nil {
		return err
	}
	query := fmt.Sprintf("UPDATE %s SET is_active = $1 WHERE id = $2", string(kind))
	return s.exec(ctx, string(kind), id, query, active, id)
}

// DeleteClient removes a client with its positions and their placements in
// one transaction.
func (s *MasterStore) DeleteClient(ctx context.Context, id int64) (DeletionPlan, error) {
	return s.cascade(ctx, "client", id, func(m models.MasterData) DeletionPlan {
		return PlanClientDeletion(m, id)
	})
}

// DeletePosition removes a position and its placements in one transaction.
func (s *MasterStore) DeletePosition(ctx context.Context, id int64) (DeletionPlan, error) {
	return s.cascade(ctx, "position", id, func(m models.MasterData) DeletionPlan {
		return PlanPositionDeletion(m, id)
	})
}

// DeletePlacement removes a single placement.
func (s *MasterStore) DeletePlacement(ctx context.Context, id int64) (DeletionPlan, error) {
	if err := s.exec(ctx, "placement", id, "DELETE FROM job_placements WHERE id = $1", id); err != nil {
		return DeletionPlan{}, err
	}
	return DeletionPlan{PlacementIDs: []int64{id}, PositionIDs: []int64{}, ClientIDs: []int64{}}, nil
}

func (s *MasterStore) cascade(ctx context.Context, entity string, id int64, planFn func(models.MasterData) DeletionPlan) (DeletionPlan, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return DeletionPlan{}, errors.NewDatabaseUpdateFailedError(entity, err)
	}
	defer tx.Rollback()

	m, err := loadMaster(ctx, tx)
	if err != nil {
		return DeletionPlan{}, errors.NewQueryExecutionFailedError("load_master", err)
	}
	plan := planFn(m)
	if plan.Empty() {
		return DeletionPlan{}, errors.NewResourceNotFoundError(entity, fmt.Sprintf("id %d", id))
	}

	steps := []struct {
		table string
		ids   []int64
	}{
		{realtime.TablePlacements, plan.PlacementIDs},
		{realtime.TablePositions, plan.PositionIDs},
		{realtime.TableClients, plan.ClientIDs},
	}
	for _, step := range steps {
		if len(step.ids) == 0 {
			continue
		}
		query := fmt.Sprintf("DELETE FROM %s WHERE id = ANY($1)", step.table)
		if _, err := tx.ExecContext(ctx, query, pq.Array(step.ids)); err != nil {
			return DeletionPlan{}, errors.NewDatabaseUpdateFailedError(entity, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return DeletionPlan{}, errors.NewDatabaseUpdateFailedError(entity, err)
	}

	s.logger.Info(entity+" deleted", map[string]interface{}{
		"id":         id,
		"positions":  len(plan.PositionIDs),
		"placements": len(plan.PlacementIDs),
	})
	return plan, nil
}

// IsNotFound reports whether err is a missing-row error from this package.
func IsNotFound(err error) bool {
	var stdErr *errors.StandardError
	return stderrors.As(err, &stdErr) && stdErr.Code == errors.ErrCodeResourceNotFound
}
