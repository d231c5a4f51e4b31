package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/mentor-api/internal/models"
	"github.com/noah-isme/mentor-api/pkg/database"
)

// GroupRepository manages groups and their memberships.
type GroupRepository struct {
	db *sqlx.DB
}

// NewGroupRepository constructs a GroupRepository.
func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// List returns groups with their current member count ordered by name.
func (r *GroupRepository) List(ctx context.Context, filter models.GroupFilter) ([]models.Group, error) {
	query := `SELECT g.id, g.name, g.created_at, COUNT(sg.student_id) AS student_count
        FROM groups g LEFT JOIN student_groups sg ON sg.group_id = g.id`
	var args []interface{}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query += " WHERE LOWER(g.name) LIKE $1"
		args = append(args, "%"+strings.ToLower(search)+"%")
	}
	query += " GROUP BY g.id, g.name, g.created_at ORDER BY g.name ASC, g.id ASC"

	var groups []models.Group
	if err := r.db.SelectContext(ctx, &groups, query, args...); err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

// FindByID fetches a group by its identifier.
func (r *GroupRepository) FindByID(ctx context.Context, id string) (*models.Group, error) {
	const query = `SELECT g.id, g.name, g.created_at,
        (SELECT COUNT(*) FROM student_groups sg WHERE sg.group_id = g.id) AS student_count
        FROM groups g WHERE g.id = $1`
	var group models.Group
	if err := r.db.GetContext(ctx, &group, query, id); err != nil {
		return nil, err
	}
	return &group, nil
}

// Create inserts a new group.
func (r *GroupRepository) Create(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	if group.CreatedAt.IsZero() {
		group.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO groups (id, name, created_at) VALUES (:id, :name, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, group); err != nil {
		return fmt.Errorf("create group: %w", err)
	}
	return nil
}

// Rename changes the group name. It returns false when no group matched.
func (r *GroupRepository) Rename(ctx context.Context, id, name string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE groups SET name = $1 WHERE id = $2`, name, id)
	if err != nil {
		return false, fmt.Errorf("rename group: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rename group rows: %w", err)
	}
	return affected > 0, nil
}

// Delete removes the memberships and then the group in one transaction.
// Lessons and participation rows recorded for the group are kept.
func (r *GroupRepository) Delete(ctx context.Context, id string) (bool, error) {
	var affected int64
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM student_groups WHERE group_id = $1`, id); err != nil {
			return fmt.Errorf("delete group memberships: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM groups WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete group: %w", err)
		}
		affected, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete group rows: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// AddMember links a student to a group. Existing links are left untouched.
func (r *GroupRepository) AddMember(ctx context.Context, groupID, studentID string) error {
	const query = `INSERT INTO student_groups (student_id, group_id) VALUES ($1, $2)
        ON CONFLICT (student_id, group_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, studentID, groupID); err != nil {
		return fmt.Errorf("add group member: %w", err)
	}
	return nil
}

// RemoveMember unlinks a student from a group. Historical participation rows stay.
func (r *GroupRepository) RemoveMember(ctx context.Context, groupID, studentID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM student_groups WHERE student_id = $1 AND group_id = $2`, studentID, groupID)
	if err != nil {
		return false, fmt.Errorf("remove group member: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove group member rows: %w", err)
	}
	return affected > 0, nil
}
