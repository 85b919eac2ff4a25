// AngelaMos | 2026
// repository.go

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/carterperez-dev/component-store/internal/core"
	"github.com/carterperez-dev/component-store/internal/entitlement"
)

type Repository interface {
	entitlement.CatalogReader

	Create(ctx context.Context, c *Component) error
	GetByID(ctx context.Context, id string) (*Component, error)
	Exists(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, params ListParams) ([]Component, int, error)
	Search(ctx context.Context, term string, params ListParams) ([]Component, int, error)
	Count(ctx context.Context) (int, error)
}

// repository hides the reserved id from every read. It can still exist as
// a legacy row; it is simply never returned.
type repository struct {
	db       core.DBTX
	reserved string
}

func NewRepository(db core.DBTX, reservedID string) Repository {
	return &repository{db: db, reserved: reservedID}
}

const componentColumns = `id, name, type, code, extra_code, created_by, created_at, updated_at`

func (r *repository) Create(ctx context.Context, c *Component) error {
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	query := r.db.Rebind(`
		INSERT INTO components (` + componentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		c.ID,
		c.Name,
		c.Type,
		c.Code,
		c.ExtraCode,
		c.CreatedBy,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create component: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create component: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Component, error) {
	if id == r.reserved {
		return nil, fmt.Errorf("get component: %w", core.ErrNotFound)
	}

	query := r.db.Rebind(`SELECT ` + componentColumns + ` FROM components WHERE id = ?`)

	var c Component
	err := r.db.GetContext(ctx, &c, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get component: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get component: %w", err)
	}

	return &c, nil
}

func (r *repository) Exists(ctx context.Context, id string) (bool, error) {
	if id == r.reserved {
		return false, nil
	}

	query := r.db.Rebind(`SELECT EXISTS(SELECT 1 FROM components WHERE id = ?)`)

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		return false, fmt.Errorf("check component exists: %w", err)
	}

	return exists, nil
}

func (r *repository) List(
	ctx context.Context,
	params ListParams,
) ([]Component, int, error) {
	params.Normalize()

	where := []string{"id <> ?"}
	args := []any{r.reserved}

	if params.Type != "" {
		where = append(where, "type = ?")
		args = append(args, params.Type)
	}

	return r.page(ctx, "list components", strings.Join(where, " AND "), args, params)
}

func (r *repository) Search(
	ctx context.Context,
	term string,
	params ListParams,
) ([]Component, int, error) {
	params.Normalize()

	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	where := `id <> ? AND (
		LOWER(id) LIKE ? ESCAPE '\' OR
		LOWER(name) LIKE ? ESCAPE '\' OR
		LOWER(type) LIKE ? ESCAPE '\')`
	args := []any{r.reserved, pattern, pattern, pattern}

	return r.page(ctx, "search components", where, args, params)
}

func (r *repository) page(
	ctx context.Context,
	op, where string,
	args []any,
	params ListParams,
) ([]Component, int, error) {
	countQuery := r.db.Rebind(`SELECT COUNT(*) FROM components WHERE ` + where)

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("%s count: %w", op, err)
	}

	query := r.db.Rebind(`
		SELECT ` + componentColumns + `
		FROM components
		WHERE ` + where + `
		ORDER BY name ASC, id ASC
		LIMIT ? OFFSET ?`)

	pageArgs := append(append([]any{}, args...), params.PageSize, params.Offset())

	components := []Component{}
	if err := r.db.SelectContext(ctx, &components, query, pageArgs...); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	return components, total, nil
}

func (r *repository) FreeTierIDs(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		return []string{}, nil
	}

	query := r.db.Rebind(`
		SELECT id FROM components
		WHERE id <> ?
		ORDER BY name ASC, id ASC
		LIMIT ?`)

	ids := []string{}
	if err := r.db.SelectContext(ctx, &ids, query, r.reserved, limit); err != nil {
		return nil, fmt.Errorf("free tier ids: %w", err)
	}

	return ids, nil
}

func (r *repository) AllIDs(ctx context.Context) ([]string, error) {
	query := r.db.Rebind(`
		SELECT id FROM components
		WHERE id <> ?
		ORDER BY name ASC, id ASC`)

	ids := []string{}
	if err := r.db.SelectContext(ctx, &ids, query, r.reserved); err != nil {
		return nil, fmt.Errorf("all component ids: %w", err)
	}

	return ids, nil
}

func (r *repository) Count(ctx context.Context) (int, error) {
	query := r.db.Rebind(`SELECT COUNT(*) FROM components WHERE id <> ?`)

	var n int
	if err := r.db.GetContext(ctx, &n, query, r.reserved); err != nil {
		return 0, fmt.Errorf("count components: %w", err)
	}

	return n, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
