// AngelaMos | 2026
// entity.go

package catalog

import (
	"time"
)

type Component struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Type      string    `db:"type"`
	Code      string    `db:"code"`
	ExtraCode *string   `db:"extra_code"`
	CreatedBy *string   `db:"created_by"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
