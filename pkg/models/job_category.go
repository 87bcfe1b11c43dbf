package models

import (
	"time"

	"github.com/google/uuid"
)

// JobCategory is a read-only lookup row offered to the model as the allowed
// values of job_category_name.
type JobCategory struct {
	ID        uuid.UUID `db:"id"         json:"id"`
	Name      string    `db:"name"       json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
