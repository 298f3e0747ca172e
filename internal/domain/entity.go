package domain

import "time"

// Entity holds the identity and audit columns shared by every persisted
// record. ID is immutable once assigned; a non-nil DeletedAt marks the row
// as logically absent from default-scoped queries while remaining stored.
type Entity struct {
	ID        int64      `json:"id"`
	ClientID  *string    `json:"clientId,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"-"`
	CreatedBy *int64     `json:"-"`
	UpdatedBy *int64     `json:"-"`
	DeletedBy *int64     `json:"-"`
}

// IsDeleted reports whether the record has been soft-deleted.
func (e *Entity) IsDeleted() bool {
	return e.DeletedAt != nil
}
