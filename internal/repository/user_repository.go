package repository

import (
	"context"

	"github.com/spec-kit/users-service/internal/columns"
	"github.com/spec-kit/users-service/internal/domain"
)

// UserRepository defines persistence access for the users resource.
type UserRepository interface {
	List(ctx context.Context, req domain.PageRequest) (*domain.Page[*domain.User], error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	FindDuplicate(ctx context.Context, excludeID int64, email, username string) (*domain.User, error)
	Save(ctx context.Context, user *domain.User) (*domain.User, error)
	SoftDeleteByID(ctx context.Context, id int64) (int64, error)
}

type userRepository struct {
	*CoreRepository[domain.User]
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(db Querier) UserRepository {
	return &userRepository{CoreRepository: NewCoreRepository(db, userDescriptor())}
}

func userDescriptor() Descriptor[domain.User] {
	return Descriptor[domain.User]{
		Table:   "users",
		Columns: []string{"name", "email", "username", "status", "is_active", "avatar"},
		Codecs: columns.Table{
			"status":    columns.Enum(domain.UserStatusEnabled, domain.UserStatusDisabled),
			"is_active": columns.Bool(),
		},
		Values: func(u *domain.User) []any {
			return []any{u.Name, u.Email, u.Username, u.Status, u.IsActive, u.Avatar}
		},
		Scan: scanUser,
		Meta: func(u *domain.User) *domain.Entity { return &u.Entity },
	}
}

func scanUser(row RowScanner) (*domain.User, error) {
	var u domain.User
	var status string
	if err := row.Scan(
		&u.ID,
		&u.ClientID,
		&u.Name,
		&u.Email,
		&u.Username,
		&status,
		&u.IsActive,
		&u.Avatar,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.DeletedAt,
		&u.CreatedBy,
		&u.UpdatedBy,
		&u.DeletedBy,
	); err != nil {
		return nil, err
	}
	u.Status = domain.UserStatus(status)
	return &u, nil
}

// List pages through users, optionally filtered by a case-insensitive name
// substring.
func (r *userRepository) List(ctx context.Context, req domain.PageRequest) (*domain.Page[*domain.User], error) {
	req = req.Normalize()
	q := r.Select()
	if req.HasKeyword() {
		q.Where("LOWER(name) LIKE ?", req.Keyword())
	}
	q.OrderBy("id ASC")
	return r.Paginate(ctx, q, req.Page, req.Limit)
}

// FindByID returns the user or nil when absent.
func (r *userRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.FindOne(ctx, r.Select().Where("id = ?", id))
}

// GetByID returns the user or ErrNotFound.
func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.FindOneOrFail(ctx, r.Select().Where("id = ?", id))
}

// FindDuplicate searches for a user whose email or username collides
// case-insensitively with either the candidate email or candidate username.
// The cross-field OR is deliberate: an email matching an existing username
// also counts as a collision.
func (r *userRepository) FindDuplicate(ctx context.Context, excludeID int64, email, username string) (*domain.User, error) {
	q := r.Select().Where(
		`(LOWER(email) = LOWER(?) OR LOWER(email) = LOWER(?) OR LOWER(username) = LOWER(?) OR LOWER(username) = LOWER(?))`,
		email, username, email, username,
	)
	if excludeID > 0 {
		q.Where("id <> ?", excludeID)
	}
	return r.FindOne(ctx, q)
}

// SoftDeleteByID soft-deletes a single user and reports the affected count.
func (r *userRepository) SoftDeleteByID(ctx context.Context, id int64) (int64, error) {
	return r.SoftDelete(ctx, "id = ?", id)
}
