package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/users-service/internal/auth"
	"github.com/spec-kit/users-service/internal/domain"
	"github.com/spec-kit/users-service/internal/events"
	"github.com/spec-kit/users-service/internal/repository"
	"github.com/spec-kit/users-service/pkg/util"
)

// fakeUserRepo is an in-memory stand-in honoring the repository contract:
// soft-deleted users are invisible to every lookup by default.
type fakeUserRepo struct {
	users   map[int64]*domain.User
	nextID  int64
	saved   int
	saveErr error
}

func newFakeUserRepo(seed ...*domain.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: map[int64]*domain.User{}, nextID: 1}
	for _, u := range seed {
		if u.ID == 0 {
			u.ID = repo.nextID
		}
		if u.ID >= repo.nextID {
			repo.nextID = u.ID + 1
		}
		repo.users[u.ID] = u
	}
	return repo
}

func (r *fakeUserRepo) List(_ context.Context, req domain.PageRequest) (*domain.Page[*domain.User], error) {
	req = req.Normalize()
	var matches []*domain.User
	for id := int64(1); id < r.nextID; id++ {
		u, ok := r.users[id]
		if !ok || u.IsDeleted() {
			continue
		}
		if req.HasKeyword() && !strings.Contains(strings.ToLower(u.Name), strings.ToLower(req.Key)) {
			continue
		}
		matches = append(matches, u)
	}
	total := len(matches)
	start := req.Offset()
	if start > total {
		start = total
	}
	end := start + req.Limit
	if end > total {
		end = total
	}
	return domain.NewPage(matches[start:end], total, req.Page, req.Limit), nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok || u.IsDeleted() {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	u, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) FindDuplicate(_ context.Context, excludeID int64, email, username string) (*domain.User, error) {
	for _, u := range r.users {
		if u.IsDeleted() || u.ID == excludeID {
			continue
		}
		for _, candidate := range []string{email, username} {
			if strings.EqualFold(u.Email, candidate) || strings.EqualFold(u.Username, candidate) {
				return u, nil
			}
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) Save(_ context.Context, user *domain.User) (*domain.User, error) {
	if r.saveErr != nil {
		return nil, r.saveErr
	}
	r.saved++
	if user.ID == 0 {
		user.ID = r.nextID
		r.nextID++
		user.CreatedAt = time.Now()
	}
	user.UpdatedAt = time.Now()
	copied := *user
	r.users[user.ID] = &copied
	return user, nil
}

func (r *fakeUserRepo) SoftDeleteByID(_ context.Context, id int64) (int64, error) {
	u, ok := r.users[id]
	if !ok || u.IsDeleted() {
		return 0, nil
	}
	now := time.Now()
	u.DeletedAt = &now
	return 1, nil
}

func actingCtx(id int64) context.Context {
	return auth.WithActingUser(context.Background(), auth.ActingUser{ID: id, Name: "tester"})
}

func seedUser(id int64, name, email, username string) *domain.User {
	u := &domain.User{
		Name:     name,
		Email:    email,
		Username: username,
		Status:   domain.UserStatusEnabled,
		IsActive: 1,
	}
	u.ID = id
	return u
}

func requireAppError(t *testing.T, err error, status, errorCode int) {
	t.Helper()
	appErr := util.ToAppError(err)
	require.Equal(t, status, appErr.HTTPStatus)
	require.Equal(t, errorCode, appErr.ErrorCode)
}

func TestCreateSuccess(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo, nil)

	user, err := svc.Create(actingCtx(7), CreateUserInput{Name: "A", Email: "a@x.com", Username: "a"})
	require.NoError(t, err)
	require.Greater(t, user.ID, int64(0))
	require.Equal(t, domain.UserStatusEnabled, user.Status)
	require.Equal(t, int16(1), user.IsActive)
	require.Equal(t, int64(7), *user.CreatedBy)
	require.Equal(t, int64(7), *user.UpdatedBy)
}

func TestCreateUsernameFallsBackToEmail(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo, nil)

	user, err := svc.Create(actingCtx(1), CreateUserInput{Name: "A", Email: "a@x.com"})
	require.NoError(t, err)
	require.Equal(t, "a@x.com", user.Username)
}

func TestCreateWithoutActingUser(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo, nil)

	user, err := svc.Create(context.Background(), CreateUserInput{Name: "A", Email: "a@x.com", Username: "a"})
	require.NoError(t, err)
	require.Nil(t, user.CreatedBy)
	require.Nil(t, user.UpdatedBy)
}

func TestCreateDuplicateEmailCaseInsensitive(t *testing.T) {
	repo := newFakeUserRepo(seedUser(1, "A", "a@x.com", "a"))
	svc := NewUserService(repo, nil)

	_, err := svc.Create(actingCtx(1), CreateUserInput{Name: "B", Email: "A@X.COM", Username: "b"})
	requireAppError(t, err, 400, util.CodeDuplicate)
}

func TestCreateDuplicateCrossField(t *testing.T) {
	repo := newFakeUserRepo(seedUser(1, "Bob", "bob@x.com", "bob"))
	svc := NewUserService(repo, nil)

	// the new email collides with an existing username
	_, err := svc.Create(actingCtx(1), CreateUserInput{Name: "B", Email: "BOB", Username: "other"})
	requireAppError(t, err, 400, util.CodeDuplicate)
}

func TestDetail(t *testing.T) {
	repo := newFakeUserRepo(seedUser(1, "A", "a@x.com", "a"))
	svc := NewUserService(repo, nil)

	user, err := svc.Detail(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "A", user.Name)

	_, err = svc.Detail(context.Background(), 99)
	requireAppError(t, err, 404, util.CodeNotFound)
}

func TestUpdateNotFound(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo, nil)

	_, err := svc.Update(actingCtx(1), 42, UpdateUserInput{})
	requireAppError(t, err, 404, util.CodeNotFound)
	require.Zero(t, repo.saved)
}

func TestUpdatePartialMergePreservesFields(t *testing.T) {
	seed := seedUser(1, "Old Name", "a@x.com", "a")
	avatar := "https://cdn/x.png"
	seed.Avatar = &avatar
	repo := newFakeUserRepo(seed)
	svc := NewUserService(repo, nil)

	name := "New Name"
	updated, err := svc.Update(actingCtx(1), 1, UpdateUserInput{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "New Name", updated.Name)
	require.Equal(t, "a@x.com", updated.Email)
	require.Equal(t, "a", updated.Username)
	require.Equal(t, domain.UserStatusEnabled, updated.Status)
	require.Equal(t, int16(1), updated.IsActive)
	require.Equal(t, "https://cdn/x.png", *updated.Avatar)
}

func TestUpdateRowVanishesBetweenLookupAndSave(t *testing.T) {
	repo := newFakeUserRepo(seedUser(1, "A", "a@x.com", "a"))
	repo.saveErr = repository.ErrNotFound
	svc := NewUserService(repo, nil)

	name := "B"
	_, err := svc.Update(actingCtx(1), 1, UpdateUserInput{Name: &name})
	requireAppError(t, err, 404, util.CodeNotFound)
}

func TestDelete(t *testing.T) {
	repo := newFakeUserRepo(seedUser(1, "A", "a@x.com", "a"))
	svc := NewUserService(repo, nil)

	affected, err := svc.Delete(actingCtx(1), 1)
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)

	// the row still exists but is invisible to default-scoped lookups
	require.NotNil(t, repo.users[1])
	require.True(t, repo.users[1].IsDeleted())

	_, err = svc.Detail(context.Background(), 1)
	requireAppError(t, err, 404, util.CodeNotFound)

	// a second delete is indistinguishable from a missing user
	_, err = svc.Delete(actingCtx(1), 1)
	requireAppError(t, err, 404, util.CodeNotFound)
}

func TestDeleteNotFound(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo, nil)

	_, err := svc.Delete(actingCtx(1), 5)
	requireAppError(t, err, 404, util.CodeNotFound)
}

func TestListKeywordAndPaging(t *testing.T) {
	repo := newFakeUserRepo(
		seedUser(1, "Alice", "alice@x.com", "alice"),
		seedUser(2, "Bob", "bob@x.com", "bob"),
		seedUser(3, "Alicia", "alicia@x.com", "alicia"),
	)
	svc := NewUserService(repo, nil)

	page, err := svc.List(context.Background(), domain.PageRequest{Key: "ali"})
	require.NoError(t, err)
	require.Equal(t, 2, page.Meta.TotalItems)
	require.Equal(t, 2, page.Meta.ItemCount)
	require.Equal(t, 1, page.Meta.TotalPages)

	page, err = svc.List(context.Background(), domain.PageRequest{Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Equal(t, 3, page.Meta.TotalItems)
	require.Equal(t, 1, page.Meta.ItemCount)
	require.Equal(t, 2, page.Meta.TotalPages)
}

func TestLifecycleEventsPublished(t *testing.T) {
	repo := newFakeUserRepo()
	dispatcher := events.NewInMemoryDispatcher()

	var seen []events.EventType
	record := func(_ context.Context, e events.Event) error {
		seen = append(seen, e.Type)
		return nil
	}
	dispatcher.Subscribe(events.EventUserCreated, record)
	dispatcher.Subscribe(events.EventUserUpdated, record)
	dispatcher.Subscribe(events.EventUserDeleted, record)

	svc := NewUserService(repo, dispatcher)
	ctx := actingCtx(1)

	user, err := svc.Create(ctx, CreateUserInput{Name: "A", Email: "a@x.com", Username: "a"})
	require.NoError(t, err)

	name := "B"
	_, err = svc.Update(ctx, user.ID, UpdateUserInput{Name: &name})
	require.NoError(t, err)

	_, err = svc.Delete(ctx, user.ID)
	require.NoError(t, err)

	require.Equal(t, []events.EventType{
		events.EventUserCreated,
		events.EventUserUpdated,
		events.EventUserDeleted,
	}, seen)
}
