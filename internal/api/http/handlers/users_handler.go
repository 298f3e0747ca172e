package handlers

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/users-service/internal/api/dto"
	"github.com/spec-kit/users-service/internal/domain"
	"github.com/spec-kit/users-service/internal/service"
	"github.com/spec-kit/users-service/pkg/util"
)

// UserService is the service surface the handler consumes.
type UserService interface {
	List(ctx context.Context, req domain.PageRequest) (*domain.Page[*domain.User], error)
	Detail(ctx context.Context, id int64) (*domain.User, error)
	Create(ctx context.Context, input service.CreateUserInput) (*domain.User, error)
	Update(ctx context.Context, id int64, input service.UpdateUserInput) (*domain.User, error)
	Delete(ctx context.Context, id int64) (int64, error)
}

// UsersHandler translates each inbound call into exactly one service
// invocation. Failures are returned untouched for the process-wide error
// middleware.
type UsersHandler struct {
	users    UserService
	maxLimit int
}

// NewUsersHandler constructs the handler. maxLimit caps the page size at the
// boundary; the pagination engine itself imposes no bound.
func NewUsersHandler(users UserService, maxLimit int) *UsersHandler {
	return &UsersHandler{users: users, maxLimit: maxLimit}
}

// GetList handles GET /api/users.
func (h *UsersHandler) GetList(c *fiber.Ctx) error {
	var query dto.ListUsersQuery
	if err := c.QueryParser(&query); err != nil {
		return util.NewValidationError("Invalid query parameters!")
	}
	if h.maxLimit > 0 && query.Limit > h.maxLimit {
		query.Limit = h.maxLimit
	}

	result, err := h.users.List(c.UserContext(), domain.PageRequest{
		Page:  query.Page,
		Limit: query.Limit,
		Key:   query.Keyword,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.Success("Get list data success", result))
}

// GetDetail handles GET /api/users/:id.
func (h *UsersHandler) GetDetail(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	result, err := h.users.Detail(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(dto.Success("Get Detail data success", result))
}

// Create handles POST /api/users.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("Invalid payload!")
	}

	result, err := h.users.Create(c.UserContext(), service.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Username: req.Username,
		Status:   req.Status,
		IsActive: req.IsActive,
		Avatar:   req.Avatar,
		ClientID: req.ClientID,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.Success("Create data success", result))
}

// Update handles PUT /api/users/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("Invalid payload!")
	}

	result, err := h.users.Update(c.UserContext(), id, service.UpdateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Username: req.Username,
		Status:   req.Status,
		IsActive: req.IsActive,
		Avatar:   req.Avatar,
		ClientID: req.ClientID,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.Success("Update data success", result))
}

// Delete handles DELETE /api/users/:id.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	affected, err := h.users.Delete(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(dto.Success("Delete data success", dto.DeleteResult{Affected: affected}))
}

// parseID rejects malformed ids at the boundary instead of letting them fall
// through as a spurious not-found.
func parseID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, util.NewValidationError("Invalid id parameter!")
	}
	return id, nil
}
