package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/users-service/internal/api/http"
	"github.com/spec-kit/users-service/internal/api/http/handlers"
	"github.com/spec-kit/users-service/internal/auth"
	"github.com/spec-kit/users-service/internal/domain"
	"github.com/spec-kit/users-service/internal/observability"
	"github.com/spec-kit/users-service/internal/service"
	"github.com/spec-kit/users-service/pkg/util"
)

// stubUserService returns canned results per operation.
type stubUserService struct {
	listResult   *domain.Page[*domain.User]
	detailResult *domain.User
	createResult *domain.User
	updateResult *domain.User
	deleteResult int64
	err          error

	lastListReq domain.PageRequest
}

func (s *stubUserService) List(_ context.Context, req domain.PageRequest) (*domain.Page[*domain.User], error) {
	s.lastListReq = req
	return s.listResult, s.err
}

func (s *stubUserService) Detail(context.Context, int64) (*domain.User, error) {
	return s.detailResult, s.err
}

func (s *stubUserService) Create(context.Context, service.CreateUserInput) (*domain.User, error) {
	return s.createResult, s.err
}

func (s *stubUserService) Update(context.Context, int64, service.UpdateUserInput) (*domain.User, error) {
	return s.updateResult, s.err
}

func (s *stubUserService) Delete(context.Context, int64) (int64, error) {
	return s.deleteResult, s.err
}

func newTestApp(svc handlers.UserService) *fiber.App {
	app := fiber.New()
	httptransport.RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), 0)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler("test", "dev", nil, nil),
		Users:          handlers.NewUsersHandler(svc, 100),
		AuthMiddleware: auth.NewMiddleware(nil),
	})
	return app
}

func decodeBody(t *testing.T, resp io.Reader) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp).Decode(&body))
	return body
}

func sampleUser(id int64) *domain.User {
	u := &domain.User{
		Name:     "A",
		Email:    "a@x.com",
		Username: "a",
		Status:   domain.UserStatusEnabled,
		IsActive: 1,
	}
	u.ID = id
	return u
}

func TestGetListSuccess(t *testing.T) {
	svc := &stubUserService{
		listResult: domain.NewPage([]*domain.User{sampleUser(1)}, 1, 1, 20),
	}
	app := newTestApp(svc)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/users?page=2&limit=5&keyword=an", nil))
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	body := decodeBody(t, resp.Body)
	require.Equal(t, float64(200), body["code"])
	require.Equal(t, "Get list data success", body["message"])

	require.Equal(t, 2, svc.lastListReq.Page)
	require.Equal(t, 5, svc.lastListReq.Limit)
	require.Equal(t, "an", svc.lastListReq.Key)
}

func TestGetListLimitCapped(t *testing.T) {
	svc := &stubUserService{listResult: domain.NewPage[*domain.User](nil, 0, 1, 20)}
	app := newTestApp(svc)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/users?limit=10000000", nil))
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)
	require.Equal(t, 100, svc.lastListReq.Limit)
}

func TestGetDetailSuccess(t *testing.T) {
	svc := &stubUserService{detailResult: sampleUser(12)}
	app := newTestApp(svc)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/users/12", nil))
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	body := decodeBody(t, resp.Body)
	require.Equal(t, "Get Detail data success", body["message"])
	data := body["data"].(map[string]any)
	require.Equal(t, float64(12), data["id"])
	require.Equal(t, "enabled", data["status"])
	require.Equal(t, float64(1), data["isActive"])
}

func TestGetDetailNotFound(t *testing.T) {
	svc := &stubUserService{err: util.NewNotFoundError("User not found!")}
	app := newTestApp(svc)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/users/99", nil))
	require.NoError(t, err)
	require.Equal(t, 404, resp.StatusCode)

	body := decodeBody(t, resp.Body)
	require.Equal(t, float64(util.CodeNotFound), body["errorCode"])
	require.Equal(t, "User not found!", body["message"])
}

func TestGetDetailMalformedID(t *testing.T) {
	svc := &stubUserService{}
	app := newTestApp(svc)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/users/abc", nil))
	require.NoError(t, err)
	require.Equal(t, 400, resp.StatusCode)

	body := decodeBody(t, resp.Body)
	require.Equal(t, float64(util.CodeValidation), body["errorCode"])
}

func TestCreateSuccessIsHTTP200(t *testing.T) {
	svc := &stubUserService{createResult: sampleUser(3)}
	app := newTestApp(svc)

	payload := bytes.NewBufferString(`{"name":"A","email":"a@x.com","username":"a"}`)
	req := httptest.NewRequest("POST", "/api/users", payload)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	body := decodeBody(t, resp.Body)
	require.Equal(t, "Create data success", body["message"])
	require.Equal(t, float64(3), body["data"].(map[string]any)["id"])
}

func TestCreateDuplicate(t *testing.T) {
	svc := &stubUserService{err: util.NewDuplicateError("Email or username is invalid or has been used!")}
	app := newTestApp(svc)

	payload := bytes.NewBufferString(`{"name":"B","email":"A@X.com","username":"b"}`)
	req := httptest.NewRequest("POST", "/api/users", payload)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, 400, resp.StatusCode)

	body := decodeBody(t, resp.Body)
	require.Equal(t, float64(util.CodeDuplicate), body["errorCode"])
}

func TestDeleteReturnsAffected(t *testing.T) {
	svc := &stubUserService{deleteResult: 1}
	app := newTestApp(svc)

	resp, err := app.Test(httptest.NewRequest("DELETE", "/api/users/4", nil))
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	body := decodeBody(t, resp.Body)
	require.Equal(t, "Delete data success", body["message"])
	require.Equal(t, float64(1), body["data"].(map[string]any)["affected"])
}

func TestFailedRequestRecordedWithRealStatus(t *testing.T) {
	svc := &stubUserService{err: util.NewNotFoundError("User not found!")}
	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, zap.NewNop(), metrics, 0)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler("test", "dev", nil, nil),
		Users:          handlers.NewUsersHandler(svc, 100),
		AuthMiddleware: auth.NewMiddleware(nil),
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/users/9", nil))
	require.NoError(t, err)
	require.Equal(t, 404, resp.StatusCode)

	require.Equal(t, int64(1), metrics.RequestTotal("/api/users/9", "GET", 404))
	require.Equal(t, int64(0), metrics.RequestTotal("/api/users/9", "GET", 200))
}

func TestPing(t *testing.T) {
	app := newTestApp(&stubUserService{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/ping", nil))
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	body := decodeBody(t, resp.Body)
	require.Equal(t, "Pong", body["message"])
}
