package handler

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/eaglebank/ledger-service/shared/cqrs"
	"github.com/eaglebank/ledger-service/shared/models"
)

// ---- test data ----

var uTestUser = &models.User{
	ID: 1, Name: "Alice", Email: "alice@example.com", CreatedAt: time.Now(),
	Profile: &models.Profile{ID: 1, Bio: "hello", UserID: 1},
}

func uValidCreateBody() map[string]interface{} {
	return map[string]interface{}{"name": "Alice", "email": "alice@example.com", "bio": "hello"}
}

// ---- tests ----

func TestCreateUser(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		createFn       func(cqrs.CreateUserCommand) (*models.User, error)
		expectedStatus int
	}{
		{
			name: "success - creates user with profile",
			body: uValidCreateBody(),
			createFn: func(cmd cqrs.CreateUserCommand) (*models.User, error) {
				if cmd.Bio != "hello" {
					return nil, errors.New("bio not forwarded")
				}
				return uTestUser, nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "bad request - missing name",
			body:           map[string]interface{}{"email": "alice@example.com"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - invalid email format",
			body:           map[string]interface{}{"name": "Alice", "email": "not-valid"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - malformed json",
			body:           `{"name": `,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "conflict - email already exists",
			body:           uValidCreateBody(),
			createFn:       func(cmd cqrs.CreateUserCommand) (*models.User, error) { return nil, models.ErrEmailTaken },
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "internal error - store failure",
			body:           uValidCreateBody(),
			createFn:       func(cmd cqrs.CreateUserCommand) (*models.User, error) { return nil, errors.New("failed to create user: connection refused") },
			expectedStatus: http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDeps()
			d.userCmds.createFn = tt.createFn
			w := doRequest(d.router(), http.MethodPost, "/api/v1/users", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected status %d, got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestCreateUser_ValidationDetails(t *testing.T) {
	d := newTestDeps()
	w := doRequest(d.router(), http.MethodPost, "/api/v1/users", map[string]interface{}{"name": "Alice"})

	body := decodeBody(w)
	details, ok := body["details"].([]interface{})
	if !ok || len(details) != 1 {
		t.Fatalf("expected one validation detail, got %v", body)
	}
	if field := details[0].(map[string]interface{})["field"]; field != "Email" {
		t.Errorf("expected Email field error, got %v", field)
	}
}

func TestListUsers(t *testing.T) {
	d := newTestDeps()
	d.userQrys.listFn = func() ([]models.User, error) { return []models.User{*uTestUser}, nil }

	w := doRequest(d.router(), http.MethodGet, "/api/v1/users", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	users, ok := decodeBody(w)["users"].([]interface{})
	if !ok || len(users) != 1 {
		t.Errorf("expected users list with one entry, got %s", w.Body.String())
	}
}

func TestGetUser(t *testing.T) {
	tests := []struct {
		name           string
		urlUserID      string
		getFn          func(cqrs.GetUserQuery) (*models.User, error)
		expectedStatus int
	}{
		{
			name:      "success - user with profile",
			urlUserID: "1",
			getFn: func(q cqrs.GetUserQuery) (*models.User, error) {
				if q.UserID != 1 {
					return nil, models.ErrUserNotFound
				}
				return uTestUser, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "not found - user does not exist",
			urlUserID:      "999",
			getFn:          func(q cqrs.GetUserQuery) (*models.User, error) { return nil, models.ErrUserNotFound },
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "bad request - non-integer id",
			urlUserID:      "abc",
			expectedStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDeps()
			d.userQrys.getFn = tt.getFn
			w := doRequest(d.router(), http.MethodGet, "/api/v1/users/"+tt.urlUserID, nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected status %d, got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestUpdateUser(t *testing.T) {
	tests := []struct {
		name           string
		urlUserID      string
		body           interface{}
		updateFn       func(cqrs.UpdateUserCommand) (*models.User, error)
		expectedStatus int
	}{
		{
			name:      "success - partial update forwards only present fields",
			urlUserID: "1",
			body:      map[string]interface{}{"bio": "updated"},
			updateFn: func(cmd cqrs.UpdateUserCommand) (*models.User, error) {
				if cmd.Name != nil || cmd.Email != nil || cmd.Bio == nil || *cmd.Bio != "updated" {
					return nil, errors.New("unexpected command")
				}
				return uTestUser, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "not found - user does not exist",
			urlUserID:      "999",
			body:           map[string]interface{}{"name": "x"},
			updateFn:       func(cmd cqrs.UpdateUserCommand) (*models.User, error) { return nil, models.ErrUserNotFound },
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "bad request - invalid email",
			urlUserID:      "1",
			body:           map[string]interface{}{"email": "nope"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "internal error - store failure carries details",
			urlUserID:      "1",
			body:           map[string]interface{}{"name": "x"},
			updateFn:       func(cmd cqrs.UpdateUserCommand) (*models.User, error) { return nil, errors.New("failed to update user: timeout") },
			expectedStatus: http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDeps()
			d.userCmds.updateFn = tt.updateFn
			w := doRequest(d.router(), http.MethodPut, "/api/v1/users/"+tt.urlUserID, tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected status %d, got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
			if w.Code == http.StatusOK {
				body := decodeBody(w)
				if body["message"] == nil || body["user"] == nil {
					t.Errorf("expected message and user, got %s", w.Body.String())
				}
			}
			if w.Code == http.StatusInternalServerError && decodeBody(w)["details"] != "failed to update user: timeout" {
				t.Errorf("expected details in body, got %s", w.Body.String())
			}
		})
	}
}

func TestDeleteUser(t *testing.T) {
	tests := []struct {
		name           string
		urlUserID      string
		deleteFn       func(cqrs.DeleteUserCommand) (*models.User, error)
		expectedStatus int
		expectedMsg    string
	}{
		{
			name:           "success - returns deleted user",
			urlUserID:      "1",
			deleteFn:       func(cmd cqrs.DeleteUserCommand) (*models.User, error) { return uTestUser, nil },
			expectedStatus: http.StatusOK,
			expectedMsg:    "User and profile deleted",
		},
		{
			name:           "not found - user has no profile",
			urlUserID:      "2",
			deleteFn:       func(cmd cqrs.DeleteUserCommand) (*models.User, error) { return nil, models.ErrProfileNotFound },
			expectedStatus: http.StatusNotFound,
			expectedMsg:    "Profile not found",
		},
		{
			name:           "conflict - user still owns accounts",
			urlUserID:      "1",
			deleteFn:       func(cmd cqrs.DeleteUserCommand) (*models.User, error) { return nil, models.ErrUserHasAccounts },
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "bad request - zero id",
			urlUserID:      "0",
			expectedStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDeps()
			d.userCmds.deleteFn = tt.deleteFn
			w := doRequest(d.router(), http.MethodDelete, "/api/v1/users/"+tt.urlUserID, nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected status %d, got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.expectedMsg != "" && decodeBody(w)["message"] != tt.expectedMsg {
				t.Errorf("[%s] expected message %q, got %s", tt.name, tt.expectedMsg, w.Body.String())
			}
		})
	}
}
