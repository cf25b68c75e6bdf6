package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmpavlov/userkeeper/internal/common"
	"github.com/dmpavlov/userkeeper/internal/logging"
	"github.com/dmpavlov/userkeeper/internal/server/config"
	"github.com/dmpavlov/userkeeper/internal/server/repositories/accounts"
	"github.com/dmpavlov/userkeeper/internal/server/services"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	service, err := services.NewAccountService(accounts.NewMemoryRepository(), logger, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	server := NewServer(":0", logger, service, cfg.SecretKey)
	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)

	return ts
}

func doJSON(t *testing.T, ts *httptest.Server, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	return resp, data
}

func createUser(t *testing.T, ts *httptest.Server, name, email, password string) *UserResponse {
	t.Helper()

	resp, body := doJSON(t, ts, http.MethodPost, "/users", "", &CreateUserRequest{
		Name:     name,
		Email:    email,
		Password: password,
		Phones:   []PhoneRequest{{Number: "988887888", CityCode: "11", CountryCode: "+55"}},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d (%s)", http.StatusCreated, resp.StatusCode, body)
	}

	var user UserResponse
	if err := json.Unmarshal(body, &user); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	return &user
}

func TestHandler_Create(t *testing.T) {
	ts := newTestServer(t)

	user := createUser(t, ts, "Ana", "ana@mail.com", "Secret123")

	if user.ID == "" {
		t.Error("expected a non-empty id")
	}
	if user.Token == "" {
		t.Error("expected a session token")
	}
	if !user.Active {
		t.Error("expected the account to be active")
	}
	if len(user.Phones) != 1 || user.Phones[0].Number != "988887888" {
		t.Errorf("unexpected phones: %v", user.Phones)
	}
}

func TestHandler_Create_InvalidEmail(t *testing.T) {
	ts := newTestServer(t)

	resp, body := doJSON(t, ts, http.MethodPost, "/users", "", &CreateUserRequest{
		Name:     "Ana",
		Email:    "not-an-email",
		Password: "Secret123",
		Phones:   []PhoneRequest{{Number: "988887888", CityCode: "11", CountryCode: "+55"}},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if errResp.Code != "user.email.invalid" {
		t.Errorf("expected code user.email.invalid, got %q", errResp.Code)
	}
}

func TestHandler_Create_DuplicateEmail(t *testing.T) {
	ts := newTestServer(t)

	createUser(t, ts, "Ana", "ana@mail.com", "Secret123")

	resp, body := doJSON(t, ts, http.MethodPost, "/users", "", &CreateUserRequest{
		Name:     "Other Ana",
		Email:    "ANA@mail.com",
		Password: "Secret123",
		Phones:   []PhoneRequest{{Number: "977776777", CityCode: "21", CountryCode: "+55"}},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if errResp.Code != "user.email.exists" {
		t.Errorf("expected code user.email.exists, got %q", errResp.Code)
	}
}

func TestHandler_Create_MalformedBody(t *testing.T) {
	ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/users", bytes.NewReader([]byte("{not json")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}

func TestHandler_Login(t *testing.T) {
	ts := newTestServer(t)

	created := createUser(t, ts, "Ana", "ana@mail.com", "Secret123")

	resp, body := doJSON(t, ts, http.MethodPost, "/users/login", "", &LoginRequest{
		Email:    "ana@mail.com",
		Password: "Secret123",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d (%s)", http.StatusOK, resp.StatusCode, body)
	}

	var user UserResponse
	if err := json.Unmarshal(body, &user); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != created.ID {
		t.Errorf("expected id %q, got %q", created.ID, user.ID)
	}
	if user.Token == "" || user.Token == created.Token {
		t.Error("expected a fresh session token")
	}
	if user.LastLogin.IsZero() {
		t.Error("expected last login to be set")
	}
}

func TestHandler_Login_WrongPassword(t *testing.T) {
	ts := newTestServer(t)

	createUser(t, ts, "Ana", "ana@mail.com", "Secret123")

	resp, body := doJSON(t, ts, http.MethodPost, "/users/login", "", &LoginRequest{
		Email:    "ana@mail.com",
		Password: "Wrong1234",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, resp.StatusCode)
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if errResp.Code != "user.login.invalidCredentials" {
		t.Errorf("expected code user.login.invalidCredentials, got %q", errResp.Code)
	}
}

func TestHandler_ProtectedRoutes_RequireToken(t *testing.T) {
	ts := newTestServer(t)

	user := createUser(t, ts, "Ana", "ana@mail.com", "Secret123")

	requests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/users"},
		{http.MethodGet, "/users/" + user.ID},
		{http.MethodPatch, "/users/" + user.ID},
		{http.MethodDelete, "/users/" + user.ID},
	}

	for _, tc := range requests {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			resp, _ := doJSON(t, ts, tc.method, tc.path, "", nil)
			if resp.StatusCode != http.StatusUnauthorized {
				t.Errorf("expected status %d, got %d", http.StatusUnauthorized, resp.StatusCode)
			}

			resp, _ = doJSON(t, ts, tc.method, tc.path, "garbage-token", nil)
			if resp.StatusCode != http.StatusUnauthorized {
				t.Errorf("expected status %d with a bad token, got %d", http.StatusUnauthorized, resp.StatusCode)
			}
		})
	}
}

func TestHandler_GetByID(t *testing.T) {
	ts := newTestServer(t)

	user := createUser(t, ts, "Ana", "ana@mail.com", "Secret123")

	resp, body := doJSON(t, ts, http.MethodGet, "/users/"+user.ID, user.Token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d (%s)", http.StatusOK, resp.StatusCode, body)
	}

	var found UserResponse
	if err := json.Unmarshal(body, &found); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found.Email != "ana@mail.com" {
		t.Errorf("unexpected email: %q", found.Email)
	}
}

func TestHandler_GetByID_NotFound(t *testing.T) {
	ts := newTestServer(t)

	user := createUser(t, ts, "Ana", "ana@mail.com", "Secret123")

	resp, body := doJSON(t, ts, http.MethodGet, "/users/no-such-id", user.Token, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if errResp.Code != "user.notFound" {
		t.Errorf("expected code user.notFound, got %q", errResp.Code)
	}
}

func TestHandler_List_Paging(t *testing.T) {
	ts := newTestServer(t)

	var token string
	for i := 0; i < 5; i++ {
		user := createUser(t, ts, fmt.Sprintf("User %d", i), fmt.Sprintf("user%d@mail.com", i), "Secret123")
		token = user.Token
	}

	resp, body := doJSON(t, ts, http.MethodGet, "/users?page=1&size=2", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d (%s)", http.StatusOK, resp.StatusCode, body)
	}

	var paged PagedResponse
	if err := json.Unmarshal(body, &paged); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(paged.Content) != 2 {
		t.Errorf("expected 2 items, got %d", len(paged.Content))
	}
	if paged.TotalElements != 5 {
		t.Errorf("expected 5 total elements, got %d", paged.TotalElements)
	}
	if paged.TotalPages != 3 {
		t.Errorf("expected 3 total pages, got %d", paged.TotalPages)
	}
	if paged.Content[0].Email != "user2@mail.com" {
		t.Errorf("unexpected first item on page 1: %q", paged.Content[0].Email)
	}
}

func TestHandler_Update(t *testing.T) {
	ts := newTestServer(t)

	user := createUser(t, ts, "Ana", "ana@mail.com", "Secret123")

	name := "Ana Maria"
	resp, body := doJSON(t, ts, http.MethodPatch, "/users/"+user.ID, user.Token, &UpdateUserRequest{
		Name: &name,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d (%s)", http.StatusOK, resp.StatusCode, body)
	}

	var updated UserResponse
	if err := json.Unmarshal(body, &updated); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Name != "Ana Maria" {
		t.Errorf("expected the name to change, got %q", updated.Name)
	}
	if updated.Email != "ana@mail.com" {
		t.Errorf("expected the email to stay, got %q", updated.Email)
	}
	if len(updated.Phones) != 1 {
		t.Errorf("expected the phones to stay, got %v", updated.Phones)
	}
}

func TestHandler_Update_ClearPhones(t *testing.T) {
	ts := newTestServer(t)

	user := createUser(t, ts, "Ana", "ana@mail.com", "Secret123")

	empty := []PhoneRequest{}
	resp, body := doJSON(t, ts, http.MethodPatch, "/users/"+user.ID, user.Token, &UpdateUserRequest{
		Phones: &empty,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d (%s)", http.StatusOK, resp.StatusCode, body)
	}

	var updated UserResponse
	if err := json.Unmarshal(body, &updated); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(updated.Phones) != 0 {
		t.Errorf("expected the phones to be cleared, got %v", updated.Phones)
	}
}

func TestHandler_Delete(t *testing.T) {
	ts := newTestServer(t)

	user := createUser(t, ts, "Ana", "ana@mail.com", "Secret123")

	resp, _ := doJSON(t, ts, http.MethodDelete, "/users/"+user.ID, user.Token, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, resp.StatusCode)
	}

	resp, _ = doJSON(t, ts, http.MethodGet, "/users/"+user.ID, user.Token, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected status %d after delete, got %d", http.StatusNotFound, resp.StatusCode)
	}
}
