package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/mesa-pos/api/internal/database"
	"github.com/mesa-pos/api/internal/enum"
	"github.com/mesa-pos/api/internal/handler"
)

// mockUserStore reuses the auth mock for lookups and adds the management methods.
type mockUserStore struct {
	*mockAuthStore
	updated []database.UpdateUserParams
}

func (m *mockUserStore) ListUsers(_ context.Context) ([]database.User, error) {
	var out []database.User
	for _, u := range m.userByID {
		if u.IsActive {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *mockUserStore) UpdateUser(_ context.Context, arg database.UpdateUserParams) (database.User, error) {
	u, ok := m.userByID[arg.ID]
	if !ok || !u.IsActive {
		return database.User{}, pgx.ErrNoRows
	}
	if other, taken := m.userByEmail[arg.Email]; taken && other.IsActive && other.ID != arg.ID {
		return database.User{}, &pgconn.PgError{Code: "23505"}
	}
	m.updated = append(m.updated, arg)
	delete(m.userByEmail, u.Email)
	u.Name, u.Email, u.HashedPassword, u.RoleID = arg.Name, arg.Email, arg.HashedPassword, arg.RoleID
	m.addUser(u)
	return u, nil
}

func (m *mockUserStore) SoftDeleteUser(_ context.Context, id uuid.UUID) (database.User, error) {
	u, ok := m.userByID[id]
	if !ok || !u.IsActive {
		return database.User{}, pgx.ErrNoRows
	}
	u.IsActive = false
	m.addUser(u)
	return u, nil
}

func newUserRouter(store *mockUserStore) chi.Router {
	r := chi.NewRouter()
	handler.NewUserHandler(store).RegisterRoutes(r)
	return r
}

func TestListUsers_EmptyIsDataArray(t *testing.T) {
	rr := doJSON(t, newUserRouter(&mockUserStore{mockAuthStore: newMockStore()}), "GET", "/", nil)
	body := assertStatus(t, rr, http.StatusOK)

	if !body.Get("data").IsArray() || len(body.Get("data").Array()) != 0 {
		t.Fatalf("expected data: [], got %s", rr.Body.String())
	}
	if body.Get("message").String() != "No users found" {
		t.Errorf("message: got %q", body.Get("message").String())
	}
}

func TestUpdateUser_KeepsPasswordWhenOmitted(t *testing.T) {
	store := &mockUserStore{mockAuthStore: newMockStore()}
	user := makeTestUser(t)
	store.addUser(user)

	rr := doJSON(t, newUserRouter(store), "PUT", "/"+user.ID.String(), map[string]string{
		"name":  "Promoted",
		"email": user.Email,
		"role":  "ADMIN",
	})
	body := assertStatus(t, rr, http.StatusOK)

	if body.Get("user.role").String() != enum.UserRoleAdmin {
		t.Errorf("role: got %s", body.Get("user.role").String())
	}
	if store.updated[0].HashedPassword != user.HashedPassword {
		t.Error("password hash should be unchanged")
	}
}

func TestUpdateUser_RehashesNewPassword(t *testing.T) {
	store := &mockUserStore{mockAuthStore: newMockStore()}
	user := makeTestUser(t)
	store.addUser(user)

	rr := doJSON(t, newUserRouter(store), "PUT", "/"+user.ID.String(), map[string]string{
		"name":     user.Name,
		"email":    user.Email,
		"password": "brand-new",
		"role":     "EMPLOYEE",
	})
	assertStatus(t, rr, http.StatusOK)

	if err := bcrypt.CompareHashAndPassword([]byte(store.updated[0].HashedPassword), []byte("brand-new")); err != nil {
		t.Error("new password was not hashed into the update")
	}
}

func TestUpdateUser_Rejections(t *testing.T) {
	store := &mockUserStore{mockAuthStore: newMockStore()}
	user := makeTestUser(t)
	store.addUser(user)
	other := makeTestUser(t)
	other.Email = "other@test.com"
	store.addUser(other)

	tests := []struct {
		name string
		path string
		body map[string]string
		want int
	}{
		{"bad id", "/nope", map[string]string{"name": "a", "email": "a@b.c", "role": "ADMIN"}, http.StatusBadRequest},
		{"unknown user", "/" + uuid.NewString(), map[string]string{"name": "a", "email": "a@b.c", "role": "ADMIN"}, http.StatusNotFound},
		{"invalid role", "/" + user.ID.String(), map[string]string{"name": "a", "email": "a@b.c", "role": "CHEF"}, http.StatusBadRequest},
		{"email taken", "/" + user.ID.String(), map[string]string{"name": "a", "email": "other@test.com", "role": "ADMIN"}, http.StatusConflict},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := doJSON(t, newUserRouter(store), "PUT", tc.path, tc.body)
			assertStatus(t, rr, tc.want)
		})
	}
}

func TestUpdateUser_TakesEmailOfDeactivatedUser(t *testing.T) {
	store := &mockUserStore{mockAuthStore: newMockStore()}
	user := makeTestUser(t)
	store.addUser(user)
	former := makeTestUser(t)
	former.Email = "former@test.com"
	former.IsActive = false
	store.addUser(former)

	rr := doJSON(t, newUserRouter(store), "PUT", "/"+user.ID.String(), map[string]string{
		"name":  user.Name,
		"email": former.Email,
		"role":  "EMPLOYEE",
	})
	body := assertStatus(t, rr, http.StatusOK)
	if got := body.Get("user.email").String(); got != former.Email {
		t.Errorf("email: got %q, want %q", got, former.Email)
	}
}

func TestDeleteUser_SoftDeletes(t *testing.T) {
	store := &mockUserStore{mockAuthStore: newMockStore()}
	user := makeTestUser(t)
	store.addUser(user)
	router := newUserRouter(store)

	rr := doJSON(t, router, "DELETE", "/"+user.ID.String(), nil)
	body := assertStatus(t, rr, http.StatusOK)
	if body.Get("user.is_active").Bool() {
		t.Error("deleted user should be inactive")
	}

	rr = doJSON(t, router, "GET", "/"+user.ID.String(), nil)
	assertStatus(t, rr, http.StatusNotFound)

	rr = doJSON(t, router, "DELETE", "/"+user.ID.String(), nil)
	assertStatus(t, rr, http.StatusNotFound)
}
