package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/userdesk/apiserver/internal/policy"
	"github.com/userdesk/apiserver/internal/services"
	"github.com/userdesk/apiserver/internal/store"
	"github.com/userdesk/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

const maxPasswordLength = 8

// UserHandler provides the user CRUD endpoints.
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler constructs a handler with the provided service.
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// UsersRouter registers user routes on the given router. The caller is
// expected to have mounted the authentication middleware already.
func UsersRouter(r chi.Router, userService *services.UserService) {
	handler := NewUserHandler(userService)

	r.Get("/{userID}", handler.GetUser)
	r.Post("/", handler.CreateUser)
	r.Put("/", handler.UpdateUser)
	r.Delete("/", handler.DeleteUser)
}

// GetUser returns a single user record. Non-root principals may only
// fetch their own record.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseUserID(r)
	if err != nil {
		writeMissing(w, missingAttributeError, []string{"id"})
		return
	}

	if !policy.CanAccess(principal, id, policy.OpGet) {
		writeErrorMessage(w, http.StatusForbidden,
			"Access denied", "You can only access your own user record")
		return
	}

	user, err := h.userService.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}

	// Field names are the API's legacy contract: login is the email,
	// pass is the stored hash.
	writeJSON(w, http.StatusOK, UserResponse{
		ID:    user.ID,
		Login: user.Email,
		Pass:  user.PasswordHash,
		Phone: user.Phone,
	})
}

// CreateUser registers a new user. Any authenticated principal may create
// one; the roles field is honored only for root callers.
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req UserUpsertRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	var missing []string
	if req.Email == "" {
		missing = append(missing, "email")
	}
	if req.Password == "" {
		missing = append(missing, "password")
	}
	if req.Phone == "" {
		missing = append(missing, "phone")
	}
	if len(missing) > 0 {
		writeMissing(w, missingAttributesError, missing)
		return
	}

	if len(req.Password) > maxPasswordLength {
		writeErrorMessage(w, http.StatusBadRequest,
			"Validation failed", "Password cannot be longer than 8 characters")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	roles := []string{types.RoleUser}
	if policy.CanAssignRoles(principal) && len(req.Roles) > 0 {
		roles = req.Roles
	}

	user, err := h.userService.Create(r.Context(), types.User{
		Email:        req.Email,
		Phone:        req.Phone,
		Roles:        roles,
		PasswordHash: string(hashed),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	writeJSON(w, http.StatusCreated, CreateUserResponse{
		Message: "User created",
		ID:      user.ID,
		Email:   user.Email,
		Pass:    user.PasswordHash,
		Phone:   user.Phone,
	})
}

// UpdateUser replaces a user's email, password, phone, and (for root
// callers) roles. The password is re-hashed on every update.
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req UserUpsertRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	var missing []string
	if req.ID < 1 {
		missing = append(missing, "id")
	}
	if req.Email == "" {
		missing = append(missing, "email")
	}
	if req.Password == "" {
		missing = append(missing, "password")
	}
	if req.Phone == "" {
		missing = append(missing, "phone")
	}
	if len(missing) > 0 {
		writeMissing(w, missingAttributesError, missing)
		return
	}

	if len(req.Password) > maxPasswordLength {
		writeErrorMessage(w, http.StatusBadRequest,
			"Validation failed", "Password cannot be longer than 8 characters")
		return
	}

	if !policy.CanAccess(principal, req.ID, policy.OpUpdate) {
		writeErrorMessage(w, http.StatusForbidden,
			"Access denied", "You can only update your own user record")
		return
	}

	user, err := h.userService.GetByID(r.Context(), req.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update user")
		return
	}

	user.Email = req.Email
	user.Phone = req.Phone
	user.PasswordHash = string(hashed)
	if policy.CanAssignRoles(principal) && len(req.Roles) > 0 {
		user.Roles = req.Roles
	}

	if _, err := h.userService.Update(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update user")
		return
	}

	writeJSON(w, http.StatusOK, UpdateUserResponse{
		Message: "User updated",
		ID:      user.ID,
	})
}

// DeleteUser removes a user record. The root check runs before the
// payload is even inspected: non-root callers always get 403.
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req DeleteUserRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	if !policy.CanAccess(principal, req.ID, policy.OpDelete) {
		writeErrorMessage(w, http.StatusForbidden,
			"Access denied", "Only root users can delete users")
		return
	}

	if req.ID < 1 {
		writeMissing(w, missingAttributeError, []string{"id"})
		return
	}

	if err := h.userService.Delete(r.Context(), req.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, NotFoundResponse{
				Error: "User not found",
				ID:    req.ID,
			})
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted"})
}

// UserUpsertRequest is the JSON payload for POST and PUT.
type UserUpsertRequest struct {
	ID       int      `json:"id"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Phone    string   `json:"phone"`
	Roles    []string `json:"roles"`
}

// DeleteUserRequest is the JSON payload for DELETE.
type DeleteUserRequest struct {
	ID int `json:"id"`
}

// UserResponse is the GET payload. Login and Pass are legacy field names
// carrying the email and the password hash.
type UserResponse struct {
	ID    int    `json:"id"`
	Login string `json:"login"`
	Pass  string `json:"pass"`
	Phone string `json:"phone"`
}

// CreateUserResponse is the POST payload.
type CreateUserResponse struct {
	Message string `json:"message"`
	ID      int    `json:"id"`
	Email   string `json:"email"`
	Pass    string `json:"pass"`
	Phone   string `json:"phone"`
}

// UpdateUserResponse is the PUT payload.
type UpdateUserResponse struct {
	Message string `json:"message"`
	ID      int    `json:"id"`
}

// NotFoundResponse is the DELETE 404 payload; it echoes the target id.
type NotFoundResponse struct {
	Error string `json:"error"`
	ID    int    `json:"id"`
}

func parseUserID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "userID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid user id")
	}
	return id, nil
}
