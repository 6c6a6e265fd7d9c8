package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/marmos91/dittoftp/pkg/identity"
)

// UserStore is the view of the identity store used for user management.
type UserStore interface {
	List() []*identity.User
	Get(username string) (*identity.User, error)
	Create(username, password string) (*identity.User, error)
	Delete(username string) error
}

// UserHandler handles user management API endpoints.
type UserHandler struct {
	store UserStore
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(store UserStore) *UserHandler {
	return &UserHandler{store: store}
}

// CreateUserRequest is the request body for POST /api/v1/users.
type CreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserResponse is a sanitized user representation for API responses.
// Password hashes never leave the server.
type UserResponse struct {
	Username string `json:"username"`
	UID      uint16 `json:"uid"`
	Chroot   string `json:"chroot"`
}

// Create handles POST /api/v1/users.
// Creates a new FTP user account with a freshly provisioned home directory.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if req.Username == "" {
		BadRequest(w, "Username is required")
		return
	}
	if req.Password == "" {
		BadRequest(w, "Password is required")
		return
	}
	// Operator-provisioned accounts meet the password policy. FTP
	// enrollment bypasses this on purpose: the store accepts whatever
	// the client authenticated with.
	if err := identity.ValidatePassword(req.Password); err != nil {
		BadRequest(w, err.Error())
		return
	}

	user, err := h.store.Create(req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrDuplicateUser):
			Conflict(w, "User already exists")
		case errors.Is(err, identity.ErrInvalidUsername),
			errors.Is(err, identity.ErrPasswordTooShort),
			errors.Is(err, identity.ErrPasswordTooLong):
			BadRequest(w, err.Error())
		default:
			InternalServerError(w, "Failed to create user")
		}
		return
	}

	WriteJSONCreated(w, userToResponse(user))
}

// List handles GET /api/v1/users.
// Lists all FTP user accounts.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users := h.store.List()

	response := make([]UserResponse, len(users))
	for i, u := range users {
		response[i] = userToResponse(u)
	}

	WriteJSONOK(w, response)
}

// Get handles GET /api/v1/users/{username}.
// Gets a single FTP user account by username.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	user, err := h.store.Get(username)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			NotFound(w, "User not found")
			return
		}
		InternalServerError(w, "Failed to get user")
		return
	}

	WriteJSONOK(w, userToResponse(user))
}

// Delete handles DELETE /api/v1/users/{username}.
// Removes an FTP user account. The account's home directory is left on
// disk so no user data is destroyed through the API.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	if err := h.store.Delete(username); err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			NotFound(w, "User not found")
			return
		}
		InternalServerError(w, "Failed to delete user")
		return
	}

	WriteNoContent(w)
}

// userToResponse converts an identity.User to a UserResponse for API output.
func userToResponse(user *identity.User) UserResponse {
	return UserResponse{
		Username: user.Username,
		UID:      user.UID,
		Chroot:   user.Chroot,
	}
}
