package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/nkiryanov/realestate/internal/filestore"
	"github.com/nkiryanov/realestate/internal/handlers/render"
	"github.com/nkiryanov/realestate/internal/handlers/userctx"
	"github.com/nkiryanov/realestate/internal/logger"
	"github.com/nkiryanov/realestate/internal/models"
	"github.com/nkiryanov/realestate/internal/service/user"
)

type userService interface {
	// Create user, username, email and phone number have to be unique
	CreateUser(ctx context.Context, p user.CreateParams, avatar *filestore.Upload) (models.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	ListAgents(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, p user.UpdateParams, avatar *filestore.Upload) (models.User, error)

	// Change own username and password, old password has to match
	UpdateProfile(ctx context.Context, id uuid.UUID, username string, oldPassword string, newPassword string) (models.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

type UserHandler struct {
	users  userService
	logger logger.Logger
}

func NewUser(s userService, l logger.Logger) *UserHandler {
	if l == nil {
		l = logger.NewNoOpLogger()
	}
	return &UserHandler{users: s, logger: l}
}

type UserForm struct {
	Name        string      `form:"name" validate:"required,max=100"`
	Username    string      `form:"username" validate:"required,min=2,max=50"`
	Email       string      `form:"email" validate:"required,email"`
	PhoneNumber string      `form:"phone_number" validate:"required,e164"`
	Role        models.Role `form:"role" validate:"required,role"`
}

func readUserForm(f *render.Form) UserForm {
	return UserForm{
		Name:        f.String("name"),
		Username:    f.String("username"),
		Email:       f.String("email"),
		PhoneNumber: f.String("phone_number"),
		Role:        models.Role(f.String("role")),
	}
}

func (h *UserHandler) create(w http.ResponseWriter, r *http.Request) {
	type CreateForm struct {
		UserForm
		Password string `form:"password" validate:"required,min=8"`
	}

	f, err := render.ParseForm(w, r)
	if err != nil {
		return
	}

	data := CreateForm{UserForm: readUserForm(f), Password: r.FormValue("password")}
	avatar, cleanup := f.File("avatar")
	defer cleanup()
	if err := f.Check(w); err != nil {
		return
	}
	if err := render.Validate(w, data); err != nil {
		return
	}

	created, err := h.users.CreateUser(r.Context(), user.CreateParams{
		Name:        data.Name,
		Username:    data.Username,
		Email:       data.Email,
		PhoneNumber: data.PhoneNumber,
		Password:    data.Password,
		Role:        data.Role,
	}, avatar)
	if err != nil {
		renderError(w, h.logger, err)
		return
	}

	render.JSONWithStatus(w, newUserResponse(created), http.StatusCreated)
}

func (h *UserHandler) list(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		renderError(w, h.logger, err)
		return
	}

	render.JSON(w, newUserResponses(users))
}

func (h *UserHandler) agents(w http.ResponseWriter, r *http.Request) {
	agents, err := h.users.ListAgents(r.Context())
	if err != nil {
		renderError(w, h.logger, err)
		return
	}

	render.JSON(w, newUserResponses(agents))
}

func (h *UserHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	u, err := h.users.GetUser(r.Context(), id)
	if err != nil {
		renderError(w, h.logger, err)
		return
	}

	render.JSON(w, newUserResponse(u))
}

func (h *UserHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	f, err := render.ParseForm(w, r)
	if err != nil {
		return
	}

	data := readUserForm(f)
	avatar, cleanup := f.File("avatar")
	defer cleanup()
	if err := f.Check(w); err != nil {
		return
	}
	if err := render.Validate(w, data); err != nil {
		return
	}

	updated, err := h.users.UpdateUser(r.Context(), id, user.UpdateParams{
		Name:        data.Name,
		Username:    data.Username,
		Email:       data.Email,
		PhoneNumber: data.PhoneNumber,
		Role:        data.Role,
	}, avatar)
	if err != nil {
		renderError(w, h.logger, err)
		return
	}

	render.JSON(w, newUserResponse(updated))
}

// Update username and password of the current user
func (h *UserHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	type ProfileRequest struct {
		Username    string `json:"username" validate:"required,min=2,max=50"`
		OldPassword string `json:"old_password" validate:"required"`
		NewPassword string `json:"new_password" validate:"required,min=8"`
	}

	current, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	data, err := render.BindAndValidate[ProfileRequest](w, r)
	if err != nil {
		return
	}

	if _, err := h.users.UpdateProfile(r.Context(), current.ID, data.Username, data.OldPassword, data.NewPassword); err != nil {
		renderError(w, h.logger, err)
		return
	}

	render.JSON(w, MessageResponse{Message: "Profile updated successfully"})
}

func (h *UserHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.users.DeleteUser(r.Context(), id); err != nil {
		renderError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
