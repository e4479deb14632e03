package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/nkiryanov/realestate/internal/handlers/render"
	"github.com/nkiryanov/realestate/internal/handlers/userctx"
	"github.com/nkiryanov/realestate/internal/logger"
	"github.com/nkiryanov/realestate/internal/models"
)

const tokenType = "bearer"

type authService interface {
	// Authenticate user and issue access and refresh tokens
	// Has to return apperrors.ErrInvalidCredentials if username or password is wrong
	Login(ctx context.Context, username string, password string) (models.TokenPair, error)

	// Issue new access token for the refresh token
	Refresh(ctx context.Context, refresh string) (models.IssuedToken, error)

	ResolveCurrentUser(ctx context.Context, access string) (models.User, error)
	RequireRole(user models.User, role models.Role) (models.User, error)
}

type AuthHandler struct {
	auth   authService
	logger logger.Logger
}

func NewAuth(auth authService, l logger.Logger) *AuthHandler {
	if l == nil {
		l = logger.NewNoOpLogger()
	}
	return &AuthHandler{auth: auth, logger: l}
}

type LoginRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
}

// Login accepts JSON body or OAuth2 password form
func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var (
		data LoginRequest
		err  error
	)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		data, err = render.BindAndValidate[LoginRequest](w, r)
	} else {
		var form *render.Form
		form, err = render.ParseForm(w, r)
		if err != nil {
			return
		}
		data = LoginRequest{Username: form.String("username"), Password: r.FormValue("password")}
		err = render.Validate(w, data)
	}
	if err != nil {
		return
	}

	pair, err := h.auth.Login(r.Context(), data.Username, data.Password)
	if err != nil {
		renderError(w, h.logger, err)
		return
	}

	render.JSON(w, TokenResponse{
		AccessToken:  pair.Access.Value,
		RefreshToken: pair.Refresh.Value,
		TokenType:    tokenType,
	})
}

func (h *AuthHandler) refresh(w http.ResponseWriter, r *http.Request) {
	type RefreshRequest struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}

	data, err := render.BindAndValidate[RefreshRequest](w, r)
	if err != nil {
		return
	}

	access, err := h.auth.Refresh(r.Context(), data.RefreshToken)
	if err != nil {
		renderError(w, h.logger, err)
		return
	}

	render.JSON(w, TokenResponse{AccessToken: access.Value, TokenType: tokenType})
}

func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	user, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	render.JSON(w, newUserResponse(user))
}
