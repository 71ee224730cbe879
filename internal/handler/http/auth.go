package http

import (
	"net/http"

	"github.com/cmlabs-hris/attendance-bot/internal/domain/auth"
	"github.com/cmlabs-hris/attendance-bot/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
)

type AuthHandler interface {
	Logout(w http.ResponseWriter, r *http.Request)
}

type authHandlerImpl struct {
	jwtService jwt.Service
}

func NewAuthHandler(jwtService jwt.Service) AuthHandler {
	return &authHandlerImpl{
		jwtService: jwtService,
	}
}

// Logout handles POST /auth/logout by revoking the presented token.
func (h *authHandlerImpl) Logout(w http.ResponseWriter, r *http.Request) {
	token := jwtauth.TokenFromHeader(r)
	if token == "" {
		response.HandleError(w, auth.ErrInvalidToken)
		return
	}

	h.jwtService.RevokeToken(token)
	response.SuccessWithMessage(w, "Logged out", nil)
}
