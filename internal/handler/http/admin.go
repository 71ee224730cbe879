package http

import (
	"net/http"

	"github.com/cmlabs-hris/attendance-bot/internal/domain/identity"
	"github.com/cmlabs-hris/attendance-bot/internal/handler/http/response"
)

type AdminHandler interface {
	List(w http.ResponseWriter, r *http.Request)
}

type adminHandlerImpl struct {
	identityService identity.IdentityService
}

func NewAdminHandler(identityService identity.IdentityService) AdminHandler {
	return &adminHandlerImpl{
		identityService: identityService,
	}
}

// List handles GET /admins
func (h *adminHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	admins, err := h.identityService.ListAdmins(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	if admins == nil {
		admins = []string{}
	}

	response.Success(w, map[string]interface{}{"emails": admins})
}
