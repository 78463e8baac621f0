package http

import (
	"net/http"

	"github.com/aussiebroadwan/tollgate/pkg/authsdk"
	"github.com/aussiebroadwan/tollgate/pkg/httpx"
)

// HandleSessionInfo handles GET /v1/session
//
//	@Summary		Describe the caller
//	@Description	Reports whether the request carries a valid token. Never fails authentication; anonymous callers get authenticated=false.
//	@Tags			Session
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.SessionInfoResponse	"Caller"
//	@Router			/v1/session [get].
func HandleSessionInfo(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		httpx.WriteJSON(w, http.StatusOK, authsdk.SessionInfoResponse{})
		return
	}

	user := toUserResponse(p)
	httpx.WriteJSON(w, http.StatusOK, authsdk.SessionInfoResponse{
		Authenticated: true,
		User:          &user,
	})
}
