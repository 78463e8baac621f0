package http

import (
	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
	"github.com/aussiebroadwan/tollgate/internal/auth/service"
	"github.com/aussiebroadwan/tollgate/pkg/authsdk"
)

func toUserResponse(p domain.Principal) authsdk.UserResponse {
	return authsdk.UserResponse{
		ID:          p.ID,
		Username:    p.Username,
		Email:       p.Email,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		FullName:    domain.FullName(p),
		IsActive:    p.IsActive,
		LastLoginAt: p.LastLoginAt,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toSessionResponse(s service.Session) authsdk.SessionResponse {
	return authsdk.SessionResponse{
		Token:     s.Token,
		TokenType: "Bearer",
		ExpiresIn: int(s.Lifetime.Seconds()),
		ExpiresAt: s.ExpiresAt,
		AMR:       s.Methods,
		User:      toUserResponse(s.Principal),
	}
}

func toStatusResponse(st domain.FactorStatus) authsdk.TOTPStatusResponse {
	return authsdk.TOTPStatusResponse{
		IsEnabled:         st.IsEnabled,
		IsVerified:        st.IsVerified,
		HasBackupCodes:    st.HasBackupCodes,
		UnusedBackupCodes: st.UnusedBackupCodes,
	}
}
