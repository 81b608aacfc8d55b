package rest

import (
	"encoding/json"
	"net/http"

	"github.com/dmitrijs2005/notesnap/internal/httpx"
	"github.com/dmitrijs2005/notesnap/internal/server/models"
	"github.com/dmitrijs2005/notesnap/internal/server/services"
	"github.com/dmitrijs2005/notesnap/internal/server/validation"
)

const (
	msgProfileUpdated     = "Profile updated successfully"
	msgPasswordUpdated    = "Password updated successfully"
	msgPreferencesUpdated = "Preferences updated successfully"
	msgAccountDeleted     = "Account deleted successfully"
	msgAvatarUpdated      = "Avatar updated successfully"
)

type profileResponse struct {
	Message string          `json:"message,omitempty"`
	User    *models.Profile `json:"user"`
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) error {
	id, err := h.userID(r)
	if err != nil {
		return err
	}

	p, err := h.svc.Profile.Get(r.Context(), id)
	if err != nil {
		return clientError(err)
	}
	httpx.RespondWithJSON(w, http.StatusOK, profileResponse{User: p})
	return nil
}

// UpdateProfile dispatches on the "type" field of the body.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) error {
	id, err := h.userID(r)
	if err != nil {
		return err
	}

	var raw json.RawMessage
	if err := httpx.DecodeJSON(w, r, &raw); err != nil {
		return err
	}
	var kind struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &kind); err != nil {
		return httpx.ErrBadRequestWrap("Invalid JSON body", err)
	}

	switch kind.Type {
	case "profile":
		var req validation.UpdateProfileRequest
		if err := unmarshalValid(raw, &req); err != nil {
			return err
		}
		p, err := h.svc.Profile.UpdateProfile(r.Context(), id, services.ProfileChanges{
			Name: req.Name, Bio: req.Bio, Website: req.Website, GitHub: req.GitHub,
		})
		if err != nil {
			return clientError(err)
		}
		httpx.RespondWithJSON(w, http.StatusOK, profileResponse{Message: msgProfileUpdated, User: p})

	case "password":
		var req validation.UpdatePasswordRequest
		if err := unmarshalValid(raw, &req); err != nil {
			return err
		}
		if err := h.svc.Profile.UpdatePassword(r.Context(), id, req.CurrentPassword, req.NewPassword); err != nil {
			return clientError(err)
		}
		return respondMessage(w, msgPasswordUpdated)

	case "preferences":
		var req validation.UpdatePreferencesRequest
		if err := unmarshalValid(raw, &req); err != nil {
			return err
		}
		p, err := h.svc.Profile.UpdatePreferences(r.Context(), id, services.Preferences{
			EmailNotifications: *req.EmailNotifications,
			PublicProfile:      *req.PublicProfile,
			ShareAnalytics:     *req.ShareAnalytics,
		})
		if err != nil {
			return clientError(err)
		}
		httpx.RespondWithJSON(w, http.StatusOK, profileResponse{Message: msgPreferencesUpdated, User: p})

	default:
		return httpx.ErrBadRequest("Invalid update type")
	}
	return nil
}

func unmarshalValid(raw json.RawMessage, dst any) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return httpx.ErrBadRequestWrap("Invalid JSON body", err)
	}
	return validation.Validate(dst)
}

func (h *Handler) DeleteProfile(w http.ResponseWriter, r *http.Request) error {
	id, err := h.userID(r)
	if err != nil {
		return err
	}
	if err := h.svc.Profile.Delete(r.Context(), id); err != nil {
		return clientError(err)
	}
	h.clearSessionCookies(w)
	return respondMessage(w, msgAccountDeleted)
}

func (h *Handler) AvatarUpload(w http.ResponseWriter, r *http.Request) error {
	id, err := h.userID(r)
	if err != nil {
		return err
	}

	var req validation.AvatarUploadRequest
	if err := decodeValid(w, r, &req); err != nil {
		return err
	}

	up, err := h.svc.Profile.AvatarUploadURL(r.Context(), id, req.ContentType)
	if err != nil {
		return clientError(err)
	}
	httpx.RespondWithJSON(w, http.StatusOK, up)
	return nil
}

// ConfirmAvatar is called by the client once the presigned PUT succeeded.
func (h *Handler) ConfirmAvatar(w http.ResponseWriter, r *http.Request) error {
	id, err := h.userID(r)
	if err != nil {
		return err
	}

	var req validation.AvatarConfirmRequest
	if err := decodeValid(w, r, &req); err != nil {
		return err
	}

	p, err := h.svc.Profile.ConfirmAvatar(r.Context(), id, req.Key)
	if err != nil {
		return clientError(err)
	}
	httpx.RespondWithJSON(w, http.StatusOK, profileResponse{Message: msgAvatarUpdated, User: p})
	return nil
}
