package user

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/comichub/service/internal/middleware"
	"github.com/comichub/service/internal/response"
	"github.com/comichub/service/internal/upload"
)

// Handler holds HTTP handlers for user-related endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new user Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// GetMe godoc
//
//	@Summary		Get current user
//	@Description	Returns the profile of the currently authenticated user.
//	@Tags			users
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	response.Envelope{data=User}
//	@Failure		401	{object}	response.Envelope
//	@Failure		404	{object}	response.Envelope
//	@Router			/users/me [get]
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	u, err := h.svc.GetByID(r.Context(), userID)
	if err != nil {
		if h.svc.IsNotFound(err) {
			response.NotFound(w, "user not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, u)
}

type updateProfileRequest struct {
	Bio *string `json:"bio"`
}

// UpdateProfile godoc
//
//	@Summary		Update profile
//	@Description	Updates the mutable profile fields of the current user.
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			body	body		updateProfileRequest	true	"profile fields"
//	@Success		200		{object}	response.Envelope{data=User}
//	@Failure		400		{object}	response.Envelope
//	@Router			/users/me [patch]
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	u, err := h.svc.UpdateProfile(r.Context(), userID, req.Bio)
	if err != nil {
		if h.svc.IsNotFound(err) {
			response.NotFound(w, "user not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, u)
}

// UploadAvatar godoc
//
//	@Summary		Upload avatar
//	@Description	Replaces the current user's avatar with the uploaded image. The previous avatar object is deleted after the new reference is committed.
//	@Tags			users
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			avatar	formData	file	true	"avatar image"
//	@Success		200		{object}	response.Envelope{data=User}
//	@Failure		400		{object}	response.Envelope
//	@Failure		422		{object}	response.Envelope
//	@Router			/users/me/avatar [post]
func (h *Handler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	if err := r.ParseMultipartForm(h.svc.policy.MaxFileSizeBytes + 1<<20); err != nil {
		response.BadRequest(w, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		response.BadRequest(w, "avatar file is required")
		return
	}
	defer file.Close()

	// Read one byte past the ceiling so the validator can reject oversized
	// files with a precise reason instead of a truncated payload.
	data, err := io.ReadAll(io.LimitReader(file, h.svc.policy.MaxFileSizeBytes+1))
	if err != nil {
		response.BadRequest(w, "could not read avatar file")
		return
	}

	candidate := upload.Candidate{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}

	u, res, err := h.svc.SetAvatar(r.Context(), userID, candidate)
	if err != nil {
		if errors.Is(err, ErrAvatarNotStored) {
			response.UnprocessableEntity(w, map[string]interface{}{"files": res.Report()}, "avatar upload failed")
			return
		}
		if h.svc.IsNotFound(err) {
			response.NotFound(w, "user not found")
			return
		}
		response.InternalError(w)
		return
	}

	if res.Degraded {
		response.OKWithWarning(w, u, "object storage unavailable: a placeholder avatar URL was stored")
		return
	}
	response.OK(w, u)
}

// DeleteAvatar godoc
//
//	@Summary		Delete avatar
//	@Description	Clears the current user's avatar and releases the stored object.
//	@Tags			users
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	response.Envelope
//	@Failure		404	{object}	response.Envelope
//	@Router			/users/me/avatar [delete]
func (h *Handler) DeleteAvatar(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	if err := h.svc.RemoveAvatar(r.Context(), userID); err != nil {
		if h.svc.IsNotFound(err) {
			response.NotFound(w, "user not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]bool{"removed": true})
}

// CheckUsername godoc
//
//	@Summary		Check username availability
//	@Tags			users
//	@Produce		json
//	@Security		BearerAuth
//	@Param			username	query		string	true	"username to check"
//	@Success		200			{object}	response.Envelope
//	@Router			/users/username-check [get]
func (h *Handler) CheckUsername(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		response.BadRequest(w, "username query parameter is required")
		return
	}

	taken, err := h.svc.UsernameTaken(r.Context(), username)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]bool{"available": !taken})
}
