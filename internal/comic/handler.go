package comic

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/comichub/service/internal/middleware"
	"github.com/comichub/service/internal/response"
	"github.com/comichub/service/internal/upload"
)

const (
	defaultPageSize = 12
	maxPageSize     = 50
	downloadTTL     = time.Hour
)

// Handler holds HTTP handlers for comic endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new comic Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type uploadResponse struct {
	Comic    *Comic              `json:"comic"`
	Files    []upload.FileReport `json:"files"`
	Degraded bool                `json:"degraded"`
}

// Upload godoc
//
//	@Summary		Publish a comic
//	@Description	Accepts comic metadata plus 1-10 page images as multipart form data. Files that fail validation or storage are reported per-file; the comic is created as long as at least one image was stored.
//	@Tags			comics
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			title		formData	string	true	"comic title"
//	@Param			description	formData	string	false	"description"
//	@Param			tags		formData	string	false	"comma-separated tags"
//	@Param			images		formData	file	true	"page images, display order = submission order"
//	@Success		201			{object}	response.Envelope{data=uploadResponse}
//	@Failure		400			{object}	response.Envelope
//	@Failure		422			{object}	response.Envelope
//	@Router			/comics [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		response.BadRequest(w, "invalid multipart form")
		return
	}

	title := r.FormValue("title")
	if title == "" {
		response.BadRequest(w, "title is required")
		return
	}

	fileHeaders := r.MultipartForm.File["images"]
	if len(fileHeaders) == 0 {
		response.BadRequest(w, "no images provided")
		return
	}

	candidates := make([]upload.Candidate, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		f, err := fh.Open()
		if err != nil {
			response.BadRequest(w, "could not read uploaded file "+fh.Filename)
			return
		}
		// One byte past the ceiling lets the validator report too_large
		// precisely instead of silently truncating.
		data, err := io.ReadAll(io.LimitReader(f, h.svc.policy.MaxFileSizeBytes+1))
		f.Close()
		if err != nil {
			response.BadRequest(w, "could not read uploaded file "+fh.Filename)
			return
		}
		candidates = append(candidates, upload.Candidate{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	c, res, err := h.svc.Publish(r.Context(), userID, title, r.FormValue("description"), r.FormValue("tags"), candidates)
	if err != nil {
		if errors.Is(err, ErrNoImagesStored) {
			response.UnprocessableEntity(w, map[string]interface{}{"files": res.Report()}, "no images could be stored")
			return
		}
		response.InternalError(w)
		return
	}

	body := uploadResponse{Comic: c, Files: res.Report(), Degraded: res.Degraded}
	if res.Degraded {
		response.CreatedWithWarning(w, body, "object storage unavailable: placeholder image URLs were stored")
		return
	}
	response.Created(w, body)
}

type listResponse struct {
	Comics []Comic `json:"comics"`
	Total  int     `json:"total"`
	Page   int     `json:"page"`
	Pages  int     `json:"pages"`
}

func pagination(r *http.Request) (page, limit, offset int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit, (page - 1) * limit
}

func pages(total, limit int) int {
	return (total + limit - 1) / limit
}

// List godoc
//
//	@Summary	List comics
//	@Tags		comics
//	@Produce	json
//	@Param		page	query		int	false	"page number"
//	@Param		limit	query		int	false	"page size"
//	@Success	200		{object}	response.Envelope{data=listResponse}
//	@Router		/comics [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, limit, offset := pagination(r)

	comics, total, err := h.svc.List(r.Context(), limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, listResponse{Comics: comics, Total: total, Page: page, Pages: pages(total, limit)})
}

// Mine godoc
//
//	@Summary	List my comics
//	@Tags		comics
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	response.Envelope{data=listResponse}
//	@Router		/comics/mine [get]
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}
	page, limit, offset := pagination(r)

	comics, total, err := h.svc.ListByAuthor(r.Context(), userID, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, listResponse{Comics: comics, Total: total, Page: page, Pages: pages(total, limit)})
}

// Search godoc
//
//	@Summary	Search comics
//	@Tags		comics
//	@Produce	json
//	@Param		q	query		string	true	"search query"
//	@Success	200	{object}	response.Envelope{data=listResponse}
//	@Failure	400	{object}	response.Envelope
//	@Router		/comics/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		response.BadRequest(w, "search query is required")
		return
	}
	page, limit, offset := pagination(r)

	comics, total, err := h.svc.Search(r.Context(), q, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, listResponse{Comics: comics, Total: total, Page: page, Pages: pages(total, limit)})
}

// Get godoc
//
//	@Summary	Get a comic
//	@Tags		comics
//	@Produce	json
//	@Param		id	path		string	true	"comic id"
//	@Success	200	{object}	response.Envelope{data=Comic}
//	@Failure	404	{object}	response.Envelope
//	@Router		/comics/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if h.svc.IsNotFound(err) {
			response.NotFound(w, "comic not found")
			return
		}
		response.InternalError(w)
		return
	}
	response.OK(w, c)
}

// Delete godoc
//
//	@Summary		Delete a comic
//	@Description	Removes the comic record, then releases its stored page objects best-effort.
//	@Tags			comics
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"comic id"
//	@Success		200	{object}	response.Envelope
//	@Failure		403	{object}	response.Envelope
//	@Failure		404	{object}	response.Envelope
//	@Router			/comics/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	err := h.svc.Delete(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		switch {
		case h.svc.IsNotFound(err):
			response.NotFound(w, "comic not found")
		case errors.Is(err, ErrForbidden):
			response.Forbidden(w, "access denied")
		default:
			response.InternalError(w)
		}
		return
	}
	response.OK(w, map[string]bool{"deleted": true})
}

// Download godoc
//
//	@Summary		Presigned page download
//	@Description	Returns a time-limited direct-access URL for one stored page.
//	@Tags			comics
//	@Produce		json
//	@Param			id		path		string	true	"comic id"
//	@Param			page	path		int		true	"zero-based page index"
//	@Success		200		{object}	response.Envelope
//	@Failure		404		{object}	response.Envelope
//	@Router			/comics/{id}/download/{page} [get]
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(chi.URLParam(r, "page"))
	if err != nil {
		response.BadRequest(w, "invalid page index")
		return
	}

	url, err := h.svc.DownloadURL(r.Context(), chi.URLParam(r, "id"), page, downloadTTL)
	if err != nil {
		switch {
		case h.svc.IsNotFound(err):
			response.NotFound(w, "comic not found")
		case errors.Is(err, ErrNoDownloadableAsset):
			response.NotFound(w, "page has no downloadable asset")
		default:
			response.InternalError(w)
		}
		return
	}
	response.OK(w, map[string]string{"url": url})
}
