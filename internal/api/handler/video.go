package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hszk-dev/vidvault/internal/domain/model"
	"github.com/hszk-dev/vidvault/internal/domain/repository"
	"github.com/hszk-dev/vidvault/internal/usecase"
)

// DefaultMaxUploadBytes caps request bodies when no limit is configured.
const DefaultMaxUploadBytes int64 = 256 << 20

// MaxMetadataBytes caps bodies that carry only metadata (PUT, PATCH).
const MaxMetadataBytes int64 = 64 << 10

const multipartMemory = 32 << 20

// Request/Response types

type CreateVideoRequest struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	FileName        string `json:"file_name"`
	CreatorID       string `json:"creator_id"`
	CreatorFullName string `json:"creator_full_name"`
	VideoFile       []byte `json:"video_file"`
}

type CreateVideoResponse struct {
	ID string `json:"id"`
}

type UpdateVideoRequest struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	FileName        string `json:"file_name"`
	CreatorID       string `json:"creator_id,omitempty"`
	CreatorFullName string `json:"creator_full_name,omitempty"`
}

type UpdateCreatorRequest struct {
	FullName string `json:"full_name"`
}

type VideoResponse struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	FileName        string `json:"file_name"`
	CreatorID       string `json:"creator_id"`
	CreatorFullName string `json:"creator_full_name"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
	VideoFile       []byte `json:"video_file,omitempty"`
}

// VideoHandler handles video-related HTTP requests.
type VideoHandler struct {
	svc            usecase.VideoService
	maxUploadBytes int64
}

// NewVideoHandler creates a new VideoHandler.
func NewVideoHandler(svc usecase.VideoService, maxUploadBytes int64) *VideoHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &VideoHandler{svc: svc, maxUploadBytes: maxUploadBytes}
}

// Routes mounts the video endpoints on r.
func (h *VideoHandler) Routes(r chi.Router) {
	r.Route("/videos", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
		r.Delete("/purge/{id}", h.Purge)
		r.Patch("/creators/{creatorId}", h.UpdateCreator)
		r.Delete("/creators/{creatorId}", h.DeleteCreatorVideos)
	})
}

// List handles GET /videos, optionally filtered by ?creatorId=
func (h *VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		videos []*model.Video
		err    error
	)

	if raw := r.URL.Query().Get("creatorId"); raw != "" {
		creatorID, ok := parseID(raw)
		if !ok {
			Error(w, http.StatusBadRequest, "Creator account id is empty.", "Id of creator account cannot be empty.")
			return
		}
		videos, err = h.svc.ListCreatorVideos(r.Context(), creatorID)
	} else {
		videos, err = h.svc.ListVideos(r.Context())
	}
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	resp := make([]VideoResponse, len(videos))
	for i, v := range videos {
		resp[i] = toVideoResponse(v, nil)
	}
	JSON(w, http.StatusOK, resp)
}

// Create handles POST /videos
func (h *VideoHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	req, err := h.decodeCreateRequest(r)
	if err != nil {
		writeDecodeError(w, err)
		return
	}

	creatorID, problems := validateCreateRequest(req)
	if len(problems) > 0 {
		Error(w, http.StatusBadRequest, "Dto model isn't valid.", strings.Join(problems, " "))
		return
	}

	id, err := h.svc.CreateVideo(r.Context(), usecase.CreateVideoInput{
		Title:           req.Title,
		Description:     req.Description,
		FileName:        req.FileName,
		CreatorID:       creatorID,
		CreatorFullName: req.CreatorFullName,
		Content:         req.VideoFile,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.Header().Set("Location", "/videos/"+id.String())
	JSON(w, http.StatusCreated, CreateVideoResponse{ID: id.String()})
}

// decodeCreateRequest reads either a JSON body with a base64 file or a multipart form.
func (h *VideoHandler) decodeCreateRequest(r *http.Request) (*CreateVideoRequest, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return decodeMultipartCreate(r)
	}

	var req *CreateVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, io.EOF
	}
	return req, nil
}

func decodeMultipartCreate(r *http.Request) (*CreateVideoRequest, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, err
	}
	defer r.MultipartForm.RemoveAll()

	req := &CreateVideoRequest{
		Title:           r.FormValue("title"),
		Description:     r.FormValue("description"),
		FileName:        r.FormValue("file_name"),
		CreatorID:       r.FormValue("creator_id"),
		CreatorFullName: r.FormValue("creator_full_name"),
	}

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return req, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	req.VideoFile = content
	if req.FileName == "" {
		req.FileName = header.Filename
	}
	return req, nil
}

func validateCreateRequest(req *CreateVideoRequest) (uuid.UUID, []string) {
	problems := requireFields(map[string]string{
		"Title":           req.Title,
		"Description":     req.Description,
		"FileName":        req.FileName,
		"CreatorFullName": req.CreatorFullName,
	})
	if len(req.VideoFile) == 0 {
		problems = append(problems, "'VideoFile' must not be empty.")
	}

	creatorID, ok := parseID(req.CreatorID)
	if !ok {
		problems = append(problems, "'CreatorId' must be a non-empty UUID.")
	}
	return creatorID, problems
}

// Get handles GET /videos/{id}
func (h *VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	videoID, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		Error(w, http.StatusBadRequest, "Video id is invalid.", "Video id cannot be empty for GET action.")
		return
	}

	result, err := h.svc.GetVideoWithFile(r.Context(), videoID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	JSON(w, http.StatusOK, toVideoResponse(result.Video, result.Content))
}

// Update handles PUT /videos/{id}
func (h *VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	videoID, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		Error(w, http.StatusBadRequest, "Video id is invalid.", "Video id cannot be empty for UPDATE action.")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxMetadataBytes)

	var req *UpdateVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDecodeError(w, err)
		return
	}
	if req == nil {
		writeDecodeError(w, io.EOF)
		return
	}

	problems := requireFields(map[string]string{
		"Title":       req.Title,
		"Description": req.Description,
		"FileName":    req.FileName,
	})

	var creatorID uuid.UUID
	if req.CreatorID != "" {
		var valid bool
		if creatorID, valid = parseID(req.CreatorID); !valid {
			problems = append(problems, "'CreatorId' must be a non-empty UUID.")
		}
	}
	if len(problems) > 0 {
		Error(w, http.StatusBadRequest, "Dto model isn't valid.", strings.Join(problems, " "))
		return
	}

	err := h.svc.UpdateVideo(r.Context(), usecase.UpdateVideoInput{
		ID:              videoID,
		Title:           req.Title,
		Description:     req.Description,
		FileName:        req.FileName,
		CreatorID:       creatorID,
		CreatorFullName: req.CreatorFullName,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /videos/{id}
func (h *VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	videoID, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		Error(w, http.StatusBadRequest, "Video id is empty.", "Video id cannot be empty for delete action.")
		return
	}

	if err := h.svc.DeleteVideo(r.Context(), videoID); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Purge handles DELETE /videos/purge/{id}. It deletes like Delete but announces nothing.
func (h *VideoHandler) Purge(w http.ResponseWriter, r *http.Request) {
	videoID, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		Error(w, http.StatusBadRequest, "Video id is empty.", "Video id cannot be empty for delete action.")
		return
	}

	if err := h.svc.PurgeVideo(r.Context(), videoID); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpdateCreator handles PATCH /videos/creators/{creatorId}
func (h *VideoHandler) UpdateCreator(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxMetadataBytes)

	var req *UpdateCreatorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeDecodeError(w, err)
		return
	}
	if req == nil {
		Error(w, http.StatusBadRequest, "Patch document is null", "Patch document for partial update of video model is null.")
		return
	}

	creatorID, ok := parseID(chi.URLParam(r, "creatorId"))
	if !ok {
		Error(w, http.StatusBadRequest, "Creator account id is empty.", "Id of creator account cannot be empty.")
		return
	}

	if problems := requireFields(map[string]string{"FullName": req.FullName}); len(problems) > 0 {
		Error(w, http.StatusBadRequest, "Dto model isn't valid.", strings.Join(problems, " "))
		return
	}

	if _, err := h.svc.UpdateCreatorName(r.Context(), creatorID, req.FullName); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteCreatorVideos handles DELETE /videos/creators/{creatorId}
func (h *VideoHandler) DeleteCreatorVideos(w http.ResponseWriter, r *http.Request) {
	creatorID, ok := parseID(chi.URLParam(r, "creatorId"))
	if !ok {
		Error(w, http.StatusBadRequest, "Creator account id is empty.", "Id of creator account cannot be empty.")
		return
	}

	if _, err := h.svc.DeleteCreatorVideos(r.Context(), creatorID); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *VideoHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repository.ErrVideoNotFound):
		Error(w, http.StatusNotFound, "Video not exists.", "Video with given id not found in system.")
	case errors.Is(err, repository.ErrInvalidArgument), isValidationError(err):
		Error(w, http.StatusBadRequest, "Dto model isn't valid.", err.Error())
	default:
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		Error(w, http.StatusInternalServerError, "Internal server error.", "Ensure that request was correct.")
	}
}

func isValidationError(err error) bool {
	for _, target := range []error{
		model.ErrEmptyTitle,
		model.ErrEmptyDescription,
		model.ErrEmptyFileName,
		model.ErrInvalidCreatorID,
		model.ErrTitleTooLong,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func writeDecodeError(w http.ResponseWriter, err error) {
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr):
		Error(w, http.StatusRequestEntityTooLarge, "Request body is too large.",
			fmt.Sprintf("Request body exceeds the limit of %d bytes.", maxBytesErr.Limit))
	case errors.Is(err, io.EOF):
		Error(w, http.StatusBadRequest, "Incoming DTO model is null.", "Incoming DTO model not contain any value.")
	default:
		Error(w, http.StatusBadRequest, "Dto model isn't valid.", err.Error())
	}
}

// parseID accepts only non-nil UUIDs.
func parseID(raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// requireFields reports every empty field, in a stable order.
func requireFields(fields map[string]string) []string {
	var problems []string
	for _, name := range []string{"Title", "Description", "FileName", "CreatorFullName", "FullName"} {
		if value, ok := fields[name]; ok && strings.TrimSpace(value) == "" {
			problems = append(problems, fmt.Sprintf("'%s' must not be empty.", name))
		}
	}
	return problems
}

func toVideoResponse(v *model.Video, content []byte) VideoResponse {
	return VideoResponse{
		ID:              v.ID.String(),
		Title:           v.Title,
		Description:     v.Description,
		FileName:        v.FileName,
		CreatorID:       v.CreatorID.String(),
		CreatorFullName: v.CreatorFullName,
		CreatedAt:       v.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       v.UpdatedAt.Format(time.RFC3339),
		VideoFile:       content,
	}
}
