package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/junnakarai/bankpocket/internal/store"
)

type tagResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	SortOrder int       `json:"sortOrder"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// tagWithUsage adds the number of accounts carrying the tag, used by
// the tag management screen for the in-use marker.
type tagWithUsage struct {
	tagResponse
	AccountCount int `json:"accountCount"`
}

type createTagRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type updateTagRequest struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

type replaceTagsRequest struct {
	TagIDs []uuid.UUID `json:"tagIds"`
}

func tagToResponse(t *store.Tag) tagResponse {
	return tagResponse{
		ID:        t.ID,
		Name:      t.Name,
		Color:     t.Color,
		SortOrder: t.SortOrder,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.service.ListTags(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	counts, err := s.service.TagAccountCounts(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp := make([]tagWithUsage, 0, len(tags))
	for _, t := range tags {
		resp = append(resp, tagWithUsage{tagResponse: tagToResponse(t), AccountCount: counts[t.ID]})
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateTag(w http.ResponseWriter, r *http.Request) {
	var req createTagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	tag, err := s.service.CreateTag(r.Context(), req.Name, req.Color)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, tagToResponse(tag))
}

func (s *Server) handleUpdateTag(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "tagID")
	if !ok {
		return
	}

	var req updateTagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	tag, err := s.service.UpdateTag(r.Context(), id, store.TagUpdate{Name: req.Name, Color: req.Color})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, tagToResponse(tag))
}

func (s *Server) handleDeleteTag(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "tagID")
	if !ok {
		return
	}

	if err := s.service.DeleteTag(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSeedTags inserts the default tag set, skipping names that
// already exist. Idempotent, so safe to call repeatedly.
func (s *Server) handleSeedTags(w http.ResponseWriter, r *http.Request) {
	created, err := s.service.SeedDefaultTags(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"created": created})
}

// handleReplaceTags reconciles an account's tag set with the request.
func (s *Server) handleReplaceTags(w http.ResponseWriter, r *http.Request) {
	accountID, ok := parseUUIDParam(w, r, "accountID")
	if !ok {
		return
	}

	var req replaceTagsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := s.service.ReplaceTags(r.Context(), accountID, req.TagIDs); err != nil {
		respondError(w, r, err)
		return
	}

	tags, err := s.service.AccountTags(r.Context(), accountID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	resp := make([]tagResponse, 0, len(tags))
	for _, t := range tags {
		resp = append(resp, tagToResponse(t))
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAddTag(w http.ResponseWriter, r *http.Request) {
	accountID, ok := parseUUIDParam(w, r, "accountID")
	if !ok {
		return
	}
	tagID, ok := parseUUIDParam(w, r, "tagID")
	if !ok {
		return
	}

	if err := s.service.AddTag(r.Context(), accountID, tagID); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveTag(w http.ResponseWriter, r *http.Request) {
	accountID, ok := parseUUIDParam(w, r, "accountID")
	if !ok {
		return
	}
	tagID, ok := parseUUIDParam(w, r, "tagID")
	if !ok {
		return
	}

	if err := s.service.RemoveTag(r.Context(), accountID, tagID); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
