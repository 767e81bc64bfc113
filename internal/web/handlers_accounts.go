package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/junnakarai/bankpocket/internal/core"
	"github.com/junnakarai/bankpocket/internal/store"
)

type accountResponse struct {
	ID            uuid.UUID     `json:"id"`
	BankName      string        `json:"bankName"`
	BranchName    string        `json:"branchName"`
	BranchNumber  string        `json:"branchNumber"`
	AccountNumber string        `json:"accountNumber"`
	SortOrder     int           `json:"sortOrder"`
	Tags          []tagResponse `json:"tags"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

type createAccountRequest struct {
	BankName      string `json:"bankName"`
	BranchName    string `json:"branchName"`
	BranchNumber  string `json:"branchNumber"`
	AccountNumber string `json:"accountNumber"`
}

type updateAccountRequest struct {
	BankName      *string `json:"bankName"`
	BranchName    *string `json:"branchName"`
	BranchNumber  *string `json:"branchNumber"`
	AccountNumber *string `json:"accountNumber"`
}

type reorderRequest struct {
	FromPositions []int      `json:"fromPositions"`
	ToPosition    int        `json:"toPosition"`
	SearchText    string     `json:"searchText"`
	TagID         *uuid.UUID `json:"tagId"`
}

func (s *Server) accountToResponse(r *http.Request, a *store.Account) (accountResponse, error) {
	tags, err := s.service.Store().TagsForAccount(r.Context(), a.ID)
	if err != nil {
		return accountResponse{}, err
	}
	resp := accountResponse{
		ID:            a.ID,
		BankName:      a.BankName,
		BranchName:    a.BranchName,
		BranchNumber:  a.BranchNumber,
		AccountNumber: a.AccountNumber,
		SortOrder:     a.SortOrder,
		Tags:          make([]tagResponse, 0, len(tags)),
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
	for _, t := range tags {
		resp.Tags = append(resp.Tags, tagToResponse(t))
	}
	return resp, nil
}

// handleListAccounts returns accounts matching the optional search and
// tag query parameters, in manual order.
func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	filter := core.FilterState{SearchText: r.URL.Query().Get("search")}
	if raw := r.URL.Query().Get("tag"); raw != "" {
		tagID, err := uuid.Parse(raw)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid tag id"})
			return
		}
		filter.TagID = &tagID
	}

	accounts, err := s.service.ListAccounts(r.Context(), filter)
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		ar, err := s.accountToResponse(r, a)
		if err != nil {
			respondError(w, r, err)
			return
		}
		resp = append(resp, ar)
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	account, err := s.service.CreateAccount(r.Context(), req.BankName, req.BranchName, req.BranchNumber, req.AccountNumber)
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp, err := s.accountToResponse(r, account)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "accountID")
	if !ok {
		return
	}

	var req updateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	account, err := s.service.UpdateAccount(r.Context(), id, store.AccountUpdate{
		BankName:      req.BankName,
		BranchName:    req.BranchName,
		BranchNumber:  req.BranchNumber,
		AccountNumber: req.AccountNumber,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp, err := s.accountToResponse(r, account)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "accountID")
	if !ok {
		return
	}

	if err := s.service.DeleteAccount(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleReorderAccounts applies a manual move. The client sends its
// current filter state along; the core refuses the move when any
// filter is active.
func (s *Server) handleReorderAccounts(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	filter := core.FilterState{SearchText: req.SearchText, TagID: req.TagID}
	if err := s.service.MoveAccounts(r.Context(), filter, req.FromPositions, req.ToPosition); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseUUIDParam extracts and parses a UUID URL parameter, writing a
// 400 response on failure.
func parseUUIDParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}
