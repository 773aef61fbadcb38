package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mmeshcher/billing-system/internal/model"
)

type noteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Pinned  bool   `json:"pinned"`
}

type noteResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Pinned    bool   `json:"pinned"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func toNoteResponse(n *model.Note) noteResponse {
	return noteResponse{
		ID:        n.ID,
		Title:     n.Title,
		Content:   n.Content,
		Pinned:    n.Pinned,
		CreatedAt: n.CreatedAt.Format(time.RFC3339),
		UpdatedAt: n.UpdatedAt.Format(time.RFC3339),
	}
}

// CreateNote создаёт заметку.
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	n, err := h.service.CreateNote(r.Context(), model.NoteInput(req))
	if err != nil {
		h.writeError(w, err, "create note error")
		return
	}

	h.writeJSON(w, http.StatusCreated, toNoteResponse(n))
}

// GetNote возвращает заметку по идентификатору.
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	n, err := h.service.GetNote(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "get note error")
		return
	}

	h.writeJSON(w, http.StatusOK, toNoteResponse(n))
}

// ListNotes возвращает все заметки.
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.service.ListNotes(r.Context())
	if err != nil {
		h.writeError(w, err, "list notes error")
		return
	}

	if len(notes) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := make([]noteResponse, 0, len(notes))
	for i := range notes {
		resp = append(resp, toNoteResponse(&notes[i]))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// UpdateNote обновляет заметку.
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req noteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	n, err := h.service.UpdateNote(r.Context(), id, model.NoteInput(req))
	if err != nil {
		h.writeError(w, err, "update note error")
		return
	}

	h.writeJSON(w, http.StatusOK, toNoteResponse(n))
}

// DeleteNote удаляет заметку.
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteNote(r.Context(), id); err != nil {
		h.writeError(w, err, "delete note error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
