package api

import (
	"net/http"

	"github.com/example/phone-store/internal/command"
	"github.com/example/phone-store/internal/domain/category"
	"github.com/go-chi/chi/v5"
)

// Category Handlers

func (h *Handlers) GetCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.queryHandler.ListCategories()
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, categories)
}

func (h *Handlers) GetCategory(w http.ResponseWriter, r *http.Request) {
	c, err := h.queryHandler.GetCategory(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (h *Handlers) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var in category.Input
	if !decodeJSON(w, r, &in) {
		return
	}

	c, err := h.cmdHandler.CreateCategory(r.Context(), command.CreateCategory{Input: in})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

func (h *Handlers) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var in category.Input
	if !decodeJSON(w, r, &in) {
		return
	}

	c, err := h.cmdHandler.UpdateCategory(r.Context(), command.UpdateCategory{CategoryID: chi.URLParam(r, "id"), Input: in})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// DeleteCategory answers 409 while active products are filed under it
func (h *Handlers) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.cmdHandler.DeleteCategory(r.Context(), command.DeleteCategory{CategoryID: chi.URLParam(r, "id")}); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "category deleted"})
}
