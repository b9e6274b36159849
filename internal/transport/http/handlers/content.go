package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pribylovaa/go-blog-platform/internal/models"
	"github.com/pribylovaa/go-blog-platform/internal/service/content"
	"github.com/pribylovaa/go-blog-platform/internal/transport/http/httperr"
	"github.com/pribylovaa/go-blog-platform/internal/transport/http/middleware"
)

type createCategoryRequest struct {
	Name string `json:"name" validate:"required,max=100"`
	Slug string `json:"slug" validate:"required,max=100"`
}

type createPostRequest struct {
	CategoryID string `json:"category_id" validate:"required,uuid"`
	Title      string `json:"title" validate:"required,max=200"`
	Content    string `json:"content" validate:"required"`
	Published  bool   `json:"published"`
}

type updatePostRequest struct {
	CategoryID string `json:"category_id" validate:"required,uuid"`
	Title      string `json:"title" validate:"required,max=200"`
	Content    string `json:"content" validate:"required"`
	Published  bool   `json:"published"`
}

type createCommentRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

type categoryResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type postResponse struct {
	ID         string `json:"id"`
	AuthorID   string `json:"author_id"`
	CategoryID string `json:"category_id"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	Published  bool   `json:"published"`
	CreatedAt  int64  `json:"created_at"` // Unix UTC
	UpdatedAt  int64  `json:"updated_at"` // Unix UTC
}

type commentResponse struct {
	ID        string `json:"id"`
	PostID    string `json:"post_id"`
	AuthorID  string `json:"author_id"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"created_at"` // Unix UTC
}

func toPostResponse(p *models.Post) postResponse {
	return postResponse{
		ID:         p.ID.String(),
		AuthorID:   p.AuthorID.String(),
		CategoryID: p.CategoryID.String(),
		Title:      p.Title,
		Content:    p.Content,
		Published:  p.IsPublished,
		CreatedAt:  p.CreatedAt.Unix(),
		UpdatedAt:  p.UpdatedAt.Unix(),
	}
}

// actorFrom достаёт identity из контекста и конвертирует в content.Actor.
func actorFrom(r *http.Request) (content.Actor, bool) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		return content.Actor{}, false
	}

	return content.Actor{ID: id.UserID, Roles: id.Roles}, true
}

// urlUUID парсит UUID из path-параметра chi.
func urlUUID(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	return id, err == nil
}

func (h *Handlers) CreateCategory(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		httperr.WriteError(w, r, errUnauthenticated())
		return
	}

	var in createCategoryRequest
	if !h.bind(w, r, &in) {
		return
	}

	c, err := h.Content.CreateCategory(r.Context(), actor, in.Name, in.Slug)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, categoryResponse{ID: c.ID.String(), Name: c.Name, Slug: c.Slug})
}

func (h *Handlers) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Content.ListCategories(r.Context())
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, categoryResponse{ID: c.ID.String(), Name: c.Name, Slug: c.Slug})
	}

	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) CreatePost(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		httperr.WriteError(w, r, errUnauthenticated())
		return
	}

	var in createPostRequest
	if !h.bind(w, r, &in) {
		return
	}

	categoryID, _ := uuid.Parse(in.CategoryID)
	p, err := h.Content.CreatePost(r.Context(), actor, categoryID, in.Title, in.Content, in.Published)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPostResponse(p))
}

func (h *Handlers) GetPost(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(r, "id")
	if !ok {
		httperr.WriteValidation(w, r, httperr.FieldError{Field: "id", Message: "must be a valid UUID"})
		return
	}

	p, err := h.Content.GetPost(r.Context(), id)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toPostResponse(p))
}

func (h *Handlers) ListPosts(w http.ResponseWriter, r *http.Request) {
	var categoryID, authorID uuid.UUID
	if v := r.URL.Query().Get("category_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			httperr.WriteValidation(w, r, httperr.FieldError{Field: "category_id", Message: "must be a valid UUID"})
			return
		}
		categoryID = id
	}
	if v := r.URL.Query().Get("author_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			httperr.WriteValidation(w, r, httperr.FieldError{Field: "author_id", Message: "must be a valid UUID"})
			return
		}
		authorID = id
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	posts, err := h.Content.ListPosts(r.Context(), categoryID, authorID, limit)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	out := make([]postResponse, 0, len(posts))
	for i := range posts {
		out = append(out, toPostResponse(&posts[i]))
	}

	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) UpdatePost(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		httperr.WriteError(w, r, errUnauthenticated())
		return
	}

	id, ok := urlUUID(r, "id")
	if !ok {
		httperr.WriteValidation(w, r, httperr.FieldError{Field: "id", Message: "must be a valid UUID"})
		return
	}

	var in updatePostRequest
	if !h.bind(w, r, &in) {
		return
	}

	categoryID, _ := uuid.Parse(in.CategoryID)
	p, err := h.Content.UpdatePost(r.Context(), actor, id, categoryID, in.Title, in.Content, in.Published)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toPostResponse(p))
}

func (h *Handlers) DeletePost(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		httperr.WriteError(w, r, errUnauthenticated())
		return
	}

	id, ok := urlUUID(r, "id")
	if !ok {
		httperr.WriteValidation(w, r, httperr.FieldError{Field: "id", Message: "must be a valid UUID"})
		return
	}

	if err := h.Content.DeletePost(r.Context(), actor, id); err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) CreateComment(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		httperr.WriteError(w, r, errUnauthenticated())
		return
	}

	postID, ok := urlUUID(r, "id")
	if !ok {
		httperr.WriteValidation(w, r, httperr.FieldError{Field: "id", Message: "must be a valid UUID"})
		return
	}

	var in createCommentRequest
	if !h.bind(w, r, &in) {
		return
	}

	c, err := h.Content.AddComment(r.Context(), actor, postID, in.Content)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, commentResponse{
		ID:        c.ID.String(),
		PostID:    c.PostID.String(),
		AuthorID:  c.AuthorID.String(),
		Content:   c.Content,
		CreatedAt: c.CreatedAt.Unix(),
	})
}

func (h *Handlers) ListComments(w http.ResponseWriter, r *http.Request) {
	postID, ok := urlUUID(r, "id")
	if !ok {
		httperr.WriteValidation(w, r, httperr.FieldError{Field: "id", Message: "must be a valid UUID"})
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	comments, err := h.Content.ListComments(r.Context(), postID, limit)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	out := make([]commentResponse, 0, len(comments))
	for _, c := range comments {
		out = append(out, commentResponse{
			ID:        c.ID.String(),
			PostID:    c.PostID.String(),
			AuthorID:  c.AuthorID.String(),
			Content:   c.Content,
			CreatedAt: c.CreatedAt.Unix(),
		})
	}

	writeJSON(w, http.StatusOK, out)
}
