package server

import (
	"errors"
	"fmt"
	"net/http"

	"newsroom/internal/model"
	"newsroom/internal/store"
	"newsroom/internal/upload"

	"github.com/go-chi/render"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type deleteResponse struct {
	Message string         `json:"message"`
	Article *model.Article `json:"article"`
}

type adminRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type adminResponse struct {
	Message string       `json:"message"`
	Admin   *model.Admin `json:"admin"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	articles, err := s.articles.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	render.JSON(w, r, articles)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := store.ParseID(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	article, err := s.articles.Get(r.Context(), id)
	if s.missing(err) {
		render.JSON(w, r, nil)
		return
	} else if err != nil {
		s.writeError(w, r, err)
		return
	}
	render.JSON(w, r, article)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		s.writeError(w, r, err)
		return
	}

	article := &model.Article{
		Title:   r.PostFormValue("title"),
		Content: r.PostFormValue("content"),
		Author:  r.PostFormValue("author"),
	}
	if ref, ok := upload.ImageFromContext(r.Context()); ok {
		article.Image = &ref
	}

	if err := s.articles.Create(r.Context(), article); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info("article created", zap.String("id", article.ID.String()))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, article)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := store.ParseID(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := parseForm(r); err != nil {
		s.writeError(w, r, err)
		return
	}

	var patch model.ArticlePatch
	patch.Title = formField(r, "title")
	patch.Content = formField(r, "content")
	patch.Author = formField(r, "author")
	if ref, ok := upload.ImageFromContext(r.Context()); ok {
		patch.Image = &ref
	}

	article, err := s.articles.Update(r.Context(), id, patch)
	if s.missing(err) {
		render.JSON(w, r, nil)
		return
	} else if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info("article updated", zap.String("id", id.String()))
	render.JSON(w, r, article)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := store.ParseID(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	article, err := s.articles.Delete(r.Context(), id)
	if err != nil && !s.missing(err) {
		s.writeError(w, r, err)
		return
	}

	if article != nil {
		s.logger.Info("article deleted", zap.String("id", id.String()))
	}
	render.JSON(w, r, deleteResponse{Message: "Article deleted", Article: article})
}

func (s *Server) handleRegisterAdmin(w http.ResponseWriter, r *http.Request) {
	var req adminRequest
	if render.GetRequestContentType(r) == render.ContentTypeJSON {
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			s.writeError(w, r, fmt.Errorf("%w: %w", store.ErrValidation, err))
			return
		}
	} else {
		if err := parseForm(r); err != nil {
			s.writeError(w, r, err)
			return
		}
		req.Name = r.PostFormValue("name")
		req.Email = r.PostFormValue("email")
		req.Password = r.PostFormValue("password")
	}

	admin, err := model.NewAdmin(req.Name, req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %w", store.ErrValidation, err))
		return
	}

	if err := s.admins.Create(r.Context(), admin); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info("admin registered", zap.String("id", admin.ID.String()))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, adminResponse{Message: "Admin created successfully", Admin: admin})
}

// missing reports a not-found error that should be answered with null.
func (s *Server) missing(err error) bool {
	return s.nullNotFound && errors.Is(err, store.ErrNotFound)
}

// parseForm is a no-op when the upload adapter already parsed the body.
func parseForm(r *http.Request) error {
	err := r.ParseMultipartForm(upload.DefaultMaxMemory)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return fmt.Errorf("%w: %w", upload.ErrBadForm, err)
	}
	return nil
}

// formField returns nil when name is absent from the body, so the patch skips it.
func formField(r *http.Request, name string) *string {
	values, ok := r.PostForm[name]
	if !ok || len(values) == 0 {
		return nil
	}
	return &values[0]
}
