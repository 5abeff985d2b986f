package model

import (
	"time"

	"github.com/google/uuid"
)

// Article is a single piece of published content.
type Article struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Author    string    `json:"author"`
	Image     *string   `json:"image"`
	Timestamp time.Time `json:"timestamp"`
}

// ArticlePatch carries the fields of an update request. A nil field is left untouched.
type ArticlePatch struct {
	Title   *string
	Content *string
	Author  *string
	Image   *string
}

// Apply overwrites the fields set in the patch. ID and Timestamp never change.
func (a *Article) Apply(p ArticlePatch) {
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.Content != nil {
		a.Content = *p.Content
	}
	if p.Author != nil {
		a.Author = *p.Author
	}
	if p.Image != nil {
		img := *p.Image
		a.Image = &img
	}
}
