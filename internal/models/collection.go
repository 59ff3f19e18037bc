package models

import "time"

type Collection struct {
	ID          string       `json:"id"`
	AuthorID    int64        `json:"author_id"`
	Author      *UserSummary `json:"author,omitempty"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Visibility  string       `json:"visibility"`
	Deleted     bool         `json:"deleted"`
	Pens        []Pen        `json:"pens,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}
