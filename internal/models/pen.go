package models

import "time"

const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// CodeBundle is the editable payload of a pen.
type CodeBundle struct {
	HTML string `json:"html"`
	CSS  string `json:"css"`
	JS   string `json:"js"`
}

type PenStats struct {
	Likes int64 `json:"likes"`
	Views int64 `json:"views"`
}

type Pen struct {
	ID         string       `json:"id"`
	AuthorID   int64        `json:"author_id"`
	Author     *UserSummary `json:"author,omitempty"`
	Title      string       `json:"title"`
	Code       CodeBundle   `json:"code"`
	Visibility string       `json:"visibility"`
	Deleted    bool         `json:"deleted"`
	Stats      PenStats     `json:"stats"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}
