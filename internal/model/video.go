package model

import "time"

// Video is the catalog metadata record. The Primary store owns the
// original; the Secondary store and the cache only ever hold copies.
type Video struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Duration    int64     `json:"duration"`
	Genre       string    `json:"genre"`
	VideoURL    string    `json:"video_url"`
	Views       int64     `json:"views"`
	CreatedAt   time.Time `json:"created_at"`
}

// Clone returns a copy of the video so callers can hand records to the
// replication queue without sharing mutable state.
func (v *Video) Clone() *Video {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// VideoPatch is a typed partial update. Nil fields are absent and leave
// the stored value untouched.
type VideoPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Duration    *int64  `json:"duration,omitempty"`
	Genre       *string `json:"genre,omitempty"`
	VideoURL    *string `json:"video_url,omitempty"`
	Views       *int64  `json:"views,omitempty"`
}

// IsEmpty reports whether the patch carries no fields at all.
func (p *VideoPatch) IsEmpty() bool {
	return p == nil || (p.Title == nil && p.Description == nil && p.Duration == nil &&
		p.Genre == nil && p.VideoURL == nil && p.Views == nil)
}

// Apply copies the present fields onto the video.
func (p *VideoPatch) Apply(v *Video) {
	if p == nil || v == nil {
		return
	}
	if p.Title != nil {
		v.Title = *p.Title
	}
	if p.Description != nil {
		v.Description = *p.Description
	}
	if p.Duration != nil {
		v.Duration = *p.Duration
	}
	if p.Genre != nil {
		v.Genre = *p.Genre
	}
	if p.VideoURL != nil {
		v.VideoURL = *p.VideoURL
	}
	if p.Views != nil {
		v.Views = *p.Views
	}
}
