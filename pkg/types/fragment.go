package types

import (
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
)

// Fragment size limits
const (
	MaxFragmentTextLen = 1000
	MaxContextTextLen  = 250
)

// Validation errors
var (
	ErrEmptyFragmentText   = errors.New("fragment text cannot be empty")
	ErrFragmentTextTooLong = errors.New("fragment text exceeds maximum length")
	ErrContextTextTooLong  = errors.New("context text exceeds maximum length")
	ErrMissingFragmentID   = errors.New("fragment ID is required")
)

// Rect is a document-relative bounding box in pixels.
type Rect struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DistanceTo returns the Euclidean distance between the top-left corners of
// two rectangles, in document coordinates.
func (r Rect) DistanceTo(other Rect) float64 {
	dx := r.Left - other.Left
	dy := r.Top - other.Top
	return math.Sqrt(dx*dx + dy*dy)
}

// Fragment is the persisted, content-addressed description of a highlighted
// passage. It is immutable once captured: the capturing component owns it and
// downstream components only read it.
type Fragment struct {
	// ID uniquely identifies this fragment across captures and pages.
	ID string `json:"id"`

	// Text is the highlighted passage itself (1..1000 chars).
	Text string `json:"text"`

	// ContextText is the text surrounding the fragment at capture time,
	// used for disambiguation when the same passage occurs more than once.
	ContextText string `json:"context_text,omitempty"`

	// ApproxPosition is the fragment's document-relative bounding box at
	// capture time. Nil when the capturing host had no layout available.
	ApproxPosition *Rect `json:"approx_position,omitempty"`

	// CapturedAt is the capture timestamp.
	CapturedAt time.Time `json:"captured_at"`
}

// NewFragmentID returns a new unique fragment identifier.
func NewFragmentID() string {
	return uuid.NewString()
}

// Validate checks the fragment against its size limits.
func (f *Fragment) Validate() error {
	if f.ID == "" {
		return ErrMissingFragmentID
	}
	if len(f.Text) == 0 {
		return ErrEmptyFragmentText
	}
	if len([]rune(f.Text)) > MaxFragmentTextLen {
		return ErrFragmentTextTooLong
	}
	if len([]rune(f.ContextText)) > MaxContextTextLen {
		return ErrContextTextTooLong
	}
	return nil
}

// Record is a Fragment bound to the page it was captured on, as handed to
// the persistence collaborator. Anchors are never part of a Record.
type Record struct {
	Fragment
	PageURL string `json:"page_url"`
}
