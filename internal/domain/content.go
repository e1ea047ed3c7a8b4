package domain

import (
	"encoding/json"
	"fmt"
)

// PostKind tags the content variant carried by a group post.
type PostKind string

const (
	KindText PostKind = "text"
	KindFile PostKind = "file"
	KindQuiz PostKind = "quiz"
)

// DefaultQuizPoints is credited when a quiz is authored without an explicit award.
const DefaultQuizPoints = 50

// TextContent is a plain text post.
type TextContent struct {
	Body string `json:"body"`
}

// FileContent references an uploaded attachment by name; the upload itself
// is handled by the file collaborator.
type FileContent struct {
	Name string `json:"name"`
	Size int64  `json:"size,omitempty"`
}

// QuizContent is a peer-authored multiple-choice question. Immutable once posted.
type QuizContent struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	PointsAward  int      `json:"pointsAward"`
}

// PostContent is the tagged union of post variants. It is decoded exactly once
// at the boundary; exactly one variant field is set, matching Kind.
type PostContent struct {
	Kind PostKind
	Text *TextContent
	File *FileContent
	Quiz *QuizContent
}

type contentEnvelope struct {
	Type PostKind     `json:"type"`
	Text *TextContent `json:"text,omitempty"`
	File *FileContent `json:"file,omitempty"`
	Quiz *QuizContent `json:"quiz,omitempty"`
}

// MarshalJSON encodes the content as a {type, <variant>} envelope.
func (c PostContent) MarshalJSON() ([]byte, error) {
	return json.Marshal(contentEnvelope{Type: c.Kind, Text: c.Text, File: c.File, Quiz: c.Quiz})
}

// UnmarshalJSON decodes and validates the envelope. Unknown or mismatched
// type tags fail with ErrInvalidContent.
func (c *PostContent) UnmarshalJSON(data []byte) error {
	var env contentEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}
	decoded := PostContent{Kind: env.Type, Text: env.Text, File: env.File, Quiz: env.Quiz}
	if err := decoded.Validate(); err != nil {
		return err
	}
	*c = decoded
	return nil
}

// Validate checks that exactly the variant named by Kind is present and well formed.
func (c PostContent) Validate() error {
	switch c.Kind {
	case KindText:
		if c.Text == nil || c.Text.Body == "" || c.File != nil || c.Quiz != nil {
			return ErrInvalidContent
		}
	case KindFile:
		if c.File == nil || c.File.Name == "" || c.Text != nil || c.Quiz != nil {
			return ErrInvalidContent
		}
	case KindQuiz:
		if c.Quiz == nil || c.Text != nil || c.File != nil {
			return ErrInvalidContent
		}
		return c.Quiz.validate()
	default:
		return ErrInvalidContent
	}
	return nil
}

func (q QuizContent) validate() error {
	if q.Question == "" || len(q.Options) < 2 {
		return ErrInvalidContent
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		return ErrInvalidContent
	}
	if q.PointsAward < 0 {
		return ErrInvalidContent
	}
	return nil
}

// Award returns the points credited for a correct answer, applying the default.
func (q QuizContent) Award() int {
	if q.PointsAward == 0 {
		return DefaultQuizPoints
	}
	return q.PointsAward
}
