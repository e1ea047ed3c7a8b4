package postgres

import (
	"encoding/json"
	"time"

	"github.com/uptrace/bun"
)

type userModel struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        string    `bun:"id,pk"`
	Name      string    `bun:"name,notnull"`
	Email     string    `bun:"email,notnull"`
	Avatar    string    `bun:"avatar"`
	Bio       string    `bun:"bio"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

type progressModel struct {
	bun.BaseModel `bun:"table:user_progress,alias:p"`

	UserID string  `bun:"user_id,pk"`
	Hours  float64 `bun:"hours,notnull,default:0"`
	Points int     `bun:"points,notnull,default:0"`
	Trend  string  `bun:"trend,notnull,default:'neutral'"`
}

type postModel struct {
	bun.BaseModel `bun:"table:group_posts,alias:gp"`

	ID        string          `bun:"id,pk"`
	GroupID   string          `bun:"group_id,notnull"`
	AuthorID  string          `bun:"author_id,notnull"`
	Content   json.RawMessage `bun:"content,type:jsonb,notnull"`
	CreatedAt time.Time       `bun:"created_at,notnull"`
}

type answerModel struct {
	bun.BaseModel `bun:"table:quiz_answers,alias:qa"`

	PostID      string    `bun:"post_id,pk"`
	UserID      string    `bun:"user_id,pk"`
	OptionIndex int       `bun:"option_index,notnull"`
	IsCorrect   bool      `bun:"is_correct,notnull"`
	AnsweredAt  time.Time `bun:"answered_at,notnull"`
}
