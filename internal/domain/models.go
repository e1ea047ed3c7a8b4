package domain

import "time"

// Trend is the directional indicator of a user's leaderboard movement
// relative to the previous ranking baseline.
type Trend string

const (
	TrendUp      Trend = "up"
	TrendDown    Trend = "down"
	TrendNeutral Trend = "neutral"
)

// Metric selects which ledger field a ranking is ordered by.
type Metric string

const (
	MetricPoints Metric = "points"
	MetricHours  Metric = "hours"
)

// Metrics lists every supported ranking metric.
var Metrics = []Metric{MetricPoints, MetricHours}

// ParseMetric validates a client-supplied metric name, defaulting to points.
func ParseMetric(raw string) (Metric, error) {
	switch raw {
	case "", string(MetricPoints):
		return MetricPoints, nil
	case string(MetricHours):
		return MetricHours, nil
	default:
		return "", ErrUnknownMetric
	}
}

// User is the minimal identity record rankings and posts hang off.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Avatar    string    `json:"avatar,omitempty"`
	Bio       string    `json:"bio,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Progress is the per-user ledger of accumulated study hours and quiz points.
// Mutated only by additive deltas and explicit per-field resets; never negative.
type Progress struct {
	UserID string  `json:"userId"`
	Hours  float64 `json:"hours"`
	Points int     `json:"points"`
	Trend  Trend   `json:"trend"`
}

// ProgressField names a resettable ledger field.
type ProgressField string

const (
	FieldHours  ProgressField = "hours"
	FieldPoints ProgressField = "points"
)

// ParseProgressField validates a client-supplied field name.
func ParseProgressField(raw string) (ProgressField, error) {
	switch raw {
	case string(FieldHours):
		return FieldHours, nil
	case string(FieldPoints):
		return FieldPoints, nil
	default:
		return "", ErrUnknownField
	}
}

// ProgressRow is a ledger row joined with its owner's identity,
// the unit the ranking computation consumes.
type ProgressRow struct {
	User   User
	Hours  float64
	Points int
}

// RankingEntry is one derived leaderboard row. Never persisted.
type RankingEntry struct {
	Rank   int     `json:"rank"`
	User   User    `json:"user"`
	Hours  float64 `json:"hours"`
	Points int     `json:"points"`
	Trend  Trend   `json:"trend"`
}

// Ranking is the full ordered leaderboard for one metric.
type Ranking struct {
	Metric    Metric         `json:"metric"`
	Entries   []RankingEntry `json:"entries"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// Post is a group post carrying one tagged content variant.
// Quiz posts are immutable once created.
type Post struct {
	ID        string      `json:"id"`
	GroupID   string      `json:"groupId"`
	AuthorID  string      `json:"authorId"`
	Content   PostContent `json:"content"`
	CreatedAt time.Time   `json:"createdAt"`
}

// PostView is a post decorated with the viewer's recorded quiz answer, if any.
type PostView struct {
	Post
	ViewerAnswer *AnswerView `json:"viewerAnswer,omitempty"`
}

// AnswerView is the viewer-facing slice of a recorded answer.
type AnswerView struct {
	OptionIndex int  `json:"optionIndex"`
	IsCorrect   bool `json:"isCorrect"`
}

// Answer records a user's one-shot submission to a quiz post.
// (PostID, UserID) is unique: at most one answer per user per quiz.
type Answer struct {
	PostID      string    `json:"postId"`
	UserID      string    `json:"userId"`
	OptionIndex int       `json:"optionIndex"`
	IsCorrect   bool      `json:"isCorrect"`
	AnsweredAt  time.Time `json:"answeredAt"`
}

// AnswerResult summarizes the outcome of a quiz submission.
type AnswerResult struct {
	IsCorrect     bool `json:"isCorrect"`
	PointsAwarded int  `json:"pointsAwarded"`
}
