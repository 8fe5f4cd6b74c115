// Package model contains domain models passed between layers.
package model

import "time"

// ActivityKind distinguishes posts from comments in an account's history.
type ActivityKind string

// Activity kinds.
const (
	ActivityPost    ActivityKind = "post"
	ActivityComment ActivityKind = "comment"
)

// Activity is a single post or comment observed on an account.
type Activity struct {
	At        time.Time    // event timestamp, UTC
	Subreddit string       // community the event was posted in
	Body      string       // text body; may be empty for link posts
	Kind      ActivityKind // post or comment
}

// Account is the raw record returned by the collector for one identifier.
// It is immutable once fetched and passed by value into feature extraction.
type Account struct {
	Identifier   string // unique account key
	CreatedAt    time.Time
	PostKarma    int64
	CommentKarma int64
	Verified     bool // verified email
	Premium      bool
	Trophies     int
	Activities   []Activity
}

// TotalKarma returns the combined post and comment karma.
func (a Account) TotalKarma() int64 {
	return a.PostKarma + a.CommentKarma
}
