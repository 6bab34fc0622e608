package types

import "time"

type VideoRecord struct {
	ID            string `json:"id"`
	VideoURL      string `json:"video_url"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	LikesCount    int    `json:"likes_count"`
	CommentsCount int    `json:"comments_count"`
	Views         int    `json:"views"`
	IsLiked       bool   `json:"is_liked"`
}

type Comment struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Username   string    `json:"username"`
	Text       string    `json:"text"`
	Image      string    `json:"image,omitempty"` // base64, optional
	LikesCount int       `json:"likes_count"`
	IsLiked    bool      `json:"is_liked"`
	CreatedAt  time.Time `json:"created_at"`
}

// WatchEvent is one completed watch sample. Owned by the view batcher
// from submission until acknowledged by the gateway or dropped.
type WatchEvent struct {
	VideoID  string  `json:"video_id"`
	Duration float64 `json:"watch_duration"` // seconds, > 0
}

type SearchHistoryItem struct {
	ID        string    `json:"id"`
	Keyword   string    `json:"keyword"`
	CreatedAt time.Time `json:"created_at"`
}

type HotSearch struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

type UserBrief struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Avatar    string `json:"avatar,omitempty"`
	Followers int    `json:"followers_count"`
}

type SearchResult struct {
	Videos []VideoRecord `json:"videos"`
	Users  []UserBrief   `json:"users"`
}
