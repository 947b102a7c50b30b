package dto

import (
	"Go_Blog/model"
	"time"
)

type UploadChunkResponse struct {
	Message   string `json:"message"`
	FinalName string `json:"finalName,omitempty"`
	URL       string `json:"url,omitempty"`
}

// CommentPage is one page of top-level threads. Range holds the zero based
// offsets [from, to) of the threads on this page.
type CommentPage struct {
	Page     int              `json:"page"`
	Total    int64            `json:"total"`
	Range    [2]int           `json:"range"`
	Comments []*model.Comment `json:"comments"`
}

type ArticlePage struct {
	Page     int             `json:"page"`
	PageSize int             `json:"pageSize"`
	Total    int64           `json:"total"`
	Articles []model.Article `json:"articles"`
}

type NotificationCount struct {
	Count int64 `json:"count"`
}

type SiteInfo struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	Author      string   `json:"author"`
	Backgrounds []string `json:"backgrounds"`
	ClientID    string   `json:"clientId"`
}

type HealthResponse struct {
	Status string    `json:"status"`
	Time   time.Time `json:"time"`
}
