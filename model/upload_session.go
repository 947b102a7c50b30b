package model

import "time"

// UploadSession is the client-visible part of an in-flight chunked upload.
// Sessions live in memory only and are gone after completion or expiry.
type UploadSession struct {
	ID          string    `json:"sessionId"`
	UserID      uint64    `json:"-"`
	FileName    string    `json:"filename"`
	FinalName   string    `json:"finalName"`
	Size        int64     `json:"size"`
	TotalChunks int       `json:"totalChunks"`
	CreatedAt   time.Time `json:"createdAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
}
