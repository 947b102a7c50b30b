package dto

import "mime/multipart"

type UploadInitRequest struct {
	FileName string `json:"filename" binding:"required"`
	FileSize int64  `json:"fileSize" binding:"required"`
}

type UploadChunkRequest struct {
	SessionID   string                `form:"sessionId" binding:"required"`
	Chunk       *int                  `form:"chunk" binding:"required,gte=0"`
	TotalChunks int                   `form:"totalChunks" binding:"required,gt=0"`
	FinalName   string                `form:"finalName" binding:"required"`
	File        *multipart.FileHeader `form:"file" binding:"required"`
}

type UploadProgressQuery struct {
	FinalName string `form:"finalName" binding:"required"`
}

type CommentCreateRequest struct {
	Content string  `json:"content" binding:"required,max=512"`
	Parent  *uint64 `json:"parent"`
}

type CommentEditRequest struct {
	Content string `json:"content" binding:"required,max=512"`
	Hash    string `json:"hash" binding:"required"`
}

type PageQuery struct {
	Page int `form:"page" binding:"omitempty,gte=1"`
}

type ArticleListQuery struct {
	Page      int    `form:"page" binding:"omitempty,gte=1"`
	PageSize  int    `form:"pageSize" binding:"omitempty,gte=1,lte=100"`
	Category  *uint8 `form:"category"`
	Query     string `form:"q"`
	OrderBy   string `form:"orderBy"`
	OrderDesc *bool  `form:"desc"`
}

type ArticleCreateRequest struct {
	Title       string `json:"title" binding:"required,max=24"`
	Description string `json:"description" binding:"max=128"`
	Content     string `json:"content" binding:"required"`
	Background  string `json:"background" binding:"omitempty,max=512"`
	Category    uint8  `json:"category"`
	Published   bool   `json:"published"`
}

// ArticleUpdateRequest changes only the fields that are present. OldHash
// must match the stored content hash.
type ArticleUpdateRequest struct {
	Title       *string `json:"title" binding:"omitempty,max=24"`
	Description *string `json:"description" binding:"omitempty,max=128"`
	Content     *string `json:"content"`
	Background  *string `json:"background" binding:"omitempty,max=512"`
	Category    *uint8  `json:"category"`
	Published   *bool   `json:"published"`
	OldHash     string  `json:"oldHash" binding:"required"`
}

type FriendCreateRequest struct {
	Name        string `json:"name" binding:"required,max=24"`
	Description string `json:"description" binding:"max=128"`
	URL         string `json:"url" binding:"required,url,max=512"`
	Avatar      string `json:"avatar" binding:"omitempty,url,max=512"`
}

type LoginQuery struct {
	Code string `form:"code" binding:"required"`
}
