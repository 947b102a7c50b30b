package service

import (
	"Go_Blog/internal/repo"
	"Go_Blog/internal/storage"
	"Go_Blog/model"
	"context"
	"errors"
	"io"
	"log"
)

// AssetService lists, serves and deletes published uploads.
type AssetService struct {
	assets  *repo.Table[model.Asset]
	store   storage.Store
	uploads *UploadManager
}

func NewAssetService(assets *repo.Table[model.Asset], store storage.Store, uploads *UploadManager) *AssetService {
	return &AssetService{assets: assets, store: store, uploads: uploads}
}

// List returns the user's assets, or every asset for admins.
func (s *AssetService) List(ctx context.Context, user *model.User) ([]model.Asset, error) {
	if !user.CanWrite() {
		return nil, ErrForbidden
	}
	q := repo.Query{Order: "created_at DESC, id DESC"}
	if !user.IsAdmin() {
		q.Where, q.Args = "user_id = ?", []any{user.ID}
	}
	rows, err := s.assets.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].URL = s.uploads.AssetURL(rows[i].FinalName)
	}
	return rows, nil
}

// Delete removes the object and its record.
func (s *AssetService) Delete(ctx context.Context, user *model.User, id uint64) error {
	if !user.CanWrite() {
		return ErrForbidden
	}
	a, err := s.assets.Get(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if a.UserID != user.ID && !user.IsAdmin() {
		return ErrForbidden
	}
	if err = s.store.RemoveObject(ctx, a.FinalName); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		return err
	}
	if err = s.assets.Delete(ctx, a); err != nil {
		log.Printf("asset %d: object removed but record kept: %v", a.ID, err)
		return err
	}
	return nil
}

// Open streams a published object by its final name.
func (s *AssetService) Open(ctx context.Context, name string) (io.ReadCloser, storage.ObjectInfo, error) {
	rc, info, err := s.store.GetObject(ctx, name)
	if errors.Is(err, storage.ErrObjectNotFound) || errors.Is(err, storage.ErrInvalidObjectName) {
		return nil, storage.ObjectInfo{}, ErrNotFound
	}
	return rc, info, err
}
