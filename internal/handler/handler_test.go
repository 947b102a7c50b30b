package handler_test

import (
	"Go_Blog/config"
	"Go_Blog/internal/feed"
	"Go_Blog/internal/handler"
	"Go_Blog/internal/repo"
	"Go_Blog/internal/service"
	"Go_Blog/internal/storage"
	"Go_Blog/model"
	"Go_Blog/router"
	"Go_Blog/utils"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	writerID = uint64(1001)
	readerID = uint64(1002)
)

var dbSeq atomic.Int64

type testServer struct {
	t      *testing.T
	cfg    *config.Config
	tables *repo.Tables
	issuer *utils.TokenIssuer
	engine *gin.Engine
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		DisableAccessLog: true,
		JWTSecret:        "test-secret",
		TokenName:        "pw-token",
		TokenExpireDays:  7,
		GitHubClientID:   "client-id",
		UploadDir:        t.TempDir(),
		UploadChunkSize:  16 * 1024,
		UploadMaxSize:    50 * 1024 * 1024,

		UploadSessionTimeout: time.Minute,
		UploadTimeoutPolicy:  config.UploadTimeoutAbsolute,

		CommentMaxDepth: 4,
		CommentPageSize: 10,
		ArticlePageSize: 20,
		SiteTitle:       "Test Blog",
		SiteURL:         "http://blog.test",
		SiteBackgrounds: []string{"/bg/1.jpg"},
		Storage: config.StorageConfig{
			Backend:   config.StorageLocal,
			AssetsDir: t.TempDir(),
			BaseURL:   "/assets",
		},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := repo.OpenSQLite(fmt.Sprintf("file:handler_test_%d?mode=memory&cache=shared", dbSeq.Add(1)), nil)
	require.NoError(t, err)
	require.NoError(t, repo.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	tables := repo.NewTables(db)

	store, err := storage.NewLocalStore(cfg.Storage.AssetsDir)
	require.NoError(t, err)
	chunks, err := storage.NewChunkStore(cfg.UploadDir)
	require.NoError(t, err)

	issuer := utils.NewTokenIssuer(cfg.JWTSecret, cfg.GitHubClientID, time.Hour)
	users := service.NewUserService(tables.Users, nil, time.Minute)
	articles := service.NewArticleService(tables.Articles, nil, time.Minute, cfg.ArticlePageSize)
	uploads := service.NewUploadManager(service.UploadOptionsFromConfig(cfg), chunks, store, tables.Assets)
	t.Cleanup(uploads.Shutdown)
	tree := service.NewCommentTree(service.NewTableCommentStore(tables.Comments), cfg.CommentMaxDepth)

	h := handler.New(handler.Deps{
		Config:        cfg,
		Users:         users,
		Auth:          service.NewAuthService(cfg, users, issuer),
		Articles:      articles,
		Comments:      service.NewCommentService(tree, tables.Comments, tables.Articles, nil, cfg.CommentPageSize),
		Uploads:       uploads,
		Assets:        service.NewAssetService(tables.Assets, store, uploads),
		Friends:       service.NewFriendService(tables.Friends),
		Notifications: service.NewNotificationService(tables.Comments, users),
		Feed:          feed.NewGenerator(articles, nil, time.Minute, feed.Site{Title: cfg.SiteTitle, URL: cfg.SiteURL}),
	})

	s := &testServer{t: t, cfg: cfg, tables: tables, issuer: issuer, engine: router.InitRouter(cfg, h, issuer)}
	s.addUser(writerID, "writer", model.PermissionWriter)
	s.addUser(readerID, "reader", model.PermissionReader)
	return s
}

func (s *testServer) addUser(id uint64, name string, permission int) {
	_, err := s.tables.Users.Insert(s.t.Context(), &model.User{
		ID: id, UserName: name, Permission: permission, LastRead: time.Now().UTC().Add(-time.Hour),
	})
	require.NoError(s.t, err)
}

func (s *testServer) do(method, path string, userID uint64, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if userID != 0 {
		token, err := s.issuer.GenerateToken(userID)
		require.NoError(s.t, err)
		req.AddCookie(&http.Cookie{Name: s.cfg.TokenName, Value: token})
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *testServer) json(method, path string, userID uint64, payload any) *httptest.ResponseRecorder {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(s.t, err)
		body = bytes.NewReader(raw)
	}
	return s.do(method, path, userID, body, "application/json")
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (s *testServer) createArticle(title string, published bool) model.Article {
	w := s.json(http.MethodPost, "/api/articles", writerID, map[string]any{
		"title": title, "content": "<p>" + title + "</p>", "published": published,
	})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	return decode[model.Article](s.t, w)
}

func TestHealthAndSite(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	w := s.do(http.MethodGet, "/healthz", 0, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/site/info", 0, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Test Blog", decode[map[string]any](t, w)["title"])

	w = s.do(http.MethodGet, "/api/site/random_background", 0, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/bg/1.jpg", decode[map[string]string](t, w)["url"])

	w = s.do(http.MethodGet, "/api/auth/id", 0, nil, "")
	assert.Equal(t, "client-id", w.Body.String())
}

func TestCurrentUser(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	w := s.do(http.MethodGet, "/api/user", 0, nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/api/user", writerID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "writer", decode[model.User](t, w).UserName)

	w = s.do(http.MethodGet, "/api/user", 4242, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestArticlePermissionsAndOptimisticLock(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	w := s.json(http.MethodPost, "/api/articles", 0, map[string]any{"title": "x", "content": "y"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = s.json(http.MethodPost, "/api/articles", readerID, map[string]any{"title": "x", "content": "y"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	article := s.createArticle("Hello", true)
	draft := s.createArticle("Draft", false)

	w = s.do(http.MethodGet, "/api/articles/"+strconv.FormatUint(draft.ID, 10), readerID, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/api/articles", 0, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[map[string]any](t, w)
	assert.EqualValues(t, 1, page["total"])

	path := "/api/articles/" + strconv.FormatUint(article.ID, 10)
	w = s.json(http.MethodPut, path, writerID, map[string]any{"content": "new", "oldHash": "stale"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.json(http.MethodPut, path, writerID, map[string]any{"content": "new", "oldHash": article.Hash})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, model.SHA256Hex("new"), decode[model.Article](t, w).Hash)

	w = s.do(http.MethodGet, "/api/rss", 0, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<title>Hello</title>")
	assert.NotContains(t, w.Body.String(), "Draft")

	w = s.do(http.MethodDelete, path, writerID, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(http.MethodGet, path, writerID, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCommentFlow(t *testing.T) {
	s := newTestServer(t, testConfig(t))
	article := s.createArticle("Post", true)
	base := "/api/comment/" + strconv.FormatUint(article.ID, 10)

	w := s.json(http.MethodPost, base, 0, map[string]any{"content": "anon"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.json(http.MethodPost, "/api/comment/9999", readerID, map[string]any{"content": "lost"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.json(http.MethodPost, base, readerID, map[string]any{"content": "first"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	root := decode[model.Comment](t, w)

	w = s.json(http.MethodPost, base, writerID, map[string]any{"content": "reply", "parent": root.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	reply := decode[model.Comment](t, w)
	require.NotNil(t, reply.ParentID)

	w = s.json(http.MethodPost, base, writerID, map[string]any{"content": "orphan", "parent": 9999})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"parent comment not found"}`, w.Body.String())

	w = s.do(http.MethodGet, base, 0, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	forest := decode[struct {
		Total    int64            `json:"total"`
		Comments []*model.Comment `json:"comments"`
	}](t, w)
	assert.EqualValues(t, 1, forest.Total)
	require.Len(t, forest.Comments, 1)
	require.Len(t, forest.Comments[0].Replies, 1)
	assert.Equal(t, "reply", forest.Comments[0].Replies[0].Content)

	// the reader sees the writer's reply as unread
	w = s.do(http.MethodGet, "/api/notifications/count", readerID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode[map[string]int64](t, w)["count"])
	w = s.do(http.MethodPost, "/api/notifications/mark_read", readerID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(http.MethodGet, "/api/notifications/count", readerID, nil, "")
	assert.EqualValues(t, 0, decode[map[string]int64](t, w)["count"])

	edit := base + "/" + strconv.FormatUint(root.ID, 10)
	w = s.json(http.MethodPut, edit, writerID, map[string]any{"content": "hijack", "hash": root.Hash})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = s.json(http.MethodPut, edit, readerID, map[string]any{"content": "edited", "hash": "stale"})
	assert.Equal(t, http.StatusConflict, w.Code)
	w = s.json(http.MethodPut, edit, readerID, map[string]any{"content": "edited", "hash": root.Hash})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.SHA1Hex("edited"), decode[model.Comment](t, w).Hash)

	w = s.do(http.MethodDelete, edit, readerID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	count, err := s.tables.Comments.Count(t.Context(), "article_id = ?", article.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func (s *testServer) sendChunk(sess model.UploadSession, index int, data []byte) *httptest.ResponseRecorder {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(s.t, mw.WriteField("sessionId", sess.ID))
	require.NoError(s.t, mw.WriteField("chunk", strconv.Itoa(index)))
	require.NoError(s.t, mw.WriteField("totalChunks", strconv.Itoa(sess.TotalChunks)))
	require.NoError(s.t, mw.WriteField("finalName", sess.FinalName))
	part, err := mw.CreateFormFile("file", "blob")
	require.NoError(s.t, err)
	_, err = part.Write(data)
	require.NoError(s.t, err)
	require.NoError(s.t, mw.Close())
	return s.do(http.MethodPost, "/api/upload/session", writerID, &body, mw.FormDataContentType())
}

func TestChunkedUploadOverHTTP(t *testing.T) {
	s := newTestServer(t, testConfig(t))
	chunkSize := int(s.cfg.UploadChunkSize)

	data := make([]byte, 2*chunkSize+1000)
	for i := range data {
		data[i] = byte(i % 251)
	}

	w := s.json(http.MethodPost, "/api/upload/new", readerID, map[string]any{"filename": "notes.html", "fileSize": len(data)})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.json(http.MethodPost, "/api/upload/new", writerID, map[string]any{"filename": "huge.bin", "fileSize": 51 * 1024 * 1024})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.json(http.MethodPost, "/api/upload/new", writerID, map[string]any{"filename": "notes.html", "fileSize": len(data)})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	sess := decode[model.UploadSession](t, w)
	require.Equal(t, 3, sess.TotalChunks)

	part := func(i int) []byte {
		end := min((i+1)*chunkSize, len(data))
		return data[i*chunkSize : end]
	}

	w = s.sendChunk(sess, 2, part(2))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "chunk-accepted", decode[map[string]string](t, w)["message"])

	w = s.sendChunk(sess, 2, part(2))
	assert.Equal(t, "already-uploaded", decode[map[string]string](t, w)["message"])

	w = s.do(http.MethodGet, "/api/upload/session/"+sess.ID+"?finalName="+sess.FinalName, writerID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []int{2}, decode[service.UploadProgress](t, w).Uploaded)

	w = s.sendChunk(sess, 0, part(0))
	require.Equal(t, http.StatusOK, w.Code)

	w = s.sendChunk(sess, 1, part(1))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	done := decode[map[string]string](t, w)
	assert.Equal(t, "completed", done["message"])
	assert.Equal(t, sess.FinalName, done["finalName"])

	w = s.sendChunk(sess, 1, part(1))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, done["url"], 0, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, data, w.Body.Bytes())

	w = s.do(http.MethodGet, "/api/upload/assets", writerID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assets := decode[[]model.Asset](t, w)
	require.Len(t, assets, 1)
	assert.Equal(t, model.SHA256Hex(string(data)), assets[0].Hash)

	w = s.do(http.MethodDelete, "/api/upload/assets/"+strconv.FormatUint(assets[0].ID, 10), writerID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(http.MethodGet, done["url"], 0, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFriends(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	w := s.json(http.MethodPost, "/api/friends", writerID, map[string]any{"name": "pal", "url": "ftp://pal.example"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.json(http.MethodPost, "/api/friends", writerID, map[string]any{"name": "pal", "url": "https://pal.example"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	link := decode[model.FriendLink](t, w)

	w = s.do(http.MethodGet, "/api/friends", 0, nil, "")
	require.Len(t, decode[[]model.FriendLink](t, w), 1)

	w = s.do(http.MethodDelete, "/api/friends/abc", writerID, nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(http.MethodDelete, "/api/friends/999", writerID, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(http.MethodDelete, "/api/friends/"+strconv.FormatUint(link.ID, 10), writerID, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGitHubLoginSetsCookie(t *testing.T) {
	github := http.NewServeMux()
	github.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("code") != "good" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"bad_verification_code"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"gh-token","token_type":"bearer"}`))
	})
	github.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer gh-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":5150,"login":"octo","avatar_url":"https://avatars.example/octo"}`))
	})
	gh := httptest.NewServer(github)
	defer gh.Close()

	cfg := testConfig(t)
	cfg.GitHubURL = gh.URL
	cfg.GitHubAPIURL = gh.URL
	s := newTestServer(t, cfg)

	w := s.do(http.MethodPost, "/api/auth/login?code=bad", 0, nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/api/auth/login?code=good", 0, nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	user := decode[model.User](t, w)
	assert.Equal(t, uint64(5150), user.ID)
	assert.Equal(t, "octo", user.UserName)

	var session *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "pw-token" {
			session = c
		}
	}
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)
	claims, err := s.issuer.VerifyToken(session.Value)
	require.NoError(t, err)
	assert.Equal(t, uint64(5150), claims.UserId)
}
