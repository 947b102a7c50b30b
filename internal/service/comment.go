package service

import (
	"Go_Blog/internal/dto"
	"Go_Blog/internal/metrics"
	"Go_Blog/internal/repo"
	"Go_Blog/model"
	"Go_Blog/utils"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"
)

const maxCommentLength = 512

// TableCommentStore reads comments through the row store.
type TableCommentStore struct {
	comments *repo.Table[model.Comment]
}

// NewTableCommentStore wraps the comments table.
func NewTableCommentStore(comments *repo.Table[model.Comment]) *TableCommentStore {
	return &TableCommentStore{comments: comments}
}

// Get loads one comment.
func (s *TableCommentStore) Get(ctx context.Context, id uint64) (*model.Comment, error) {
	return s.comments.Get(ctx, id)
}

// Children lists direct children of parentID within an article, oldest first.
func (s *TableCommentStore) Children(ctx context.Context, articleID uint64, parentID *uint64) ([]model.Comment, error) {
	q := repo.Query{Order: "created_at ASC, id ASC"}
	if parentID == nil {
		q.Where, q.Args = "article_id = ? AND parent_id IS NULL", []any{articleID}
	} else {
		q.Where, q.Args = "article_id = ? AND parent_id = ?", []any{articleID, *parentID}
	}
	return s.comments.Find(ctx, q)
}

// CommentNotifier is told about new comments.
type CommentNotifier interface {
	CommentPosted(article *model.Article, author *model.User, c *model.Comment)
}

// CommentService persists comments and enforces who may change them. The
// structural rules live in CommentTree.
type CommentService struct {
	tree     *CommentTree
	comments *repo.Table[model.Comment]
	articles *repo.Table[model.Article]
	notifier CommentNotifier
	pageSize int
}

// NewCommentService builds a CommentService. notifier may be nil.
func NewCommentService(tree *CommentTree, comments *repo.Table[model.Comment], articles *repo.Table[model.Article], notifier CommentNotifier, pageSize int) *CommentService {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &CommentService{tree: tree, comments: comments, articles: articles, notifier: notifier, pageSize: pageSize}
}

func (s *CommentService) visibleArticle(ctx context.Context, viewer *model.User, articleID uint64) (*model.Article, error) {
	a, err := s.articles.Get(ctx, articleID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !a.VisibleTo(viewer) {
		return nil, ErrNotFound
	}
	return a, nil
}

// Forest returns one page of top-level threads, newest first, each
// expanded to the tree's depth bound.
func (s *CommentService) Forest(ctx context.Context, viewer *model.User, articleID uint64, page int) (*dto.CommentPage, error) {
	if _, err := s.visibleArticle(ctx, viewer, articleID); err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	const top = "article_id = ? AND parent_id IS NULL"
	total, err := s.comments.Count(ctx, top, articleID)
	if err != nil {
		return nil, err
	}
	offset := (page - 1) * s.pageSize
	rows, err := s.comments.Find(ctx, repo.Query{
		Where:  top,
		Args:   []any{articleID},
		Order:  "created_at DESC, id DESC",
		Offset: offset,
		Limit:  s.pageSize,
	})
	if err != nil {
		return nil, err
	}
	roots, err := s.tree.expand(ctx, articleID, wrapComments(rows), s.tree.MaxDepth())
	if err != nil {
		return nil, err
	}
	return &dto.CommentPage{
		Page:     page,
		Total:    total,
		Range:    [2]int{offset, offset + len(roots)},
		Comments: roots,
	}, nil
}

func validateCommentContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", fmt.Errorf("%w: content required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(content) > maxCommentLength {
		return "", fmt.Errorf("%w: content longer than %d characters", ErrInvalidInput, maxCommentLength)
	}
	return content, nil
}

// Post stores a comment or reply by user on an article.
func (s *CommentService) Post(ctx context.Context, user *model.User, articleID uint64, in dto.CommentCreateRequest) (*model.Comment, error) {
	if user == nil {
		return nil, ErrUnauthorized
	}
	article, err := s.visibleArticle(ctx, user, articleID)
	if err != nil {
		return nil, err
	}
	content, err := validateCommentContent(in.Content)
	if err != nil {
		return nil, err
	}
	c, err := s.tree.CreateReply(ctx, user.ID, content, in.Parent, articleID)
	if errors.Is(err, ErrDepthExceeded) {
		metrics.Comments.WithLabelValues("depth_rejected").Inc()
	}
	if err != nil {
		return nil, err
	}
	if _, err = s.comments.Insert(ctx, c); err != nil {
		return nil, err
	}
	metrics.Comments.WithLabelValues("created").Inc()
	if s.notifier != nil {
		s.notifier.CommentPosted(article, user, c)
	}
	return c, nil
}

func (s *CommentService) load(ctx context.Context, articleID, commentID uint64) (*model.Comment, error) {
	c, err := s.comments.Get(ctx, commentID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if c.ArticleID != articleID {
		return nil, ErrNotFound
	}
	return c, nil
}

// Edit replaces the content of the user's own comment when hash matches
// the stored one.
func (s *CommentService) Edit(ctx context.Context, user *model.User, articleID, commentID uint64, in dto.CommentEditRequest) (*model.Comment, error) {
	if user == nil {
		return nil, ErrUnauthorized
	}
	existing, err := s.load(ctx, articleID, commentID)
	if err != nil {
		return nil, err
	}
	if existing.UserID != user.ID {
		return nil, ErrForbidden
	}
	content, err := validateCommentContent(in.Content)
	if err != nil {
		return nil, err
	}
	updated, err := s.tree.EditComment(existing, content, in.Hash)
	if errors.Is(err, ErrConflict) {
		metrics.Comments.WithLabelValues("conflict").Inc()
	}
	if err != nil {
		return nil, err
	}
	if err = s.comments.Update(ctx, updated); err != nil {
		return nil, err
	}
	metrics.Comments.WithLabelValues("edited").Inc()
	return updated, nil
}

// Delete removes a comment with its whole reply subtree. The owner and
// admins may delete.
func (s *CommentService) Delete(ctx context.Context, user *model.User, articleID, commentID uint64) error {
	if user == nil {
		return ErrUnauthorized
	}
	c, err := s.load(ctx, articleID, commentID)
	if err != nil {
		return err
	}
	if c.UserID != user.ID && !user.IsAdmin() {
		return ErrForbidden
	}

	err = s.comments.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		comments := s.comments.WithDB(tx)
		ids := []uint64{c.ID}
		frontier := []uint64{c.ID}
		for len(frontier) > 0 {
			children, err := comments.Query(ctx, "parent_id IN ?", frontier)
			if err != nil {
				return err
			}
			frontier = frontier[:0]
			for _, child := range children {
				ids = append(ids, child.ID)
				frontier = append(frontier, child.ID)
			}
		}
		return comments.DeleteWhere(ctx, "id IN ?", ids)
	})
	if err != nil {
		return err
	}
	metrics.Comments.WithLabelValues("deleted").Inc()
	return nil
}

// MailNotifier mails the site owner about new comments.
type MailNotifier struct {
	mailer  utils.Mailer
	to      string
	siteURL string
}

// NewMailNotifier returns nil when mailer is nil.
func NewMailNotifier(mailer utils.Mailer, to, siteURL string) *MailNotifier {
	if mailer == nil || to == "" {
		return nil
	}
	return &MailNotifier{mailer: mailer, to: to, siteURL: siteURL}
}

// CommentPosted sends the mail in the background; failures are logged.
func (n *MailNotifier) CommentPosted(article *model.Article, author *model.User, c *model.Comment) {
	if n == nil || author.ID == article.AuthorID {
		return
	}
	link := fmt.Sprintf("%s/article/%d", n.siteURL, article.ID)
	body := utils.CommentMailBody(article.Title, author.UserName, c.Content, link)
	subject := "New comment on " + article.Title
	go func() {
		if err := n.mailer.Send([]string{n.to}, subject, body); err != nil {
			log.Printf("comment mail for article %d: %v", article.ID, err)
		}
	}()
}
