package task

import (
	"Go_Blog/internal/mq"
	"Go_Blog/internal/service"
	"Go_Blog/model"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type checkResult struct {
	available bool
	at        time.Time
}

type memLinks struct {
	links   map[uint64]model.FriendLink
	results map[uint64]checkResult
	failRec error
}

func newMemLinks(links ...model.FriendLink) *memLinks {
	m := &memLinks{links: map[uint64]model.FriendLink{}, results: map[uint64]checkResult{}}
	for _, l := range links {
		m.links[l.ID] = l
	}
	return m
}

func (m *memLinks) List(context.Context) ([]model.FriendLink, error) {
	out := make([]model.FriendLink, 0, len(m.links))
	for _, l := range m.links {
		out = append(out, l)
	}
	return out, nil
}

func (m *memLinks) Get(_ context.Context, id uint64) (*model.FriendLink, error) {
	l, ok := m.links[id]
	if !ok {
		return nil, service.ErrNotFound
	}
	return &l, nil
}

func (m *memLinks) RecordCheck(_ context.Context, id uint64, available bool, at time.Time) error {
	if m.failRec != nil {
		return m.failRec
	}
	m.results[id] = checkResult{available: available, at: at}
	return nil
}

type memPublisher struct{ checks []mq.LinkCheck }

func (p *memPublisher) PublishCheck(_ context.Context, check mq.LinkCheck) error {
	p.checks = append(p.checks, check)
	return nil
}

func TestEnqueueAll(t *testing.T) {
	links := newMemLinks(model.FriendLink{ID: 1}, model.FriendLink{ID: 2})
	pub := &memPublisher{}

	n, err := EnqueueAll(context.Background(), links, pub)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ids := map[uint64]bool{}
	for _, check := range pub.checks {
		assert.Zero(t, check.Attempt)
		ids[check.LinkID] = true
	}
	assert.Equal(t, map[uint64]bool{1: true, 2: true}, ids)
}

func TestProberRetriesWithoutBackoff(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	start := time.Now()
	ok, err := NewProber(time.Second, 3).Check(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 3, hits.Load())
	assert.Less(t, time.Since(start), time.Second)
}

func TestProberGivesUpAfterAttempts(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	ok, err := NewProber(time.Second, 3).Check(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.EqualValues(t, 3, hits.Load())
}

func TestProberCountsRedirectAsAvailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "http://127.0.0.1:1/nowhere", http.StatusFound)
	}))
	defer srv.Close()

	ok, err := NewProber(time.Second, 1).Check(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestProcessFriendCheck(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer up.Close()
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer down.Close()

	links := newMemLinks(model.FriendLink{ID: 1, URL: up.URL}, model.FriendLink{ID: 2, URL: down.URL})
	prober := NewProber(time.Second, 3)
	ctx := context.Background()

	require.NoError(t, ProcessFriendCheck(ctx, links, prober, mq.LinkCheck{LinkID: 1}))
	require.NoError(t, ProcessFriendCheck(ctx, links, prober, mq.LinkCheck{LinkID: 2}))
	assert.True(t, links.results[1].available)
	assert.False(t, links.results[2].available)

	err := ProcessFriendCheck(ctx, links, prober, mq.LinkCheck{LinkID: 3})
	assert.ErrorIs(t, err, ErrLinkGone)

	links.failRec = errors.New("db down")
	err = ProcessFriendCheck(ctx, links, prober, mq.LinkCheck{LinkID: 1})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrLinkGone)
}
