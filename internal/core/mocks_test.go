package core

import (
	"context"
	"sync/atomic"

	"github.com/stretchr/testify/mock"

	"cinestream.app/cinebot/internal/store"
)

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, req Request, temperature float32) (string, error) {
	args := m.Called(ctx, req, temperature)
	return args.String(0), args.Error(1)
}

// blockingCompleter holds every call until release is closed.
type blockingCompleter struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	reply   string
}

func newBlockingCompleter(reply string) *blockingCompleter {
	return &blockingCompleter{
		started: make(chan struct{}, 8),
		release: make(chan struct{}),
		reply:   reply,
	}
}

func (b *blockingCompleter) Complete(ctx context.Context, req Request) string {
	b.calls.Add(1)
	b.started <- struct{}{}
	<-b.release
	return b.reply
}

type panickingCompleter struct{}

func (panickingCompleter) Complete(ctx context.Context, req Request) string {
	panic("boom")
}

type fakeCatalog struct {
	movies map[int64]store.Movie
	rows   map[string][]int64
}

func newFakeCatalog(movies ...store.Movie) *fakeCatalog {
	c := &fakeCatalog{movies: make(map[int64]store.Movie), rows: make(map[string][]int64)}
	for _, m := range movies {
		c.movies[m.ID] = m
	}
	return c
}

func (c *fakeCatalog) GetMovie(id int64) (*store.Movie, error) {
	m, ok := c.movies[id]
	if !ok {
		return nil, store.ErrMovieNotFound
	}
	return &m, nil
}

func (c *fakeCatalog) GetMoviesByIDs(ids []int64) ([]store.Movie, error) {
	var out []store.Movie
	for _, id := range ids {
		if m, ok := c.movies[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (c *fakeCatalog) GetRow(key, query string) ([]store.Movie, error) {
	var out []store.Movie
	for _, id := range c.rows[key] {
		if m, ok := c.movies[id]; ok && store.MatchesQuery(m, query) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (c *fakeCatalog) GetHero() (*store.Movie, error) {
	if ids := c.rows[store.HeroRow]; len(ids) > 0 {
		return c.GetMovie(ids[0])
	}
	return nil, store.ErrMovieNotFound
}

func (c *fakeCatalog) SearchMovies(query string) ([]store.Movie, error) {
	var out []store.Movie
	for _, m := range c.movies {
		out = append(out, m)
	}
	return out, nil
}

type completerFunc func(ctx context.Context, req Request) string

func (f completerFunc) Complete(ctx context.Context, req Request) string {
	return f(ctx, req)
}
