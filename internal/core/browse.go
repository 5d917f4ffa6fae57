package core

import (
	"errors"
	"fmt"

	"cinestream.app/cinebot/internal/locale"
	"cinestream.app/cinebot/internal/store"
)

const MyListRow = "my_list"

// BrowseRows is the order of the curated rows under the hero.
var BrowseRows = []string{"trending", "action", "comedy", "drama", "scifi", "thriller"}

type Row struct {
	Key    string        `json:"key"`
	Title  string        `json:"title"`
	Movies []store.Movie `json:"movies"`
}

type BrowsePage struct {
	Hero    *store.Movie `json:"hero,omitempty"`
	Rows    []Row        `json:"rows"`
	Message string       `json:"message,omitempty"`
}

// Browse builds the home screen: the hero, then each curated row filtered by
// query. Rows left empty by the filter are omitted. A non-nil watchList is
// shown first as the "My List" row.
func (s *ChatService) Browse(query string, l locale.Locale, watchList []int64) (*BrowsePage, error) {
	strs := locale.For(l)
	page := &BrowsePage{Rows: []Row{}}

	// The hero is not filtered.
	hero, err := s.catalog.GetHero()
	switch {
	case err == nil:
		page.Hero = hero
	case errors.Is(err, store.ErrMovieNotFound):
	default:
		return nil, fmt.Errorf("failed to load hero: %w", err)
	}

	if watchList != nil {
		listed, err := s.catalog.GetMoviesByIDs(watchList)
		if err != nil {
			return nil, fmt.Errorf("failed to load watch-list movies: %w", err)
		}
		var movies []store.Movie
		for _, m := range listed {
			if store.MatchesQuery(m, query) {
				movies = append(movies, m)
			}
		}
		if len(movies) > 0 {
			page.Rows = append(page.Rows, Row{Key: MyListRow, Title: strs.RowTitle(MyListRow), Movies: movies})
		}
	}

	for _, key := range BrowseRows {
		movies, err := s.catalog.GetRow(key, query)
		if err != nil {
			return nil, err
		}
		if len(movies) == 0 {
			continue
		}
		page.Rows = append(page.Rows, Row{Key: key, Title: strs.RowTitle(key), Movies: movies})
	}

	if len(page.Rows) == 0 && query != "" {
		page.Message = strs.NoResults
	}
	return page, nil
}

// BrowseSession is Browse in the session's locale with its watch-list.
func (s *ChatService) BrowseSession(sessionID, query string) (*BrowsePage, error) {
	session, err := s.GetChat(sessionID)
	if err != nil {
		return nil, err
	}
	ids := session.WatchList.IDs()
	if ids == nil {
		ids = []int64{}
	}
	return s.Browse(query, session.Assistant.Locale(), ids)
}
