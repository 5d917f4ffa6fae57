package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cinestream.app/cinebot/internal/locale"
	"cinestream.app/cinebot/internal/store"
)

var ErrSessionNotFound = errors.New("session not found")

// MovieCatalog is the read side of the movie store.
type MovieCatalog interface {
	GetMovie(id int64) (*store.Movie, error)
	GetMoviesByIDs(ids []int64) ([]store.Movie, error)
	SearchMovies(query string) ([]store.Movie, error)
	GetRow(key, query string) ([]store.Movie, error)
	GetHero() (*store.Movie, error)
}

// Session is one opened assistant surface with its watch-list.
type Session struct {
	ID        string
	CreatedAt time.Time
	Assistant *Assistant
	WatchList *WatchList
}

type WatchListToggle struct {
	MovieID int64  `json:"movie_id"`
	InList  bool   `json:"in_list"`
	Message string `json:"message"`
}

type ChatService struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	completer Completer
	catalog   MovieCatalog
	logger    *zap.SugaredLogger
}

func NewChatService(completer Completer, catalog MovieCatalog, logger *zap.SugaredLogger) *ChatService {
	return &ChatService{
		sessions:  make(map[string]*Session),
		completer: completer,
		catalog:   catalog,
		logger:    logger,
	}
}

// CreateChat opens a session whose conversation starts with the greeting of l.
func (s *ChatService) CreateChat(l locale.Locale) *Session {
	session := &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		Assistant: NewAssistant(store.NewConversation(), s.completer, l, s.logger),
		WatchList: NewWatchList(),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	s.logger.Infow("Session opened", "session", session.ID, "locale", l)
	return session
}

func (s *ChatService) GetChat(sessionID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// CloseChat forgets the session. A completion still in flight settles into
// the discarded conversation.
func (s *ChatService) CloseChat(sessionID string) error {
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	if session.Assistant.Pending() {
		s.logger.Infow("Session closed with a completion in flight", "session", sessionID)
	} else {
		s.logger.Infow("Session closed", "session", sessionID)
	}
	return nil
}

func (s *ChatService) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *ChatService) PostMessage(ctx context.Context, sessionID, text string) (store.Message, error) {
	session, err := s.GetChat(sessionID)
	if err != nil {
		return store.Message{}, err
	}
	return session.Assistant.Submit(ctx, text)
}

func (s *ChatService) SetLocale(sessionID string, l locale.Locale) (*Session, error) {
	session, err := s.GetChat(sessionID)
	if err != nil {
		return nil, err
	}
	session.Assistant.SetLocale(l)
	return session, nil
}

func (s *ChatService) ToggleWatchList(sessionID string, movieID int64) (*WatchListToggle, error) {
	session, err := s.GetChat(sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.catalog.GetMovie(movieID); err != nil {
		return nil, err
	}

	inList := session.WatchList.Toggle(movieID)
	strs := locale.For(session.Assistant.Locale())
	msg := strs.RemovedFromList
	if inList {
		msg = strs.AddedToList
	}
	return &WatchListToggle{MovieID: movieID, InList: inList, Message: msg}, nil
}

func (s *ChatService) GetWatchList(sessionID string) ([]store.Movie, error) {
	session, err := s.GetChat(sessionID)
	if err != nil {
		return nil, err
	}
	movies, err := s.catalog.GetMoviesByIDs(session.WatchList.IDs())
	if err != nil {
		return nil, fmt.Errorf("failed to load watch-list movies: %w", err)
	}
	return movies, nil
}

func (s *ChatService) SearchMovies(query string) ([]store.Movie, error) {
	return s.catalog.SearchMovies(query)
}

func (s *ChatService) GetMovie(movieID int64) (*store.Movie, error) {
	return s.catalog.GetMovie(movieID)
}
