package store

import (
	"bufio"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

const driverName = "sqlite3_cinestream"

// HeroRow is the placement key of the featured movie.
const HeroRow = "hero"

var ErrMovieNotFound = errors.New("movie not found")

var registerDriver sync.Once

// The stock lower() only folds ASCII; titles and genres are French.
func register() {
	registerDriver.Do(func() {
		sql.Register(driverName, &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				return conn.RegisterFunc("unicode_lower", strings.ToLower, true)
			},
		})
	})
}

// SQLiteStore holds the static movie catalog. Conversations never touch it.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

func NewSQLiteStore(dataSourceName string, logger *zap.SugaredLogger) (*SQLiteStore, error) {
	register()
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// ":memory:" databases are per connection.
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db, logger: logger}
	if err = store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS movies (
        id INTEGER PRIMARY KEY,
        title TEXT NOT NULL,
        genre TEXT NOT NULL DEFAULT '',
        year INTEGER NOT NULL DEFAULT 0,
        duration TEXT NOT NULL DEFAULT '',
        rating TEXT NOT NULL DEFAULT '',
        video_url TEXT NOT NULL DEFAULT '',
        thumbnail_url TEXT NOT NULL DEFAULT '',
        cover_url TEXT NOT NULL DEFAULT '',
        description TEXT NOT NULL DEFAULT ''
    );
    CREATE TABLE IF NOT EXISTS movie_rows (
        row_key TEXT NOT NULL,
        position INTEGER NOT NULL,
        movie_id INTEGER NOT NULL REFERENCES movies(id) ON DELETE CASCADE,
        PRIMARY KEY (row_key, movie_id)
    );
    CREATE INDEX IF NOT EXISTS idx_movie_rows_position ON movie_rows(row_key, position);
    `
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return s.addMissingColumn("movies", "cover_url", "TEXT NOT NULL DEFAULT ''")
}

// addMissingColumn upgrades catalogs created before column existed.
func (s *SQLiteStore) addMissingColumn(table, column, definition string) error {
	rows, err := s.db.Query("SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return fmt.Errorf("failed to inspect %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		if name == column {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	s.logger.Infow("Adding missing column", "table", table, "column", column)
	_, err = s.db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition))
	return err
}

const movieColumns = "id, title, genre, year, duration, rating, video_url, thumbnail_url, cover_url, description"

// matchClause filters on the lowered query bound three times.
const matchClause = "(instr(unicode_lower(title), ?) > 0 OR instr(unicode_lower(genre), ?) > 0 OR instr(unicode_lower(description), ?) > 0)"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMovie(row rowScanner) (Movie, error) {
	var m Movie
	err := row.Scan(&m.ID, &m.Title, &m.Genre, &m.Year, &m.Duration, &m.Rating, &m.VideoURL, &m.ThumbnailURL, &m.CoverURL, &m.Description)
	return m, err
}

func (s *SQLiteStore) GetMovie(id int64) (*Movie, error) {
	m, err := scanMovie(s.db.QueryRow("SELECT "+movieColumns+" FROM movies WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		return nil, fmt.Errorf("failed to get movie: %w", err)
	}
	return &m, nil
}

func scanMovies(rows *sql.Rows) ([]Movie, error) {
	defer rows.Close()
	movies := []Movie{}
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan movie row: %w", err)
		}
		movies = append(movies, m)
	}
	return movies, rows.Err()
}

// SearchMovies matches query case-insensitively against title, genre and
// description. Only the empty query lists the whole catalog; whitespace is
// part of the query.
func (s *SQLiteStore) SearchMovies(query string) ([]Movie, error) {
	var rows *sql.Rows
	var err error
	if query == "" {
		rows, err = s.db.Query("SELECT " + movieColumns + " FROM movies ORDER BY id ASC")
	} else {
		q := strings.ToLower(query)
		rows, err = s.db.Query(
			"SELECT "+movieColumns+" FROM movies WHERE "+matchClause+" ORDER BY id ASC",
			q, q, q)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query movies: %w", err)
	}
	return scanMovies(rows)
}

// GetRow returns the movies placed in row key, in row order, filtered like
// SearchMovies.
func (s *SQLiteStore) GetRow(key, query string) ([]Movie, error) {
	stmt := "SELECT " + movieColumns + " FROM movies JOIN movie_rows ON movie_rows.movie_id = movies.id WHERE movie_rows.row_key = ?"
	args := []any{key}
	if query != "" {
		q := strings.ToLower(query)
		stmt += " AND " + matchClause
		args = append(args, q, q, q)
	}
	rows, err := s.db.Query(stmt+" ORDER BY movie_rows.position ASC, movies.id ASC", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query row %s: %w", key, err)
	}
	return scanMovies(rows)
}

// GetHero returns the first movie of the hero row.
func (s *SQLiteStore) GetHero() (*Movie, error) {
	movies, err := s.GetRow(HeroRow, "")
	if err != nil {
		return nil, err
	}
	if len(movies) == 0 {
		return nil, ErrMovieNotFound
	}
	return &movies[0], nil
}

// MatchesQuery is the in-memory form of the catalog search filter, for
// movie lists that do not come from a query.
func MatchesQuery(m Movie, query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(m.Title), q) ||
		strings.Contains(strings.ToLower(m.Genre), q) ||
		strings.Contains(strings.ToLower(m.Description), q)
}

// GetMoviesByIDs returns the movies in the order of ids, skipping unknown ids.
func (s *SQLiteStore) GetMoviesByIDs(ids []int64) ([]Movie, error) {
	movies := make([]Movie, 0, len(ids))
	for _, id := range ids {
		m, err := s.GetMovie(id)
		if errors.Is(err, ErrMovieNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		movies = append(movies, *m)
	}
	return movies, nil
}

func (s *SQLiteStore) CountMovies() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM movies").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count movies: %w", err)
	}
	return n, nil
}

// IngestCatalog replaces the catalog with the rows of a Markdown table whose
// header names the columns (id and title are required). An optional rows
// column lists placements such as "trending:2 action:1".
func (s *SQLiteStore) IngestCatalog(r io.Reader) (int, error) {
	entries, err := parseCatalog(r, s.logger)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, fmt.Errorf("no movies found in catalog table")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin catalog ingest: %w", err)
	}
	defer tx.Rollback()

	// Clear both tables, placements first.
	if _, err := tx.Exec("DELETE FROM movie_rows"); err != nil {
		return 0, fmt.Errorf("failed to clear movie rows: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM movies"); err != nil {
		return 0, fmt.Errorf("failed to clear movies: %w", err)
	}

	movieStmt, err := tx.Prepare("INSERT INTO movies (" + movieColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare movie insert: %w", err)
	}
	defer movieStmt.Close()

	rowStmt, err := tx.Prepare("INSERT OR REPLACE INTO movie_rows (row_key, position, movie_id) VALUES (?, ?, ?)")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare row insert: %w", err)
	}
	defer rowStmt.Close()

	count := 0
	for _, e := range entries {
		m := e.movie
		if _, err := movieStmt.Exec(m.ID, m.Title, m.Genre, m.Year, m.Duration, m.Rating, m.VideoURL, m.ThumbnailURL, m.CoverURL, m.Description); err != nil {
			s.logger.Warnw("Skipping movie that could not be stored", "id", m.ID, "error", err)
			continue
		}
		count++

		for _, p := range e.placements {
			if _, err := rowStmt.Exec(p.key, p.position, m.ID); err != nil {
				return 0, fmt.Errorf("failed to place movie %d in row %s: %w", m.ID, p.key, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit catalog ingest: %w", err)
	}
	s.logger.Infow("Catalog ingested", "movies", count)
	return count, nil
}

type placement struct {
	key      string
	position int
}

type catalogEntry struct {
	movie      Movie
	placements []placement
}

// parsePlacements reads "key:position" tokens. A token without a position
// goes after the last one seen for its key.
func parsePlacements(cell string, next map[string]int) ([]placement, error) {
	var out []placement
	for _, token := range strings.FieldsFunc(cell, func(r rune) bool { return r == ' ' || r == ',' }) {
		key, pos, hasPos := strings.Cut(token, ":")
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			return nil, fmt.Errorf("empty row key in %q", token)
		}
		position := next[key] + 1
		if hasPos {
			n, err := strconv.Atoi(pos)
			if err != nil || n < 1 {
				return nil, fmt.Errorf("invalid position in %q", token)
			}
			position = n
		}
		if position > next[key] {
			next[key] = position
		}
		out = append(out, placement{key: key, position: position})
	}
	return out, nil
}

func splitRow(line string) []string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")
	cells := strings.Split(line, "|")
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells
}

func isSeparator(cells []string) bool {
	for _, c := range cells {
		if strings.Trim(c, "-: ") != "" {
			return false
		}
	}
	return true
}

func parseCatalog(r io.Reader, logger *zap.SugaredLogger) ([]catalogEntry, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var columns map[string]int
	var entries []catalogEntry
	nextPosition := make(map[string]int)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, "|") || !strings.HasSuffix(line, "|") {
			continue
		}
		cells := splitRow(line)

		if columns == nil {
			columns = make(map[string]int, len(cells))
			for i, name := range cells {
				columns[strings.ToLower(name)] = i
			}
			if _, ok := columns["id"]; !ok {
				return nil, fmt.Errorf("catalog header has no id column")
			}
			if _, ok := columns["title"]; !ok {
				return nil, fmt.Errorf("catalog header has no title column")
			}
			continue
		}
		if isSeparator(cells) {
			continue
		}
		if len(cells) != len(columns) {
			logger.Warnw("Skipping malformed catalog row", "line", lineNo, "cells", len(cells), "want", len(columns))
			continue
		}

		cell := func(name string) string {
			if i, ok := columns[name]; ok {
				return cells[i]
			}
			return ""
		}

		id, err := strconv.ParseInt(cell("id"), 10, 64)
		if err != nil {
			logger.Warnw("Skipping catalog row with invalid id", "line", lineNo, "id", cell("id"))
			continue
		}
		year, _ := strconv.Atoi(cell("year"))

		placements, err := parsePlacements(cell("rows"), nextPosition)
		if err != nil {
			logger.Warnw("Ignoring invalid row placements", "line", lineNo, "id", id, "error", err)
			placements = nil
		}

		entries = append(entries, catalogEntry{
			movie: Movie{
				ID:           id,
				Title:        cell("title"),
				Genre:        cell("genre"),
				Year:         year,
				Duration:     cell("duration"),
				Rating:       cell("rating"),
				VideoURL:     cell("video_url"),
				ThumbnailURL: cell("thumbnail_url"),
				CoverURL:     cell("cover_url"),
				Description:  cell("description"),
			},
			placements: placements,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return entries, nil
}
