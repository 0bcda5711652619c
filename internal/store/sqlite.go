package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"mighty-lite/mighty"

	_ "modernc.org/sqlite"
)

const defaultSQLitePath = "mighty_local.db"

// SQLiteService is the single-file backend. One connection, WAL mode.
type SQLiteService struct {
	db *sql.DB
}

func NewSQLiteService(dbPath string) (*SQLiteService, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		dbPath = defaultSQLitePath
	}
	if dbPath != ":memory:" {
		parent := filepath.Dir(dbPath)
		if parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, pragma := range []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
		`PRAGMA foreign_keys = ON;`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSQLiteSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteService{db: db}, nil
}

func ensureSQLiteSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
    no INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL DEFAULT '',
    email TEXT NOT NULL DEFAULT '',
    password TEXT NOT NULL,
    rating INTEGER NOT NULL DEFAULT 1500,
    is_admin INTEGER NOT NULL DEFAULT 0
)`,
		`CREATE TABLE IF NOT EXISTS game (
    id TEXT PRIMARY KEY,
    room_id INTEGER NOT NULL,
    room_name TEXT NOT NULL DEFAULT '',
    users TEXT NOT NULL,
    is_rank INTEGER NOT NULL DEFAULT 0,
    rule TEXT NOT NULL,
    created_at INTEGER NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS record (
    game_id TEXT NOT NULL,
    room_id INTEGER NOT NULL,
    number INTEGER NOT NULL,
    state TEXT NOT NULL,
    PRIMARY KEY (game_id, number)
)`,
		`CREATE TABLE IF NOT EXISTS room_rule (
    room_id INTEGER PRIMARY KEY,
    rule TEXT NOT NULL,
    updated_at INTEGER NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS rating (
    user_no INTEGER NOT NULL,
    game_id TEXT NOT NULL,
    diff INTEGER NOT NULL,
    rating INTEGER NOT NULL,
    time INTEGER NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_rating_user_time ON rating (user_no, time DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteService) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteService) GetUserInfoByNo(ctx context.Context, no int64) (UserInfo, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
SELECT no, id, name, email, rating, is_admin FROM users WHERE no = ?`, no))
}

func (s *SQLiteService) GetUserInfoByID(ctx context.Context, id string) (UserInfo, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
SELECT no, id, name, email, rating, is_admin FROM users WHERE id = ?`, id))
}

func (s *SQLiteService) scanUser(row *sql.Row) (UserInfo, error) {
	var info UserInfo
	err := row.Scan(&info.No, &info.Id, &info.Name, &info.Email, &info.Rating, &info.IsAdmin)
	if errors.Is(err, sql.ErrNoRows) {
		return UserInfo{}, ErrNotFound
	}
	if err != nil {
		return UserInfo{}, err
	}
	return info, nil
}

func (s *SQLiteService) RegisterUser(ctx context.Context, id, name, email, password string) (UserInfo, error) {
	if strings.TrimSpace(id) == "" || password == "" {
		return UserInfo{}, ErrEmptyField
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return UserInfo{}, err
	}
	res, err := s.db.ExecContext(ctx, `
INSERT INTO users (id, name, email, password) VALUES (?, ?, ?, ?)`,
		id, name, email, string(hash))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return UserInfo{}, ErrDuplicateID
		}
		return UserInfo{}, err
	}
	no, err := res.LastInsertId()
	if err != nil {
		return UserInfo{}, err
	}
	return UserInfo{No: no, Id: id, Name: name, Email: email, Rating: defaultRating}, nil
}

func (s *SQLiteService) Authenticate(ctx context.Context, id, password string) (UserInfo, error) {
	var info UserInfo
	var hash string
	err := s.db.QueryRowContext(ctx, `
SELECT no, id, name, email, rating, is_admin, password FROM users WHERE id = ?`, id).
		Scan(&info.No, &info.Id, &info.Name, &info.Email, &info.Rating, &info.IsAdmin, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return UserInfo{}, ErrNotFound
	}
	if err != nil {
		return UserInfo{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return UserInfo{}, ErrBadPassword
	}
	return info, nil
}

func (s *SQLiteService) SaveRule(ctx context.Context, roomId int, rule *mighty.Rule) error {
	raw, err := marshalRule(rule)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO room_rule (room_id, rule, updated_at) VALUES (?, ?, ?)
ON CONFLICT (room_id) DO UPDATE SET rule = excluded.rule, updated_at = excluded.updated_at`,
		roomId, string(raw), time.Now().UTC().UnixMilli())
	return err
}

func (s *SQLiteService) LoadRule(ctx context.Context, roomId int) (*mighty.Rule, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `
SELECT rule FROM room_rule WHERE room_id = ?`, roomId).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return unmarshalRule([]byte(raw))
}

func (s *SQLiteService) MakeGameRecord(ctx context.Context, gameId string, roomId int, roomName string, users []int64, isRank bool, rule *mighty.Rule) error {
	usersRaw, err := marshalUsers(users)
	if err != nil {
		return err
	}
	ruleRaw, err := marshalRule(rule)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO game (id, room_id, room_name, users, is_rank, rule, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		gameId, roomId, roomName, string(usersRaw), isRank, string(ruleRaw), time.Now().UTC().UnixMilli())
	return err
}

func (s *SQLiteService) SaveState(ctx context.Context, gameId string, roomId int, number int, state mighty.State) error {
	raw, err := marshalState(state)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO record (game_id, room_id, number, state) VALUES (?, ?, ?, ?)
ON CONFLICT (game_id, number) DO NOTHING`,
		gameId, roomId, number, string(raw))
	return err
}

func (s *SQLiteService) ChangeRating(ctx context.Context, userNo int64, gameId string, diff, rating int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO rating (user_no, game_id, diff, rating, time) VALUES (?, ?, ?, ?, ?)`,
		userNo, gameId, diff, rating, time.Now().UTC().UnixMilli()); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
UPDATE users SET rating = ? WHERE no = ?`, rating, userNo); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteService) GetRating(ctx context.Context, userNo int64, window int) ([]RatingEntry, error) {
	if window <= 0 || window > 1000 {
		window = 100
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT user_no, game_id, diff, rating, time
FROM rating WHERE user_no = ?
ORDER BY time DESC LIMIT ?`, userNo, window)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]RatingEntry, 0, window)
	for rows.Next() {
		var e RatingEntry
		var ms int64
		if err := rows.Scan(&e.UserNo, &e.GameId, &e.Diff, &e.Rating, &ms); err != nil {
			return nil, err
		}
		e.Time = time.UnixMilli(ms).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
