package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"mighty-lite/mighty"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrDuplicateID = errors.New("user id already taken")
	ErrBadPassword = errors.New("wrong password")
	ErrEmptyField  = errors.New("required field is empty")
)

// UserInfo mirrors the users table row, minus the password hash.
type UserInfo struct {
	No      int64  `json:"no"`
	Id      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Rating  int    `json:"rating"`
	IsAdmin bool   `json:"is_admin"`
}

// RatingEntry is one row of a user's rating history.
type RatingEntry struct {
	UserNo int64     `json:"user_no"`
	GameId string    `json:"game_id"`
	Diff   int       `json:"diff"`
	Rating int       `json:"rating"`
	Time   time.Time `json:"time"`
}

const defaultRating = 1500

// Service is the async façade over the relational store. Gameplay treats
// write failures as non-fatal; only user lookup during connect is load
// bearing.
type Service interface {
	Close() error

	GetUserInfoByNo(ctx context.Context, no int64) (UserInfo, error)
	GetUserInfoByID(ctx context.Context, id string) (UserInfo, error)
	RegisterUser(ctx context.Context, id, name, email, password string) (UserInfo, error)
	Authenticate(ctx context.Context, id, password string) (UserInfo, error)

	SaveRule(ctx context.Context, roomId int, rule *mighty.Rule) error
	LoadRule(ctx context.Context, roomId int) (*mighty.Rule, error)
	MakeGameRecord(ctx context.Context, gameId string, roomId int, roomName string, users []int64, isRank bool, rule *mighty.Rule) error
	SaveState(ctx context.Context, gameId string, roomId int, number int, state mighty.State) error
	ChangeRating(ctx context.Context, userNo int64, gameId string, diff, rating int) error
	GetRating(ctx context.Context, userNo int64, window int) ([]RatingEntry, error)
}

// NewServiceFromEnv picks a backend from STORE_MODE: memory, sqlite (with
// STORE_SQLITE_PATH) or postgres (with STORE_DATABASE_DSN).
func NewServiceFromEnv() (Service, string, error) {
	mode := strings.ToLower(strings.TrimSpace(os.Getenv("STORE_MODE")))
	return NewService(mode, os.Getenv("STORE_DATABASE_DSN"), os.Getenv("STORE_SQLITE_PATH"))
}

// NewService builds a backend by mode name; empty mode means memory.
func NewService(mode, dsn, sqlitePath string) (Service, string, error) {
	switch mode {
	case "", "memory", "mem":
		return NewMemoryService(), "memory", nil
	case "sqlite", "local":
		svc, err := NewSQLiteService(sqlitePath)
		if err != nil {
			return nil, "", err
		}
		return svc, "sqlite", nil
	case "postgres", "postgresql", "db":
		svc, err := NewPostgresService(dsn)
		if err != nil {
			return nil, "", err
		}
		return svc, "postgres", nil
	}
	return nil, "", fmt.Errorf("invalid STORE_MODE %q (supported: memory, sqlite, postgres)", mode)
}

// memoryService keeps everything in maps. Unknown user numbers resolve to
// a synthetic guest account so a dev server works without registration.
type memoryService struct {
	mu      sync.Mutex
	nextNo  int64
	byNo    map[int64]UserInfo
	byID    map[string]int64
	hashes  map[int64][]byte
	ratings map[int64][]RatingEntry
	rules   map[int][]byte
}

func NewMemoryService() Service {
	return &memoryService{
		nextNo:  1,
		byNo:    make(map[int64]UserInfo),
		byID:    make(map[string]int64),
		hashes:  make(map[int64][]byte),
		ratings: make(map[int64][]RatingEntry),
		rules:   make(map[int][]byte),
	}
}

func (m *memoryService) Close() error { return nil }

func (m *memoryService) GetUserInfoByNo(_ context.Context, no int64) (UserInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if info, ok := m.byNo[no]; ok {
		return info, nil
	}
	// Guest fallback keeps the memory backend friction-free.
	info := UserInfo{No: no, Id: fmt.Sprintf("guest_%d", no), Name: fmt.Sprintf("guest_%d", no), Rating: defaultRating}
	m.byNo[no] = info
	return info, nil
}

func (m *memoryService) GetUserInfoByID(_ context.Context, id string) (UserInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	no, ok := m.byID[id]
	if !ok {
		return UserInfo{}, ErrNotFound
	}
	return m.byNo[no], nil
}

func (m *memoryService) RegisterUser(_ context.Context, id, name, email, password string) (UserInfo, error) {
	if strings.TrimSpace(id) == "" || password == "" {
		return UserInfo{}, ErrEmptyField
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return UserInfo{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.byID[id]; taken {
		return UserInfo{}, ErrDuplicateID
	}
	no := m.nextNo
	m.nextNo++
	info := UserInfo{No: no, Id: id, Name: name, Email: email, Rating: defaultRating}
	m.byNo[no] = info
	m.byID[id] = no
	m.hashes[no] = hash
	return info, nil
}

func (m *memoryService) Authenticate(_ context.Context, id, password string) (UserInfo, error) {
	m.mu.Lock()
	no, ok := m.byID[id]
	info := m.byNo[no]
	hash := m.hashes[no]
	m.mu.Unlock()
	if !ok {
		return UserInfo{}, ErrNotFound
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		return UserInfo{}, ErrBadPassword
	}
	return info, nil
}

func (m *memoryService) SaveRule(_ context.Context, roomId int, rule *mighty.Rule) error {
	raw, err := marshalRule(rule)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules[roomId] = raw
	return nil
}

func (m *memoryService) LoadRule(_ context.Context, roomId int) (*mighty.Rule, error) {
	m.mu.Lock()
	raw, ok := m.rules[roomId]
	m.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	return unmarshalRule(raw)
}

func (m *memoryService) MakeGameRecord(_ context.Context, _ string, _ int, _ string, _ []int64, _ bool, _ *mighty.Rule) error {
	return nil
}

func (m *memoryService) SaveState(_ context.Context, _ string, _ int, _ int, _ mighty.State) error {
	return nil
}

func (m *memoryService) ChangeRating(_ context.Context, userNo int64, gameId string, diff, rating int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ratings[userNo] = append(m.ratings[userNo], RatingEntry{
		UserNo: userNo, GameId: gameId, Diff: diff, Rating: rating, Time: time.Now().UTC(),
	})
	if info, ok := m.byNo[userNo]; ok {
		info.Rating = rating
		m.byNo[userNo] = info
	}
	return nil
}

func (m *memoryService) GetRating(_ context.Context, userNo int64, window int) ([]RatingEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.ratings[userNo]
	if window <= 0 || window > len(all) {
		window = len(all)
	}
	out := make([]RatingEntry, window)
	copy(out, all[len(all)-window:])
	return out, nil
}

func marshalRule(rule *mighty.Rule) ([]byte, error) {
	return json.Marshal(rule)
}

func unmarshalRule(raw []byte) (*mighty.Rule, error) {
	rule := &mighty.Rule{}
	if err := json.Unmarshal(raw, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

func marshalState(state mighty.State) ([]byte, error) {
	return json.Marshal(state)
}

func marshalUsers(users []int64) ([]byte, error) {
	return json.Marshal(users)
}
