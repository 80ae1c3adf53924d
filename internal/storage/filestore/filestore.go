// Package filestore реализует хранилище записей пользователей в одном JSON-файле.
// Коллекция целиком держится в памяти и полностью перезаписывается при каждом сохранении.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/magabrotheeeer/byteport-bot/internal/lib/sl"
	"github.com/magabrotheeeer/byteport-bot/internal/models"
	"github.com/magabrotheeeer/byteport-bot/internal/storage"
)

// Store файловое хранилище пользователей.
type Store struct {
	path  string
	log   *slog.Logger
	mu    sync.RWMutex
	users map[string]models.UserRecord
}

// New открывает хранилище по пути path. Отсутствующий или повреждённый файл
// логируется и приводит к пустой коллекции.
func New(path string, log *slog.Logger) *Store {
	const op = "filestore.New"
	log = log.With(slog.String("op", op), slog.String("path", path))

	s := &Store{
		path:  path,
		log:   log,
		users: make(map[string]models.UserRecord),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Info("users file does not exist, starting with empty collection")
		} else {
			log.Error("failed to read users file", sl.Err(err))
		}
		return s
	}
	if err := json.Unmarshal(data, &s.users); err != nil {
		log.Error("failed to decode users file", sl.Err(err))
		s.users = make(map[string]models.UserRecord)
		return s
	}
	log.Info("users loaded", slog.Int("count", len(s.users)))
	return s
}

// Get возвращает запись пользователя или storage.ErrUserNotFound.
func (s *Store) Get(ctx context.Context, userID string) (*models.UserRecord, error) {
	const op = "filestore.Get"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	return &rec, nil
}

// Upsert сохраняет запись и перезаписывает файл. Если файл записать не удалось,
// запись остаётся в памяти, а возвращаемая ошибка оборачивает storage.ErrPersist.
func (s *Store) Upsert(ctx context.Context, userID string, rec models.UserRecord) error {
	const op = "filestore.Upsert"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[userID] = rec
	if err := s.save(); err != nil {
		return fmt.Errorf("%s: %w: %w", op, storage.ErrPersist, err)
	}
	return nil
}

// Delete удаляет запись и перезаписывает файл.
func (s *Store) Delete(ctx context.Context, userID string) error {
	const op = "filestore.Delete"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		return fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	delete(s.users, userID)
	if err := s.save(); err != nil {
		return fmt.Errorf("%s: %w: %w", op, storage.ErrPersist, err)
	}
	return nil
}

// List возвращает копию всей коллекции.
func (s *Store) List(ctx context.Context) (map[string]models.UserRecord, error) {
	const op = "filestore.List"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]models.UserRecord, len(s.users))
	for id, rec := range s.users {
		out[id] = rec
	}
	return out, nil
}

// EndingOn возвращает идентификаторы пользователей с датой окончания date.
func (s *Store) EndingOn(ctx context.Context, date string) ([]string, error) {
	const op = "filestore.EndingOn"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for id, rec := range s.users {
		if rec.SubscriptionEnd == date {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// save пишет коллекцию во временный файл и атомарно переименовывает его. Вызывается под s.mu.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.users, "", "    ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err = tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, s.path)
}
