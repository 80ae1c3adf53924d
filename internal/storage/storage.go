// Package storage описывает общие ошибки хранилищ записей пользователей.
// Реализации находятся в подпакетах filestore (JSON-файл) и repository (PostgreSQL).
package storage

import "errors"

var (
	// ErrUserNotFound запись пользователя отсутствует.
	ErrUserNotFound = errors.New("user not found")
	// ErrPersist запись не удалось сохранить в хранилище.
	// Файловое хранилище при этом сохраняет состояние в памяти до следующего успешного сохранения.
	ErrPersist = errors.New("failed to persist users")
)
