// Package sl содержит вспомогательные функции для работы с логгером slog.
package sl

import "log/slog"

// Err возвращает slog.Attr с ключом "error" и текстом ошибки.
// Для nil-ошибки возвращается пустая строка, чтобы логирование никогда не паниковало.
//
// Пример:
//
//	log.Error("failed to save users", sl.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// User возвращает slog.Attr с идентификатором пользователя чата.
func User(userID string) slog.Attr {
	return slog.String("user_id", userID)
}
