// Пакет repository — слой доступа к данным PostgreSQL.
// Все запросы — чистый SQL через pgx, без ORM.
//
// Даты и время передаются строками ISO (YYYY-MM-DD, HH:MM): фильтрация
// по диапазону выполняется сравнением строк на стороне сервиса.
package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Ошибки слоя репозиториев.
var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("запись не найдена")
	// ErrConflict — конфликт уникальности (дублирующийся ресурс).
	ErrConflict = errors.New("конфликт — запись уже существует")
	// ErrInvalid — значение отклонено ограничением CHECK или форматом.
	ErrInvalid = errors.New("значение отклонено базой данных")
)

// DBTX — интерфейс для выполнения SQL-запросов.
// Реализуется как *pgxpool.Pool, так и pgx.Tx, что позволяет
// использовать репозитории как внутри, так и вне транзакций.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Форматы выборки даты и времени.
const (
	sqlDate = "'YYYY-MM-DD'"
	sqlTime = "'HH24:MI'"
)

// isUniqueViolation проверяет, является ли ошибка нарушением уникальности PostgreSQL.
func isUniqueViolation(err error) bool {
	return pgCode(err) == "23505" // unique_violation
}

// isInvalidInput — нарушение CHECK или некорректный формат даты/времени.
func isInvalidInput(err error) bool {
	switch pgCode(err) {
	case "23514", // check_violation
		"22007", // invalid_datetime_format
		"22008", // datetime_field_overflow
		"22P02": // invalid_text_representation
		return true
	}
	return false
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
