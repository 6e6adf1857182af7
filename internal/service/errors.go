package service

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Виды ошибок публичных операций. HTTP-слой сопоставляет их со статусами.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrStorage    = errors.New("storage error")
)

// storageErr переводит ошибку репозитория в вид ErrNotFound или ErrStorage.
func storageErr(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w: %v", op, ErrStorage, err)
}

func validationErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// logFailure пишет ошибку операции в лог с уровнем по её виду и возвращает её без изменений.
func logFailure(logger *zap.SugaredLogger, op string, err error, keysAndValues ...any) error {
	kv := append(keysAndValues, "error", err)
	switch {
	case errors.Is(err, ErrValidation):
		logger.Warnw(op+": invalid input", kv...)
	case errors.Is(err, ErrNotFound):
		logger.Infow(op+": not found", kv...)
	default:
		logger.Errorw(op+": storage error", kv...)
	}
	return err
}
