package domain

import "errors"

// ErrNotFound возвращается репозиториями, когда сущность отсутствует.
var ErrNotFound = errors.New("сущность не найдена")
