package progress

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Эти интерфейсы определяют контракт для работы с хранилищем данных.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// MutateFunc применяет доменную логику к заблокированной строке прогресса.
// Возврат ошибки откатывает транзакцию целиком.
type MutateFunc func(p *UserProgress) error

// ProgressStore определяет операции над записью прогресса пользователя.
type ProgressStore interface {
	// GetOrCreateProgress возвращает прогресс пользователя, создавая его
	// со значениями по умолчанию, если записи ещё нет.
	GetOrCreateProgress(ctx context.Context, userID string) (*UserProgress, error)

	// MutateProgress читает строку прогресса под блокировкой, применяет fn
	// и сохраняет результат в одной транзакции. Строка создаётся по
	// умолчанию, если её нет.
	MutateProgress(ctx context.Context, userID string, fn MutateFunc) (*UserProgress, error)
}

// CompletionStore определяет операции над записями о завершении уроков.
// Записи неизменяемы: пути обновления и точечного удаления нет.
type CompletionStore interface {
	// GetCompletion возвращает завершение по паре (userID, lessonID).
	// Возвращает shared.ErrCompletionNotFound, если записи нет.
	GetCompletion(ctx context.Context, userID, lessonID string) (*LessonCompletion, error)

	// ListCompletions возвращает все завершения пользователя,
	// отсортированные по времени.
	ListCompletions(ctx context.Context, userID string) ([]*LessonCompletion, error)

	// CountCompletions возвращает количество завершений пользователя.
	CountCompletions(ctx context.Context, userID string) (int, error)

	// ListCompletionTimes возвращает только моменты завершений -
	// достаточно для вычисления самой долгой серии.
	ListCompletionTimes(ctx context.Context, userID string) ([]time.Time, error)
}

// Repository объединяет оба хранилища и добавляет операции, требующие
// атомарности между ними. Движок прогресса - единственный писатель.
type Repository interface {
	ProgressStore
	CompletionStore

	// RecordCompletion в одной транзакции: блокирует (или создаёт) строку
	// прогресса, вызывает fn для вычисления изменений, вставляет запись
	// о завершении и сохраняет прогресс. Либо обе записи фиксируются,
	// либо ни одна.
	//
	// Уникальное ограничение на (user_id, lesson_id) - точка сериализации:
	// из двух конкурентных вызовов для одной пары ровно один получает
	// успех, второй - shared.ErrLessonAlreadyCompleted.
	RecordCompletion(ctx context.Context, completion *LessonCompletion, fn MutateFunc) (*UserProgress, error)

	// RecordAdjustment в одной транзакции применяет fn к строке прогресса
	// и вставляет запись аудита. Используется административными операциями.
	RecordAdjustment(ctx context.Context, adj *AdminAdjustment, fn MutateFunc) (*UserProgress, error)

	// ResetProgress в одной транзакции удаляет все завершения пользователя,
	// возвращает прогресс к значениям по умолчанию и вставляет запись
	// аудита. Возвращает число удалённых завершений. Необратимая операция.
	ResetProgress(ctx context.Context, adj *AdminAdjustment) (int, error)
}

// AuditStore хранит записи аудита административных операций.
type AuditStore interface {
	// SaveAdjustment сохраняет запись аудита.
	SaveAdjustment(ctx context.Context, adj *AdminAdjustment) error

	// ListAdjustments возвращает записи аудита пользователя,
	// от новых к старым.
	ListAdjustments(ctx context.Context, targetUserID string, limit int) ([]*AdminAdjustment, error)
}
