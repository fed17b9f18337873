// Package ratelimit ограничивает число попыток по идентификатору
// (user id, IP) с временной блокировкой после превышения порога.
package ratelimit

import (
	"log/slog"
	"sync"
	"time"
)

// Config параметры лимитера
type Config struct {
	Name          string        // имя для логов и метрик
	MaxAttempts   int           // разрешенное число попыток в окне
	Window        time.Duration // окно подсчета попыток
	BlockDuration time.Duration // длительность блокировки после превышения
}

// Предустановленные конфигурации
var (
	// LoginConfig 3 попытки за 15 минут, блокировка на 30 минут
	LoginConfig = Config{Name: "login", MaxAttempts: 3, Window: 15 * time.Minute, BlockDuration: 30 * time.Minute}
	// APIConfig 50 запросов в минуту, блокировка на 5 минут
	APIConfig = Config{Name: "api", MaxAttempts: 50, Window: time.Minute, BlockDuration: 5 * time.Minute}
	// AdminConfig 10 действий в минуту, блокировка на 10 минут
	AdminConfig = Config{Name: "admin", MaxAttempts: 10, Window: time.Minute, BlockDuration: 10 * time.Minute}
)

// Result результат проверки попытки
type Result struct {
	BlockedUntil      time.Time `json:"blocked_until,omitzero"`
	RemainingAttempts int       `json:"remaining_attempts"`
	Allowed           bool      `json:"allowed"`
}

// Info текущее состояние идентификатора (без изменения состояния)
type Info struct {
	BlockedUntil      time.Time `json:"blocked_until,omitzero"`
	Count             int       `json:"count"`
	RemainingAttempts int       `json:"remaining_attempts"`
	Blocked           bool      `json:"blocked"`
}

// attempts состояние по одному идентификатору
type attempts struct {
	firstAttempt time.Time
	blockedUntil time.Time
	count        int
}

// Limiter считает попытки по идентификаторам.
// Безопасен для конкурентного использования: инкремент и блокировка
// выполняются под одним mutex.
type Limiter struct {
	now      func() time.Time
	state    map[string]*attempts
	logger   *slog.Logger
	cleanupC chan struct{}
	cfg      Config
	mu       sync.Mutex
	stopOnce sync.Once
}

// Option настройка лимитера
type Option func(*Limiter)

// WithClock подменяет источник времени (для тестов)
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// New создает лимитер и запускает фоновую очистку неактивных записей
func New(cfg Config, logger *slog.Logger, opts ...Option) *Limiter {
	if logger == nil {
		logger = slog.Default()
	}

	l := &Limiter{
		cfg:      cfg,
		state:    make(map[string]*attempts),
		logger:   logger,
		now:      time.Now,
		cleanupC: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}

	go l.cleanup()

	return l
}

// Config возвращает параметры лимитера
func (l *Limiter) Config() Config {
	return l.cfg
}

// IsAllowed регистрирует попытку и сообщает, разрешена ли она.
// Первые MaxAttempts попыток в окне разрешены, следующая включает
// блокировку на BlockDuration. Отказ возвращается как данные.
func (l *Limiter) IsAllowed(id string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	a, exists := l.state[id]

	if exists && !a.blockedUntil.IsZero() {
		if now.Before(a.blockedUntil) {
			return Result{Allowed: false, BlockedUntil: a.blockedUntil}
		}
		// Блокировка истекла
		exists = false
	}

	if !exists || now.Sub(a.firstAttempt) > l.cfg.Window {
		l.state[id] = &attempts{firstAttempt: now, count: 1}
		return Result{Allowed: true, RemainingAttempts: l.cfg.MaxAttempts - 1}
	}

	if a.count >= l.cfg.MaxAttempts {
		a.blockedUntil = now.Add(l.cfg.BlockDuration)
		l.logger.Warn("Rate limit exceeded, identifier blocked",
			"limiter", l.cfg.Name,
			"attempts", a.count+1,
			"blocked_until", a.blockedUntil,
		)
		return Result{Allowed: false, BlockedUntil: a.blockedUntil}
	}

	a.count++
	return Result{Allowed: true, RemainingAttempts: l.cfg.MaxAttempts - a.count}
}

// Reset сбрасывает состояние идентификатора (например, после успешного входа)
func (l *Limiter) Reset(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.state, id)
}

// AttemptInfo возвращает состояние идентификатора, не изменяя его
func (l *Limiter) AttemptInfo(id string) Info {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	a, exists := l.state[id]
	if !exists {
		return Info{RemainingAttempts: l.cfg.MaxAttempts}
	}

	if !a.blockedUntil.IsZero() && now.Before(a.blockedUntil) {
		return Info{Count: a.count, Blocked: true, BlockedUntil: a.blockedUntil}
	}

	if !a.blockedUntil.IsZero() || now.Sub(a.firstAttempt) > l.cfg.Window {
		// Состояние устарело и будет сброшено при следующей попытке
		return Info{RemainingAttempts: l.cfg.MaxAttempts}
	}

	return Info{Count: a.count, RemainingAttempts: max(l.cfg.MaxAttempts-a.count, 0)}
}

// cleanup периодически удаляет неактивные записи для экономии памяти
func (l *Limiter) cleanup() {
	interval := max(l.cfg.Window, l.cfg.BlockDuration)
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanupExpired()
		case <-l.cleanupC:
			return
		}
	}
}

// cleanupExpired удаляет записи с истекшим окном и без активной блокировки
func (l *Limiter) cleanupExpired() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for id, a := range l.state {
		if now.Before(a.blockedUntil) {
			continue
		}
		if !a.blockedUntil.IsZero() || now.Sub(a.firstAttempt) > l.cfg.Window {
			delete(l.state, id)
		}
	}
}

// Stop останавливает cleanup goroutine
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() {
		close(l.cleanupC)
	})
}
