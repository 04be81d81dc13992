package service

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Maicol2810/sistemanovedades2.0/internal/crud"
)

// Prometheus-метрики сессий.
var (
	sessionsCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sn_sessions_created_total",
		Help: "Количество созданных контроллеров экранов (новых сессий).",
	}, []string{"screen"})
	sessionsEvictedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sn_sessions_evicted_total",
		Help: "Количество контроллеров, удалённых из хранилища сессий.",
	}, []string{"screen"})
)

// Sessions — контроллеры одного экрана по сессиям операторов.
// LRU с TTL: неактивная сессия удаляется вместе с черновиком.
// Каждое обращение продлевает TTL.
type Sessions[T any] struct {
	name    string
	factory func() *crud.Controller[T]

	mu    sync.Mutex
	cache *expirable.LRU[string, *crud.Controller[T]]
}

// NewSessions создаёт хранилище контроллеров экрана name.
// factory вызывается при первом обращении сессии.
func NewSessions[T any](name string, maxSize int, ttl time.Duration, factory func() *crud.Controller[T]) *Sessions[T] {
	onEvict := func(string, *crud.Controller[T]) {
		sessionsEvictedTotal.WithLabelValues(name).Inc()
	}
	return &Sessions[T]{
		name:    name,
		factory: factory,
		cache:   expirable.NewLRU[string, *crud.Controller[T]](maxSize, onEvict, ttl),
	}
}

// Get возвращает контроллер сессии, создавая его при необходимости.
func (s *Sessions[T]) Get(session string) *crud.Controller[T] {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.cache.Get(session); ok {
		s.cache.Add(session, c)
		return c
	}
	c := s.factory()
	s.cache.Add(session, c)
	sessionsCreatedTotal.WithLabelValues(s.name).Inc()
	return c
}

// Drop удаляет контроллер сессии (выход оператора).
func (s *Sessions[T]) Drop(session string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Remove(session)
}

// Len возвращает количество активных сессий.
func (s *Sessions[T]) Len() int {
	return s.cache.Len()
}
