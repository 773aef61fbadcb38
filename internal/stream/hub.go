// Package stream реализует ленту изменений с явной подпиской и отпиской.
package stream

import (
	"sync"
	"time"
)

// Op описывает вид изменения записи.
type Op string

const (
	OpCreated Op = "created"
	OpUpdated Op = "updated"
	OpDeleted Op = "deleted"
)

// Коллекции, о которых публикуются события.
const (
	CollectionClients  = "clients"
	CollectionInvoices = "invoices"
	CollectionPayments = "payments"
	CollectionProducts = "products"
	CollectionNotes    = "notes"
)

// Event описывает одно изменение записи в коллекции.
type Event struct {
	Collection string    `json:"collection"`
	Op         Op        `json:"op"`
	ID         string    `json:"id"`
	At         time.Time `json:"at"`
}

const subscriptionBuffer = 64

// Hub рассылает события изменений всем активным подпискам.
type Hub struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	closed bool
}

// NewHub создаёт новую ленту изменений.
func NewHub() *Hub {
	return &Hub{
		subs: make(map[*Subscription]struct{}),
	}
}

// Subscribe регистрирует наблюдателя. При непустом списке коллекций подписка
// получает только события этих коллекций. Подписку обязательно закрывать
// через Close, иначе она останется в хабе до его закрытия.
func (h *Hub) Subscribe(collections ...string) *Subscription {
	sub := &Subscription{
		hub: h,
		ch:  make(chan Event, subscriptionBuffer),
	}
	if len(collections) > 0 {
		sub.filter = make(map[string]struct{}, len(collections))
		for _, c := range collections {
			sub.filter[c] = struct{}{}
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		close(sub.ch)
		return sub
	}

	h.subs[sub] = struct{}{}
	return sub
}

// Publish рассылает событие подпискам. Отправка неблокирующая: медленный
// получатель с заполненным буфером теряет событие, публикующая сторона
// никогда не ждёт.
func (h *Hub) Publish(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}

	for sub := range h.subs {
		if sub.filter != nil {
			if _, ok := sub.filter[e.Collection]; !ok {
				continue
			}
		}
		select {
		case sub.ch <- e:
		default:
		}
	}
}

// Close закрывает ленту и каналы всех оставшихся подписок.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	for sub := range h.subs {
		close(sub.ch)
		delete(h.subs, sub)
	}
}

// Subscription представляет одну регистрацию наблюдателя.
type Subscription struct {
	hub    *Hub
	ch     chan Event
	filter map[string]struct{}
	once   sync.Once
}

// C возвращает канал событий подписки. Канал закрывается при Close
// подписки или всего хаба.
func (s *Subscription) C() <-chan Event {
	return s.ch
}

// Close снимает подписку и закрывает её канал.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		defer s.hub.mu.Unlock()

		if _, ok := s.hub.subs[s]; ok {
			delete(s.hub.subs, s)
			close(s.ch)
		}
	})
}
