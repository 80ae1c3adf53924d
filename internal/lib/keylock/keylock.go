// Package keylock реализует блокировку по ключу на основе фиксированного набора мьютексов.
// Операции над одним пользователем сериализуются, разные пользователи почти не конкурируют.
package keylock

import (
	"hash/fnv"
	"sync"
)

// DefaultShards количество мьютексов по умолчанию.
const DefaultShards = 64

// Locker набор мьютексов, выбираемых по хешу ключа.
type Locker struct {
	shards []sync.Mutex
}

// New создает Locker с заданным количеством шардов.
func New(shards int) *Locker {
	if shards <= 0 {
		shards = DefaultShards
	}
	return &Locker{shards: make([]sync.Mutex, shards)}
}

// Lock захватывает мьютекс для key и возвращает функцию освобождения.
//
//	unlock := l.Lock(userID)
//	defer unlock()
func (l *Locker) Lock(key string) func() {
	m := &l.shards[l.index(key)]
	m.Lock()
	return m.Unlock
}

func (l *Locker) index(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(l.shards)))
}
