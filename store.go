package rewire

import (
	"sync"
)

// envelopeStore maps ref identities to their singleton envelopes
type envelopeStore struct {
	data sync.Map
}

func newEnvelopeStore() *envelopeStore {
	return &envelopeStore{}
}

func (s *envelopeStore) load(id string) (anyEnvelope, bool) {
	value, ok := s.data.Load(id)
	if !ok {
		return nil, false
	}
	return value.(anyEnvelope), true
}

func (s *envelopeStore) store(id string, env anyEnvelope) {
	s.data.Store(id, env)
}

func (s *envelopeStore) delete(id string) {
	s.data.Delete(id)
}

func (s *envelopeStore) ids() []string {
	var result []string
	s.data.Range(func(key, value any) bool {
		result = append(result, key.(string))
		return true
	})
	return result
}

func (s *envelopeStore) size() int {
	count := 0
	s.data.Range(func(key, value any) bool {
		count++
		return true
	})
	return count
}

func (s *envelopeStore) clear() {
	for _, id := range s.ids() {
		s.data.Delete(id)
	}
}
