package testhelpers

import (
	"fmt"
	"sync"

	"stakehouse/domain/entities"
)

// ScriptedFairnessSource hands out a fixed sequence of draw values so tests
// can force specific outcomes. Panics when the script runs dry.
type ScriptedFairnessSource struct {
	mu     sync.Mutex
	values []float64
	next   int
}

func NewScriptedFairnessSource(values ...float64) *ScriptedFairnessSource {
	return &ScriptedFairnessSource{values: values}
}

func (s *ScriptedFairnessSource) Draw(algorithm entities.DrawAlgorithm) entities.Draw {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next >= len(s.values) {
		panic("scripted fairness source exhausted")
	}
	value := s.values[s.next]
	s.next++
	return entities.Draw{
		Seed:      fmt.Sprintf("scripted-%d", s.next),
		Algorithm: algorithm,
		Value:     value,
	}
}
