package roster

import (
	"context"
	"strings"
)

// SimulatedSource answers availability from a fixed table. Deterministic, no
// I/O; entities absent from the table are available.
type SimulatedSource struct {
	unavailable map[string]string // normalized entity name -> status
}

// NewSimulatedSource builds a source from the configured entity -> status map.
func NewSimulatedSource(unavailable map[string]string) *SimulatedSource {
	table := make(map[string]string, len(unavailable))
	for entity, status := range unavailable {
		table[normalizeName(entity)] = status
	}
	return &SimulatedSource{unavailable: table}
}

// Availability implements Source.
func (s *SimulatedSource) Availability(_ context.Context, entity string, _ int) (Availability, error) {
	if status, ok := s.unavailable[normalizeName(entity)]; ok {
		return Classify(status), nil
	}
	return Available("active"), nil
}

func normalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
