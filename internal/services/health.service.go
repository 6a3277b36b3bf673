package services

import (
	"context"
	"fmt"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthService struct {
	checks map[string]Pinger
}

func NewHealthService(checks map[string]Pinger) *HealthService {
	return &HealthService{checks: checks}
}

// Check pings every dependency and reports each one as "ok" or its error.
func (s *HealthService) Check(ctx context.Context) (map[string]string, error) {
	report := make(map[string]string, len(s.checks))
	var firstErr error
	for name, p := range s.checks {
		if err := p.Ping(ctx); err != nil {
			report[name] = err.Error()
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", name, err)
			}
			continue
		}
		report[name] = "ok"
	}
	return report, firstErr
}
