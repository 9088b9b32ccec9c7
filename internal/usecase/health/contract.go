package health

import "context"

// BackendChecker checks search backend availability.
type BackendChecker interface {
	HealthCheck(ctx context.Context) error
}

// StorePinger checks snapshot store availability.
type StorePinger interface {
	Ping(ctx context.Context) error
}
