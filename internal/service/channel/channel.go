package channel

import (
	"context"
	"fmt"

	"github.com/oshokin/eap-updater/internal/logger"
	"github.com/oshokin/eap-updater/internal/repository/hosts"
)

// Service tracks membership in the early-access release channel.
// Membership is represented by one additional host in the registry, so both
// operations inherit the registry's idempotence.
type Service struct {
	// registry persists the registered host set.
	registry hosts.Registry
	// channelHost is the URL of the early-access repository host.
	channelHost string
}

// NewService creates a channel service for the provided host.
func NewService(registry hosts.Registry, channelHost string) *Service {
	return &Service{
		registry:    registry,
		channelHost: channelHost,
	}
}

// Host returns the channel host URL.
func (s *Service) Host() string {
	return s.channelHost
}

// IsSubscribed reports whether the channel host is currently registered.
func (s *Service) IsSubscribed(ctx context.Context) (bool, error) {
	subscribed, err := s.registry.Contains(ctx, s.channelHost)
	if err != nil {
		return false, fmt.Errorf("check subscription: %w", err)
	}

	return subscribed, nil
}

// Subscribe registers the channel host; idempotent.
func (s *Service) Subscribe(ctx context.Context) error {
	if err := s.registry.Add(ctx, s.channelHost); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	logger.InfoKV(ctx, "Subscribed to early-access channel", "host", s.channelHost)

	return nil
}

// Unsubscribe removes the channel host; idempotent.
func (s *Service) Unsubscribe(ctx context.Context) error {
	if err := s.registry.Remove(ctx, s.channelHost); err != nil {
		return fmt.Errorf("unsubscribe: %w", err)
	}

	logger.InfoKV(ctx, "Unsubscribed from early-access channel", "host", s.channelHost)

	return nil
}

// Hosts returns the full registered host set for scanning.
func (s *Service) Hosts(ctx context.Context) ([]string, error) {
	registered, err := s.registry.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list hosts: %w", err)
	}

	return registered, nil
}
