package v1

import (
	"context"

	"github.com/codeofhonor/glassbridge/internal/domain"
	"github.com/codeofhonor/glassbridge/internal/relay"
)

// RelayService is the surface the API layer needs from the relay core.
type RelayService interface {
	Poll(since uint64, limit int) relay.PollResult
	RequestDisplay(ctx context.Context, text, target string, durationMS int) ([]string, error)
	Sessions() []domain.Session
	Session(id string) (domain.Session, error)
	Heartbeat(id string) error
	Stats() relay.Stats
	ClearEvents()
}
