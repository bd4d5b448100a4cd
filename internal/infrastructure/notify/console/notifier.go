// Package console logs alert notifications instead of delivering them, used
// when no outbound channel is configured.
package console

import (
	"context"

	"github.com/rs/zerolog/log"

	"tickwatch/internal/application/port"
)

type Notifier struct{}

func New() *Notifier { return &Notifier{} }

func (Notifier) Send(_ context.Context, message string) error {
	log.Info().Str("message", message).Msg("alert notification (delivery disabled)")
	return nil
}

var _ port.Notifier = (*Notifier)(nil)
