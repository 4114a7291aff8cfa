package transport

import (
	"context"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/rs/zerolog"
)

type loggingTransport struct {
	next Transport
	log  zerolog.Logger
}

// WithLogging wraps t so every APDU and reply is written to logger at trace level.
func WithLogging(t Transport, logger zerolog.Logger) Transport {
	return &loggingTransport{
		next: t,
		log:  logger.With().Str("component", "ledger_transport").Logger(),
	}
}

func (t *loggingTransport) Send(ctx context.Context, cla, ins, p1, p2 byte, data []byte) ([]byte, error) {
	t.log.Trace().
		Uint8("cla", cla).
		Uint8("ins", ins).
		Uint8("p1", p1).
		Uint8("p2", p2).
		Int("lc", len(data)).
		Msg("=> " + spew.Sdump(data))

	started := time.Now()
	reply, err := t.next.Send(ctx, cla, ins, p1, p2, data)
	if err != nil {
		t.log.Trace().Err(err).Dur("took", time.Since(started)).Msg("<= exchange failed")
		return nil, err
	}

	t.log.Trace().Dur("took", time.Since(started)).Msg("<= " + spew.Sdump(reply))
	return reply, nil
}

func (t *loggingTransport) Close() error {
	t.log.Trace().Msg("Closing transport")
	return t.next.Close()
}

func (t *loggingTransport) SetExchangeTimeout(timeout time.Duration) {
	t.log.Trace().Dur("timeout", timeout).Msg("Setting exchange timeout")
	t.next.SetExchangeTimeout(timeout)
}

func (t *loggingTransport) BindApplication(appID string, operations ...string) {
	t.log.Trace().Str("app", appID).Strs("operations", operations).Msg("Binding application")
	t.next.BindApplication(appID, operations...)
}
