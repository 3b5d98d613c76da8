package chanlock

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/sasha-s/go-deadlock"
)

// Chanlock watches an event loop for stalls. The loop consumes the channel
// returned by Poll; if a value sits unconsumed for longer than the timeout the
// loop is no longer draining its channels and we log it loudly. A tick that
// overruns its budget shows up here rather than being handled.
type Chanlock struct {
	log      zerolog.Logger
	lastMark string
	ticker   *time.Ticker
	mutex    deadlock.RWMutex
}

const (
	TIMEOUT_DURATION      = 15 * time.Second
	HEALTH_CHECK_DURATION = 1 * time.Second
)

func New(logger zerolog.Logger) *Chanlock {
	return &Chanlock{
		log:    logger,
		ticker: time.NewTicker(HEALTH_CHECK_DURATION),
	}
}

// Mark records where the loop last was so a stall report can name it.
func (c *Chanlock) Mark(name string) {
	c.mutex.Lock()
	c.lastMark = name
	c.mutex.Unlock()
}

func (c *Chanlock) Poll(ctx context.Context) <-chan time.Time {
	out := make(chan time.Time)

	go func() {
		for {
			select {
			case t := <-c.ticker.C:
				timeout := time.NewTimer(TIMEOUT_DURATION)
				ok := make(chan bool)
				go func() {
					select {
					case <-ctx.Done():
						return
					case <-ok:
						return
					case <-timeout.C:
						c.mutex.RLock()
						mark := c.lastMark
						c.mutex.RUnlock()

						c.log.Error().Msg("event loop no longer healthy")

						if mark != "" {
							c.log.Error().Msgf("last mark: %s", mark)
						}
					}
				}()
				out <- t
				ok <- true
				c.Mark("")
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
