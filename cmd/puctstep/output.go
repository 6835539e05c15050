package main

import (
	"net/http"

	"github.com/gorgonia/puctstep"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Encoder streams events to a websocket client according to the puctstep.OutputEncoder interface.
// Events are dropped while nobody listens.
type Encoder struct {
	events chan puctstep.Event
	logger zerolog.Logger
}

var upgrader = websocket.Upgrader{} // use default options

func (enc *Encoder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		enc.logger.Error().Err(err).Msg("upgrade")
		return
	}
	defer c.Close()
	for {
		select {
		case ev := <-enc.events:
			if err := c.WriteJSON(ev); err != nil {
				enc.logger.Error().Err(err).Msg("write")
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}

// NewEncoder creates an Encoder that buffers up to 1024 events.
func NewEncoder(logger zerolog.Logger) *Encoder {
	return &Encoder{
		events: make(chan puctstep.Event, 1024),
		logger: logger,
	}
}

// Encode an event
func (enc *Encoder) Encode(ev puctstep.Event) error {
	select {
	case enc.events <- ev:
	default:
		enc.logger.Debug().Str("kind", string(ev.Kind)).Msg("event dropped")
	}
	return nil
}

// Flush ...
func (enc *Encoder) Flush() error { return nil }
