package modules

import (
	"context"
	"encoding/json"

	"github.com/davidemms/widgethub/internal/domain/module"
	"github.com/davidemms/widgethub/internal/observability"
	"github.com/davidemms/widgethub/internal/weather"
)

// ErrorData is the degraded result every failed resolution collapses
// to. The widget still renders, just in an error state.
type ErrorData struct {
	Error string `json:"error"`
}

// Context carries who is asking and from what kind of device; iot
// callers get reduced payloads for some types.
type Context struct {
	UserID     string
	DeviceType string
}

type Renderer interface {
	Render(ctx context.Context, raw json.RawMessage, rc Context) any
}

// SecretSource yields a decrypted provider credential, or empty when
// none is usable.
type SecretSource interface {
	Get(ctx context.Context, userID, service string) (string, error)
}

type Resolver struct {
	renderers map[module.Type]Renderer
	prom      *observability.Prom
}

func NewResolver(secrets SecretSource, provider weather.Provider, prom *observability.Prom) *Resolver {
	return &Resolver{
		renderers: map[module.Type]Renderer{
			module.TypeWeather:   newWeatherRenderer(secrets, provider, prom),
			module.TypeNotes:     notesRenderer{},
			module.TypeTodo:      todoRenderer{},
			module.TypeCountdown: newCountdownRenderer(),
			module.TypeLinks:     linksRenderer{},
			module.TypeCustom:    customRenderer{},
		},
		prom: prom,
	}
}

// Resolve never returns an error to the caller. Every branch,
// including an unknown type, produces a renderable payload.
func (r *Resolver) Resolve(ctx context.Context, typ module.Type, raw json.RawMessage, rc Context) any {
	ren, ok := r.renderers[typ]

	if !ok {
		r.count(typ, "error")
		return ErrorData{Error: "Unknown module type"}
	}

	data := ren.Render(ctx, raw, rc)

	if _, failed := data.(ErrorData); failed {
		r.count(typ, "error")
	} else {
		r.count(typ, "ok")
	}

	return data
}

func (r *Resolver) count(typ module.Type, outcome string) {
	if r.prom != nil {
		r.prom.ResolveTotal.WithLabelValues(string(typ), outcome).Inc()
	}
}
