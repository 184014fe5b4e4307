package modules

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/davidemms/widgethub/internal/domain/device"
	"github.com/davidemms/widgethub/internal/domain/module"
	"github.com/davidemms/widgethub/internal/weather"
)

type fakeSecrets struct {
	key string
	err error
}

func (f *fakeSecrets) Get(ctx context.Context, userID, service string) (string, error) {
	return f.key, f.err
}

type fakeProvider struct {
	obs   weather.Observation
	err   error
	calls int
}

func (f *fakeProvider) Current(ctx context.Context, location, apiKey string) (weather.Observation, error) {
	f.calls++

	if f.err != nil {
		return weather.Observation{}, f.err
	}

	return f.obs, nil
}

func TestResolveUnknownType(t *testing.T) {
	r := NewResolver(&fakeSecrets{}, &fakeProvider{}, nil)

	got := r.Resolve(context.Background(), module.Type("clock"), json.RawMessage(`{}`), Context{})

	ed, ok := got.(ErrorData)

	if !ok || ed.Error != "Unknown module type" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestResolveTodoCounts(t *testing.T) {
	r := NewResolver(&fakeSecrets{}, &fakeProvider{}, nil)

	cfg := `{"todos":[
		{"id":"a","text":"one","completed":true},
		{"id":"b","text":"two","completed":false},
		{"id":"c","text":"three","completed":true}
	]}`

	got, ok := r.Resolve(context.Background(), module.TypeTodo, json.RawMessage(cfg), Context{}).(TodoData)

	if !ok {
		t.Fatalf("expected TodoData, got %T", got)
	}

	if got.Total != 3 || got.Completed != 2 || got.Pending != 1 {
		t.Fatalf("got total=%d completed=%d pending=%d", got.Total, got.Completed, got.Pending)
	}
}

func TestResolveNotesDefaults(t *testing.T) {
	r := NewResolver(&fakeSecrets{}, &fakeProvider{}, nil)

	got, ok := r.Resolve(context.Background(), module.TypeNotes, json.RawMessage(`{}`), Context{}).(NotesData)

	if !ok {
		t.Fatalf("expected NotesData, got %T", got)
	}

	if got.Notes == nil || len(got.Notes) != 0 {
		t.Fatalf("want empty non-nil notes, got %#v", got.Notes)
	}

	if got.MaxNotes != FreeNoteLimit {
		t.Fatalf("got maxNotes=%d", got.MaxNotes)
	}
}

func TestResolveCustomDefaults(t *testing.T) {
	r := NewResolver(&fakeSecrets{}, &fakeProvider{}, nil)

	got, ok := r.Resolve(context.Background(), module.TypeCustom, json.RawMessage(`{}`), Context{}).(CustomData)

	if !ok {
		t.Fatalf("expected CustomData, got %T", got)
	}

	if got.HTML == "" || got.AllowScripts {
		t.Fatalf("unexpected custom data: %+v", got)
	}
}

func TestWeatherRender(t *testing.T) {
	t.Run("no credential falls back to demo without calling provider", func(t *testing.T) {
		provider := &fakeProvider{}
		r := NewResolver(&fakeSecrets{key: ""}, provider, nil)

		got, ok := r.Resolve(context.Background(), module.TypeWeather,
			json.RawMessage(`{"location":"Nairobi"}`), Context{}).(WeatherData)

		if !ok {
			t.Fatalf("expected WeatherData, got %T", got)
		}

		if !got.Demo {
			t.Fatal("expected demo data")
		}

		if got.Location != "Nairobi" {
			t.Fatalf("unexpected location: %q", got.Location)
		}

		if got.Temperature < 10 || got.Temperature > 40 {
			t.Fatalf("demo temperature out of range: %d", got.Temperature)
		}

		if provider.calls != 0 {
			t.Fatalf("provider called %d times", provider.calls)
		}
	})

	t.Run("provider failure degrades", func(t *testing.T) {
		provider := &fakeProvider{err: errors.New("boom")}
		r := NewResolver(&fakeSecrets{key: "k"}, provider, nil)

		got, ok := r.Resolve(context.Background(), module.TypeWeather,
			json.RawMessage(`{"location":"Nairobi"}`), Context{}).(ErrorData)

		if !ok || got.Error != "Weather service unavailable" {
			t.Fatalf("unexpected result: %+v", got)
		}
	})

	t.Run("iot gets reduced payload", func(t *testing.T) {
		provider := &fakeProvider{obs: weather.Observation{
			Name:      "Nairobi",
			Temp:      21.6,
			Condition: "Clouds",
			Humidity:  60,
		}}
		r := NewResolver(&fakeSecrets{key: "k"}, provider, nil)

		got, ok := r.Resolve(context.Background(), module.TypeWeather,
			json.RawMessage(`{"location":"Nairobi"}`),
			Context{DeviceType: device.TypeIoT}).(IoTWeatherData)

		if !ok {
			t.Fatalf("expected IoTWeatherData, got %T", got)
		}

		if got.Temp != 22 || got.Condition != "Clouds" || got.Location != "Nairobi" {
			t.Fatalf("unexpected payload: %+v", got)
		}
	})

	t.Run("missing location degrades", func(t *testing.T) {
		r := NewResolver(&fakeSecrets{}, &fakeProvider{}, nil)

		got, ok := r.Resolve(context.Background(), module.TypeWeather,
			json.RawMessage(`{}`), Context{}).(ErrorData)

		if !ok || got.Error != "Location not configured" {
			t.Fatalf("unexpected result: %+v", got)
		}
	})
}
