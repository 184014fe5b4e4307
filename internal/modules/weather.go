package modules

import (
	"context"
	"encoding/json"
	"math"
	"math/rand"
	"strings"

	"github.com/davidemms/widgethub/internal/domain/device"
	"github.com/davidemms/widgethub/internal/observability"
	"github.com/davidemms/widgethub/internal/weather"
)

// WeatherService is the api_keys service name the weather widget
// looks its credential up under.
const WeatherService = "openweathermap"

type WeatherData struct {
	Location        string  `json:"location"`
	Temperature     int     `json:"temperature"`
	Condition       string  `json:"condition"`
	Description     string  `json:"description,omitempty"`
	Humidity        int     `json:"humidity"`
	WindSpeed       float64 `json:"windSpeed"`
	Icon            string  `json:"icon,omitempty"`
	Demo            bool    `json:"demo,omitempty"`
	DeviceOptimized bool    `json:"deviceOptimized,omitempty"`
}

// IoTWeatherData is the reduced payload for constrained clients.
type IoTWeatherData struct {
	Temp      int    `json:"temp"`
	Condition string `json:"condition"`
	Location  string `json:"location"`
}

type weatherRenderer struct {
	secrets  SecretSource
	provider weather.Provider
	prom     *observability.Prom
}

func newWeatherRenderer(secrets SecretSource, provider weather.Provider, prom *observability.Prom) *weatherRenderer {
	return &weatherRenderer{secrets: secrets, provider: provider, prom: prom}
}

func (w *weatherRenderer) Render(ctx context.Context, raw json.RawMessage, rc Context) any {
	var cfg WeatherConfig

	if err := json.Unmarshal(raw, &cfg); err != nil || strings.TrimSpace(cfg.Location) == "" {
		return ErrorData{Error: "Location not configured"}
	}

	key := ""

	if w.secrets != nil {
		k, err := w.secrets.Get(ctx, rc.UserID, WeatherService)

		// lookup and decryption failures both mean "no credential";
		// the widget falls back to demo data instead of failing
		if err == nil {
			key = k
		}
	}

	if key == "" {
		w.lookup("demo", "ok")
		return demoWeather(cfg.Location, rc.DeviceType)
	}

	obs, err := w.provider.Current(ctx, cfg.Location, key)

	if err != nil {
		w.lookup("live", "error")
		return ErrorData{Error: "Weather service unavailable"}
	}

	w.lookup("live", "ok")

	if rc.DeviceType == device.TypeIoT {
		return IoTWeatherData{
			Temp:      int(math.Round(obs.Temp)),
			Condition: obs.Condition,
			Location:  obs.Name,
		}
	}

	return WeatherData{
		Location:    obs.Name,
		Temperature: int(math.Round(obs.Temp)),
		Condition:   obs.Condition,
		Description: obs.Description,
		Humidity:    obs.Humidity,
		WindSpeed:   obs.WindSpeed,
		Icon:        obs.Icon,
	}
}

func (w *weatherRenderer) lookup(source, result string) {
	if w.prom != nil {
		w.prom.WeatherLookup.WithLabelValues(source, result).Inc()
	}
}

var demoConditions = []string{"Sunny", "Cloudy", "Rainy", "Snowy"}

// demoWeather returns clearly-marked synthetic data in plausible
// ranges so unconfigured users still see a populated widget.
func demoWeather(location, deviceType string) WeatherData {
	return WeatherData{
		Location:        location,
		Temperature:     rand.Intn(31) + 10,
		Condition:       demoConditions[rand.Intn(len(demoConditions))],
		Humidity:        rand.Intn(101),
		WindSpeed:       float64(rand.Intn(21)),
		Demo:            true,
		DeviceOptimized: deviceType == device.TypeIoT,
	}
}
