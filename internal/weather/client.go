package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Observation is a normalized current-conditions reading.
type Observation struct {
	Name        string
	Temp        float64
	Condition   string
	Description string
	Humidity    int
	WindSpeed   float64
	Icon        string
}

type Provider interface {
	Current(ctx context.Context, location, apiKey string) (Observation, error)
}

// Client talks to the OpenWeatherMap current-weather endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

type owmResponse struct {
	Name    string `json:"name"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

func (c *Client) Current(ctx context.Context, location, apiKey string) (Observation, error) {
	endpoint := fmt.Sprintf("%s/weather?q=%s&appid=%s&units=metric",
		c.baseURL, url.QueryEscape(location), url.QueryEscape(apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)

	if err != nil {
		return Observation{}, fmt.Errorf("build weather request: %w", err)
	}

	resp, err := c.http.Do(req)

	if err != nil {
		return Observation{}, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// invalid key, unknown city and provider outages all land
		// here; callers degrade identically for each
		return Observation{}, fmt.Errorf("weather provider returned %d", resp.StatusCode)
	}

	var body owmResponse

	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Observation{}, fmt.Errorf("decode weather response: %w", err)
	}

	if len(body.Weather) == 0 {
		return Observation{}, fmt.Errorf("weather response missing conditions")
	}

	return Observation{
		Name:        body.Name,
		Temp:        body.Main.Temp,
		Condition:   body.Weather[0].Main,
		Description: body.Weather[0].Description,
		Humidity:    body.Main.Humidity,
		WindSpeed:   body.Wind.Speed,
		Icon:        body.Weather[0].Icon,
	}, nil
}
