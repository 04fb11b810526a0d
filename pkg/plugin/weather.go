package plugin

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/chaterr"
)

var weatherDescriptions = []string{"Sunny", "Cloudy", "Rainy", "Partly Cloudy", "Stormy"}

// Weather simulates a weather lookup after a fixed delay.
type Weather struct {
	info
	delay time.Duration
	intn  func(n int) int
}

// NewWeather returns the weather plugin. A nil intn uses math/rand/v2.
func NewWeather(delay time.Duration, intn func(n int) int) *Weather {
	if intn == nil {
		intn = rand.IntN
	}

	return &Weather{
		info:  newInfo(NameWeather, "Get weather information for a city", NameWeather),
		delay: delay,
		intn:  intn,
	}
}

func (w *Weather) Execute(ctx context.Context, args string) (Result, error) {
	if w.delay > 0 {
		timer := time.NewTimer(w.delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return nil, chaterr.WrapExecution("Unable to fetch weather data. Please try again later.", ctx.Err())
		case <-timer.C:
		}
	}

	return WeatherResult{
		City:        strings.TrimSpace(args),
		Temperature: w.intn(30) + 5,
		Description: weatherDescriptions[w.intn(len(weatherDescriptions))],
		Humidity:    w.intn(60) + 30,
		WindSpeed:   w.intn(30) + 5,
	}, nil
}

func (w *Weather) Render(result Result) Card {
	data, ok := result.(WeatherResult)
	if !ok {
		return Card{}
	}

	return Card{
		Title:    "Weather in " + data.City,
		Subtitle: fmt.Sprintf("%d°C  %s", data.Temperature, data.Description),
		Rows: []Row{
			{Label: "Humidity", Value: fmt.Sprintf("%d%%", data.Humidity)},
			{Label: "Wind", Value: fmt.Sprintf("%d km/h", data.WindSpeed)},
		},
	}
}
