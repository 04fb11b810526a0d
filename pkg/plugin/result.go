package plugin

import (
	"encoding/json"
	"fmt"
)

// Result is the tagged payload produced by Execute. The tag is the plugin name.
type Result interface {
	PluginName() string
}

type WeatherResult struct {
	City        string `json:"city"`
	Temperature int    `json:"temperature"`
	Description string `json:"description"`
	Humidity    int    `json:"humidity"`
	WindSpeed   int    `json:"windSpeed"`
}

type CalculatorResult struct {
	Expression string  `json:"expression"`
	Result     float64 `json:"result"`
}

type DictionaryResult struct {
	Word     string    `json:"word"`
	Phonetic string    `json:"phonetic,omitempty"`
	Meanings []Meaning `json:"meanings"`
}

type Meaning struct {
	PartOfSpeech string       `json:"partOfSpeech"`
	Definitions  []Definition `json:"definitions"`
}

type Definition struct {
	Definition string `json:"definition"`
	Example    string `json:"example,omitempty"`
}

type GeminiResult struct {
	Prompt   string `json:"prompt"`
	Response string `json:"response"`
}

type GeminiKeyResult struct {
	Message string `json:"message"`
}

// CustomResult is produced by user-defined plugins. Plugin is the owning
// plugin's name and is not serialized.
type CustomResult struct {
	Plugin   string `json:"-"`
	Query    string `json:"query"`
	Response string `json:"response"`
}

func (WeatherResult) PluginName() string    { return NameWeather }
func (CalculatorResult) PluginName() string { return NameCalc }
func (DictionaryResult) PluginName() string { return NameDefine }
func (GeminiResult) PluginName() string     { return NameGemini }
func (GeminiKeyResult) PluginName() string  { return NameGeminiKey }
func (r CustomResult) PluginName() string   { return r.Plugin }

// DecodeResult restores a persisted payload for the named plugin. Names that
// are not built-ins decode as CustomResult.
func DecodeResult(name string, raw json.RawMessage) (Result, error) {
	var (
		result Result
		err    error
	)

	switch name {
	case NameWeather:
		result, err = decodeAs[WeatherResult](raw)
	case NameCalc:
		result, err = decodeAs[CalculatorResult](raw)
	case NameDefine:
		result, err = decodeAs[DictionaryResult](raw)
	case NameGemini:
		result, err = decodeAs[GeminiResult](raw)
	case NameGeminiKey:
		result, err = decodeAs[GeminiKeyResult](raw)
	default:
		var custom CustomResult
		custom, err = decodeAs[CustomResult](raw)
		custom.Plugin = name
		result = custom
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s result: %w", name, err)
	}

	return result, nil
}

func decodeAs[T any](raw json.RawMessage) (T, error) {
	var value T
	err := json.Unmarshal(raw, &value)
	return value, err
}
