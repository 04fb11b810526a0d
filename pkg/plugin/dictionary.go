package plugin

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/chaterr"
	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/config"
)

const maxDictionaryBody = 1 << 20

// Dictionary looks words up against a dictionaryapi.dev compatible endpoint.
type Dictionary struct {
	info
	baseURL string
	timeout time.Duration
	client  *http.Client
}

func NewDictionary(cfg config.DictionaryPluginConfig, client *http.Client) *Dictionary {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = config.DefaultDictionaryBaseURL
	}

	return &Dictionary{
		info:    newInfo(NameDefine, "Look up word definitions", NameDefine),
		baseURL: baseURL,
		timeout: time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
		client:  client,
	}
}

func (d *Dictionary) Execute(ctx context.Context, args string) (Result, error) {
	word := strings.TrimSpace(args)
	if word == "" {
		return nil, chaterr.Validation("Please provide a word to define.")
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/"+url.PathEscape(word), nil)
	if err != nil {
		return nil, chaterr.WrapExecution("Unable to find definition. Please try again later.", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, chaterr.WrapExecution("Unable to find definition. Please try again later.", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, chaterr.Execution("Unable to find definition for %q", word)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDictionaryBody))
	if err != nil {
		return nil, chaterr.WrapExecution("Unable to find definition. Please try again later.", err)
	}

	entries := gjson.ParseBytes(body)
	if !gjson.ValidBytes(body) || !entries.IsArray() || len(entries.Array()) == 0 {
		return nil, chaterr.Execution("No definitions found for %q", word)
	}

	return parseDictionaryEntry(entries.Get("0")), nil
}

func parseDictionaryEntry(entry gjson.Result) DictionaryResult {
	result := DictionaryResult{
		Word:     entry.Get("word").String(),
		Phonetic: entry.Get("phonetic").String(),
		Meanings: []Meaning{},
	}

	entry.Get("meanings").ForEach(func(_, meaning gjson.Result) bool {
		item := Meaning{PartOfSpeech: meaning.Get("partOfSpeech").String(), Definitions: []Definition{}}
		meaning.Get("definitions").ForEach(func(_, def gjson.Result) bool {
			item.Definitions = append(item.Definitions, Definition{
				Definition: def.Get("definition").String(),
				Example:    def.Get("example").String(),
			})
			return true
		})
		result.Meanings = append(result.Meanings, item)
		return true
	})

	return result
}

func (d *Dictionary) Render(result Result) Card {
	data, ok := result.(DictionaryResult)
	if !ok {
		return Card{}
	}

	var body strings.Builder
	for i, meaning := range data.Meanings {
		if i > 0 {
			body.WriteString("\n")
		}
		fmt.Fprintf(&body, "%s\n", meaning.PartOfSpeech)
		for _, def := range meaning.Definitions {
			fmt.Fprintf(&body, "  %s\n", def.Definition)
			if def.Example != "" {
				fmt.Fprintf(&body, "    %q\n", def.Example)
			}
		}
	}

	return Card{
		Title:    data.Word,
		Subtitle: data.Phonetic,
		Body:     strings.TrimRight(body.String(), "\n"),
	}
}
