package telegram

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/mymmrac/telego"

	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/config"
	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/logger"
)

func TestNewAdapterRequiresToken(t *testing.T) {
	if _, err := NewAdapter(config.TelegramConfig{Token: "  "}, nil); err == nil {
		t.Fatal("expected error for blank token")
	}
	adapter, err := NewAdapter(config.TelegramConfig{Token: "123:abc"}, logger.Discard())
	if err != nil {
		t.Fatalf("NewAdapter error: %v", err)
	}
	if adapter.Name() != "telegram" {
		t.Fatalf("Name = %q", adapter.Name())
	}
}

func TestAllowFromSet(t *testing.T) {
	allowed := allowFromSet([]string{" 123 ", "", "456", "123"})
	if len(allowed) != 2 {
		t.Fatalf("allowFromSet len = %d, want 2", len(allowed))
	}
	if _, ok := allowed["123"]; !ok {
		t.Fatal("allowFromSet missing 123")
	}
	if _, ok := allowed["456"]; !ok {
		t.Fatal("allowFromSet missing 456")
	}
	if allowFromSet([]string{" ", ""}) != nil {
		t.Fatal("expected nil set for blank entries")
	}
}

func TestSenderAllowed(t *testing.T) {
	adapter := &Adapter{allowFrom: map[string]struct{}{"1": {}}}
	if !adapter.senderAllowed("1") {
		t.Fatal("expected sender 1 to be allowed")
	}
	if adapter.senderAllowed("2") {
		t.Fatal("expected sender 2 to be denied")
	}

	adapter.allowFrom = nil
	if !adapter.senderAllowed("any") {
		t.Fatal("expected sender to be allowed when allowlist empty")
	}
}

func TestInboundFiltersUpdates(t *testing.T) {
	adapter := &Adapter{allowFrom: map[string]struct{}{"7": {}}, log: logger.Discard()}

	tests := []struct {
		name   string
		update telego.Update
		want   bool
	}{
		{name: "no message", update: telego.Update{UpdateID: 1}},
		{name: "blank text", update: telego.Update{Message: &telego.Message{Text: "  ", From: &telego.User{ID: 7}}}},
		{name: "no sender", update: telego.Update{Message: &telego.Message{Text: "hi"}}},
		{name: "unauthorized", update: telego.Update{Message: &telego.Message{Text: "hi", From: &telego.User{ID: 8}}}},
		{
			name:   "allowed",
			update: telego.Update{UpdateID: 9, Message: &telego.Message{Text: " /calc 1+1 ", From: &telego.User{ID: 7}, Chat: telego.Chat{ID: 42}}},
			want:   true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			inbound, ok := adapter.inbound(tc.update)
			if ok != tc.want {
				t.Fatalf("inbound ok = %v, want %v", ok, tc.want)
			}
			if !ok {
				return
			}
			if inbound.Content != "/calc 1+1" || inbound.ChatID != "42" || inbound.SenderID != "7" {
				t.Fatalf("inbound = %#v", inbound)
			}
			if inbound.Metadata["update_id"] != "9" {
				t.Fatalf("metadata = %#v", inbound.Metadata)
			}
		})
	}
}

func TestPreviewText(t *testing.T) {
	short := " hello "
	if got := previewText(short); got != "hello" {
		t.Fatalf("previewText short = %q, want %q", got, "hello")
	}

	long := strings.Repeat("é", messagePreviewLimit+20)
	got := previewText(long)
	if utf8.RuneCountInString(got) != messagePreviewLimit+3 {
		t.Fatalf("previewText long runes = %d, want %d", utf8.RuneCountInString(got), messagePreviewLimit+3)
	}
	if !utf8.ValidString(got) || !strings.HasSuffix(got, "...") {
		t.Fatalf("previewText long = %q, want valid text with ellipsis suffix", got)
	}
}

func TestSplitMessage(t *testing.T) {
	if got := splitMessage("short", 10); len(got) != 1 || got[0] != "short" {
		t.Fatalf("splitMessage short = %#v", got)
	}

	text := strings.Repeat("a", 8) + "\n" + strings.Repeat("b", 8)
	got := splitMessage(text, 10)
	if len(got) != 2 || got[0] != strings.Repeat("a", 8)+"\n" || got[1] != strings.Repeat("b", 8) {
		t.Fatalf("splitMessage newline = %#v", got)
	}

	got = splitMessage(strings.Repeat("x", 25), 10)
	if len(got) != 3 || got[2] != "xxxxx" {
		t.Fatalf("splitMessage hard cut = %#v", got)
	}
	if strings.Join(got, "") != strings.Repeat("x", 25) {
		t.Fatal("splitMessage lost content")
	}
}
