// Package chat owns the conversation and drives each send through parse,
// fallback resolution, plugin execution and the reply.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/bus"
	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/chaterr"
	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/command"
	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/plugin"
)

// ErrBusy is returned when a send arrives while another is in flight.
var ErrBusy = errors.New("chat: a message is already being processed")

const errorReplyPrefix = "Sorry, I encountered an error: "

// Plugins is the registry view the orchestrator dispatches against.
type Plugins interface {
	List() []plugin.Plugin
	Resolve(name string) (plugin.Plugin, bool)
}

// Options configures an Orchestrator. Zero values are usable.
type Options struct {
	// ReplyDelay is the fixed pause before every assistant reply.
	ReplyDelay time.Duration
	Notifier   Notifier
	Bus        *bus.Bus
	Log        *slog.Logger
}

// Orchestrator serves one send at a time; concurrent sends get ErrBusy.
type Orchestrator struct {
	conversation *Conversation
	plugins      Plugins
	replyDelay   time.Duration
	notifier     Notifier
	events       *bus.Bus
	log          *slog.Logger

	busy atomic.Bool
}

func NewOrchestrator(conversation *Conversation, plugins Plugins, opts Options) *Orchestrator {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = NotifierFunc(func(context.Context, Notification) {})
	}

	return &Orchestrator{
		conversation: conversation,
		plugins:      plugins,
		replyDelay:   opts.ReplyDelay,
		notifier:     notifier,
		events:       opts.Bus,
		log:          log.With("component", "chat.orchestrator"),
	}
}

// Busy reports whether a send is in flight.
func (o *Orchestrator) Busy() bool {
	return o.busy.Load()
}

// Messages returns a snapshot of the conversation.
func (o *Orchestrator) Messages() []Message {
	return o.conversation.Messages()
}

// Send appends the user message, resolves and runs the target plugin (if
// any) and appends exactly one assistant reply. It returns the messages
// appended by this call. Blank content is ignored.
//
// Once started, a send runs to completion even if ctx is cancelled.
func (o *Orchestrator) Send(ctx context.Context, content string) ([]Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}
	if !o.busy.CompareAndSwap(false, true) {
		o.publish(ctx, bus.Event{Type: bus.EventSendRejected})
		return nil, ErrBusy
	}
	defer o.busy.Store(false)

	ctx = context.WithoutCancel(ctx)
	started := time.Now()
	o.publish(ctx, bus.Event{Type: bus.EventSendStarted})

	user := newTextMessage(SenderUser, content)
	o.append(ctx, user)

	reply := o.respond(ctx, content)
	o.pause()
	o.append(ctx, reply)

	o.publish(ctx, bus.Event{
		Type: bus.EventSendCompleted,
		Payload: map[string]string{
			bus.KeyType:       string(reply.Type),
			bus.KeyPlugin:     reply.PluginName,
			bus.KeyDurationMS: strconv.FormatInt(time.Since(started).Milliseconds(), 10),
		},
	})

	return []Message{user, reply}, nil
}

// route is a resolved plugin invocation from either the parser or the fallback.
type route struct {
	pluginName string
	args       string
	intro      string
	failure    string
	source     string
}

func (o *Orchestrator) respond(ctx context.Context, content string) Message {
	var r route
	if match, ok := command.Parse(content, o.plugins.List()); ok {
		r = route{pluginName: match.PluginName, args: match.Args, source: "command"}
	} else {
		resolution := command.Resolve(content)
		if !resolution.Routed() {
			return newTextMessage(SenderAssistant, resolution.Reply)
		}
		r = route{
			pluginName: resolution.PluginName,
			args:       resolution.Args,
			intro:      resolution.Intro,
			failure:    resolution.Failure,
			source:     "fallback",
		}
	}

	p, result, err := o.dispatch(ctx, r.pluginName, r.args)
	if err != nil {
		return o.failed(ctx, r, err)
	}

	intro := r.intro
	if intro == "" {
		intro = fmt.Sprintf("Results for %s %s:", p.Command(), r.args)
	}
	return newPluginMessage(intro, p.Name(), result)
}

// dispatch is the single execution entry point for both routes. Plugin
// panics are reported as execution errors.
func (o *Orchestrator) dispatch(ctx context.Context, name, args string) (p plugin.Plugin, result plugin.Result, err error) {
	p, ok := o.plugins.Resolve(name)
	if !ok {
		return nil, nil, chaterr.Lookup(name)
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			o.log.Error("Plugin panicked", "plugin", name, "panic", recovered)
			result, err = nil, chaterr.Execution("Plugin %s failed unexpectedly.", name)
		}
	}()

	result, err = p.Execute(ctx, args)
	if err == nil && result == nil {
		err = chaterr.Execution("Plugin %s returned no result.", name)
	}
	return p, result, err
}

func (o *Orchestrator) failed(ctx context.Context, r route, err error) Message {
	o.log.Warn("Plugin failed", "plugin", r.pluginName, "route", r.source, "kind", chaterr.KindOf(err), "error", err)
	o.publish(ctx, bus.Event{
		Type:    bus.EventPluginFailed,
		Payload: map[string]string{bus.KeyPlugin: r.pluginName, bus.KeyRoute: r.source},
		Error:   err.Error(),
	})

	text := errorReplyPrefix + err.Error()
	severity := SeverityDestructive
	if r.failure != "" {
		text = r.failure
		severity = SeverityWarning
	}
	o.notifier.Notify(ctx, Notification{Title: "Error", Description: err.Error(), Severity: severity})

	return newTextMessage(SenderAssistant, text)
}

func (o *Orchestrator) append(ctx context.Context, msg Message) {
	if err := o.conversation.Append(ctx, msg); err != nil {
		o.log.Error("Failed to persist conversation", "error", err)
	}

	o.publish(ctx, bus.Event{
		Type: bus.EventMessageAppended,
		Payload: map[string]string{
			bus.KeyMessageID: msg.ID,
			bus.KeySender:    string(msg.Sender),
			bus.KeyType:      string(msg.Type),
			bus.KeyPlugin:    msg.PluginName,
		},
	})
}

func (o *Orchestrator) pause() {
	if o.replyDelay > 0 {
		time.Sleep(o.replyDelay)
	}
}

func (o *Orchestrator) publish(ctx context.Context, event bus.Event) {
	if o.events != nil {
		o.events.Publish(ctx, event)
	}
}
