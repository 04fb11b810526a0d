// Package registry holds the active plugin set: the built-ins followed by the
// enabled user-defined plugins persisted in the store.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/chaterr"
	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/plugin"
	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/store"
)

var (
	// ErrReservedName rejects descriptors that reuse a built-in plugin name.
	ErrReservedName = &chaterr.Error{Kind: chaterr.KindValidation, Detail: "plugin name is reserved by a built-in plugin"}
	// ErrDuplicateName rejects a second custom command under an existing name.
	ErrDuplicateName = &chaterr.Error{Kind: chaterr.KindValidation, Detail: "plugin name is already used by another command"}
	// ErrUnknownCommand is returned by SetEnabled for commands never registered.
	ErrUnknownCommand = &chaterr.Error{Kind: chaterr.KindLookup, Detail: "no custom plugin uses this command"}
)

// Registry is safe for concurrent use. Mutations are written through to the
// store as a whole-list overwrite before the active set changes.
type Registry struct {
	store    store.Store
	log      *slog.Logger
	builtins []plugin.Plugin

	mu     sync.RWMutex
	custom []plugin.Plugin
}

func New(kv store.Store, builtins []plugin.Plugin, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}

	return &Registry{
		store:    kv,
		log:      log.With("component", "registry"),
		builtins: slices.Clone(builtins),
	}
}

// Load replaces the custom part of the active set with the enabled persisted
// descriptors. A malformed stored list is logged and treated as empty.
func (r *Registry) Load(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	descriptors, err := r.readDescriptors(ctx)
	if err != nil {
		return err
	}

	r.custom = r.synthesize(descriptors)
	r.log.Debug("Custom plugins loaded", "stored", len(descriptors), "active", len(r.custom))
	return nil
}

// Save overwrites the persisted descriptor list.
func (r *Registry) Save(ctx context.Context, descriptors []plugin.Descriptor) error {
	if descriptors == nil {
		descriptors = []plugin.Descriptor{}
	}

	payload, err := json.Marshal(descriptors)
	if err != nil {
		return fmt.Errorf("encode custom plugins: %w", err)
	}
	if err := r.store.Put(ctx, store.KeyCustomPlugins, payload); err != nil {
		return fmt.Errorf("save custom plugins: %w", err)
	}

	return nil
}

// CustomPlugins returns every persisted descriptor, enabled or not.
func (r *Registry) CustomPlugins(ctx context.Context) ([]plugin.Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.readDescriptors(ctx)
}

// Register adds or replaces (by command) a custom plugin descriptor.
func (r *Registry) Register(ctx context.Context, desc plugin.Descriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.registerLocked(ctx, desc)
}

// SetEnabled toggles a stored descriptor by command token.
func (r *Registry) SetEnabled(ctx context.Context, command string, enabled bool) error {
	command = plugin.NormalizeCommand(command)

	r.mu.Lock()
	defer r.mu.Unlock()

	descriptors, err := r.readDescriptors(ctx)
	if err != nil {
		return err
	}

	idx := slices.IndexFunc(descriptors, func(d plugin.Descriptor) bool { return d.Command == command })
	if idx < 0 {
		return fmt.Errorf("%w: /%s", ErrUnknownCommand, command)
	}

	desc := descriptors[idx]
	desc.Enabled = enabled
	return r.registerLocked(ctx, desc)
}

// registerLocked must be called with r.mu held for writing.
func (r *Registry) registerLocked(ctx context.Context, desc plugin.Descriptor) error {
	desc = desc.Normalize()
	if err := r.validate(desc); err != nil {
		return err
	}

	descriptors, err := r.readDescriptors(ctx)
	if err != nil {
		return err
	}

	for _, existing := range descriptors {
		if existing.Name == desc.Name && existing.Command != desc.Command {
			return fmt.Errorf("%w: %q uses /%s", ErrDuplicateName, existing.Name, existing.Command)
		}
	}

	if idx := slices.IndexFunc(descriptors, func(d plugin.Descriptor) bool { return d.Command == desc.Command }); idx >= 0 {
		descriptors[idx] = desc
	} else {
		descriptors = append(descriptors, desc)
	}

	if err := r.Save(ctx, descriptors); err != nil {
		return err
	}

	r.custom = r.synthesize(descriptors)
	r.log.Info("Custom plugin registered", "name", desc.Name, "command", desc.Command, "enabled", desc.Enabled)
	return nil
}

// List returns the active plugins in registration order: built-ins first,
// then enabled custom plugins in insertion order.
func (r *Registry) List() []plugin.Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	active := make([]plugin.Plugin, 0, len(r.builtins)+len(r.custom))
	active = append(active, r.builtins...)
	return append(active, r.custom...)
}

// Resolve finds an active plugin by name.
func (r *Registry) Resolve(name string) (plugin.Plugin, bool) {
	for _, p := range r.List() {
		if p.Name() == name {
			return p, true
		}
	}

	return nil, false
}

// IsBuiltin reports whether name belongs to the built-in set.
func (r *Registry) IsBuiltin(name string) bool {
	return slices.ContainsFunc(r.builtins, func(p plugin.Plugin) bool { return p.Name() == name })
}

func (r *Registry) validate(desc plugin.Descriptor) error {
	if desc.Name == "" {
		return chaterr.Validation("plugin name must not be empty")
	}
	if !plugin.ValidCommandToken(desc.Command) {
		return chaterr.Validation("command %q must start with a letter or digit and contain only letters, digits, '-' or '_'", desc.Command)
	}
	if r.IsBuiltin(desc.Name) {
		return fmt.Errorf("%w: %q", ErrReservedName, desc.Name)
	}

	return nil
}

// readDescriptors must be called with r.mu held.
func (r *Registry) readDescriptors(ctx context.Context) ([]plugin.Descriptor, error) {
	raw, err := r.store.Get(ctx, store.KeyCustomPlugins)
	if errors.Is(err, store.ErrNotFound) {
		return []plugin.Descriptor{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read custom plugins: %w", err)
	}

	var descriptors []plugin.Descriptor
	if err := json.Unmarshal(raw, &descriptors); err != nil {
		r.log.Warn("Ignoring malformed custom plugin list", "error", chaterr.Persistence(store.KeyCustomPlugins, err))
		return []plugin.Descriptor{}, nil
	}
	if descriptors == nil {
		descriptors = []plugin.Descriptor{}
	}

	return descriptors, nil
}

// synthesize builds runnable plugins for the enabled, well-formed descriptors.
func (r *Registry) synthesize(descriptors []plugin.Descriptor) []plugin.Plugin {
	active := make([]plugin.Plugin, 0, len(descriptors))
	for _, desc := range descriptors {
		if !desc.Enabled {
			continue
		}

		desc = desc.Normalize()
		if err := r.validate(desc); err != nil {
			r.log.Warn("Skipping stored custom plugin", "name", desc.Name, "command", desc.Command, "error", err)
			continue
		}
		active = append(active, plugin.NewCustom(desc))
	}

	return active
}
