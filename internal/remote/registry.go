package remote

import (
	"context"
	"sort"
	"strings"
)

// Registry routes Fetcher calls to the adapter registered for each
// source alias.
type Registry struct {
	adapters map[string]*Adapter
}

func NewRegistry(adapters ...*Adapter) *Registry {
	registry := &Registry{adapters: make(map[string]*Adapter, len(adapters))}
	for _, adapter := range adapters {
		if adapter == nil || adapter.Source() == "" {
			continue
		}
		registry.adapters[adapter.Source()] = adapter
	}
	return registry
}

func (r *Registry) Sources() []string {
	if r == nil {
		return nil
	}
	sources := make([]string, 0, len(r.adapters))
	for source := range r.adapters {
		sources = append(sources, source)
	}
	sort.Strings(sources)
	return sources
}

func (r *Registry) FetchProfile(ctx context.Context, source string, name string) (RemoteProfile, error) {
	adapter, err := r.adapterFor(source)
	if err != nil {
		return RemoteProfile{}, err
	}
	return adapter.FetchProfile(ctx, name)
}

func (r *Registry) ListProfiles(ctx context.Context, source string) ([]ProfileInfo, error) {
	adapter, err := r.adapterFor(source)
	if err != nil {
		return nil, err
	}
	return adapter.ListProfiles(ctx)
}

func (r *Registry) adapterFor(source string) (*Adapter, error) {
	trimmed := strings.TrimSpace(source)
	if r == nil || trimmed == "" {
		return nil, &Error{Code: ErrorCodeInvalidInput, Message: "source alias must be set"}
	}
	adapter, ok := r.adapters[trimmed]
	if !ok {
		return nil, &Error{
			Code:    ErrorCodeUnknownSource,
			Source:  trimmed,
			Message: "no configured org for source alias (known: " + strings.Join(r.Sources(), ", ") + ")",
		}
	}
	return adapter, nil
}
