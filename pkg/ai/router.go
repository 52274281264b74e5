package ai

import (
	"sort"
	"strings"
)

// Router selects the provider client for a call. Precedence: a recognised
// per-call preference, then the configured default, then DefaultProvider.
// It never fails over to another provider.
type Router struct {
	clients         map[string]ProviderClient
	defaultProvider string
}

// NewRouter registers clients by descriptor ID. The configured default is read
// once here and never re-read.
func NewRouter(defaultProvider string, clients ...ProviderClient) *Router {
	registry := make(map[string]ProviderClient, len(clients))
	for _, client := range clients {
		if client == nil {
			continue
		}
		registry[normalizeProviderID(client.Descriptor().ID)] = client
	}

	return &Router{
		clients:         registry,
		defaultProvider: normalizeProviderID(defaultProvider),
	}
}

// Select returns the client to use. ok is false only when no client at all can
// satisfy the precedence chain.
func (r *Router) Select(preference string) (ProviderClient, bool) {
	for _, candidate := range []string{normalizeProviderID(preference), r.defaultProvider, DefaultProvider} {
		if candidate == "" {
			continue
		}
		if client, ok := r.clients[candidate]; ok {
			return client, true
		}
	}
	return nil, false
}

// Resolve reports the provider ID Select would pick, or "" when none.
func (r *Router) Resolve(preference string) string {
	client, ok := r.Select(preference)
	if !ok {
		return ""
	}
	return normalizeProviderID(client.Descriptor().ID)
}

// Providers lists the registered provider IDs.
func (r *Router) Providers() []string {
	ids := make([]string, 0, len(r.clients))
	for id := range r.clients {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// providerAliases maps the generic slot names onto concrete provider IDs.
var providerAliases = map[string]string{
	"providera": ProviderGemini,
	"providerb": ProviderGPT,
}

func normalizeProviderID(id string) string {
	normalized := strings.ToLower(strings.TrimSpace(id))
	if alias, ok := providerAliases[normalized]; ok {
		return alias
	}
	return normalized
}
