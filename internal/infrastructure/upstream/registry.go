package upstream

import (
	"encoding/json"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/chafiq1992/order-scanner/internal/domain/upstream"
)

const (
	envAPIKeySuffix   = "_API_KEY"
	envPasswordSuffix = "_PASSWORD"
	envDomainSuffix   = "_DOMAIN"
)

// BuildRegistry materializes the configured store list. A non-empty JSON
// blob takes precedence; otherwise the environment is scanned for
// <ID>_API_KEY/_PASSWORD/_DOMAIN triplets. Incomplete entries are dropped
// with a warning, never fatal: the scanner must keep working with zero
// stores and simply resolve everything to not-found.
func BuildRegistry(jsonBlob string, environ []string, logger *zap.Logger) []upstream.StoreConfig {
	if strings.TrimSpace(jsonBlob) != "" {
		return storesFromJSON(jsonBlob, logger)
	}
	return storesFromEnviron(environ, logger)
}

// storesFromJSON parses the structured blob form. Malformed JSON yields
// zero stores rather than crashing startup.
func storesFromJSON(blob string, logger *zap.Logger) []upstream.StoreConfig {
	var raw []upstream.StoreConfig
	if err := json.Unmarshal([]byte(blob), &raw); err != nil {
		logger.Error("store config blob is not valid JSON, running with zero stores", zap.Error(err))
		return nil
	}

	stores := make([]upstream.StoreConfig, 0, len(raw))
	for _, s := range raw {
		s = s.Normalize()
		if !s.IsComplete() {
			logger.Warn("skipping incomplete store config", zap.String("store", s.Name))
			continue
		}
		stores = append(stores, s)
	}
	return stores
}

// storesFromEnviron builds the store list from per-store environment
// variable triplets.
func storesFromEnviron(environ []string, logger *zap.Logger) []upstream.StoreConfig {
	vars := make(map[string]string, len(environ))
	for _, kv := range environ {
		if i := strings.IndexByte(kv, '='); i > 0 {
			vars[kv[:i]] = kv[i+1:]
		}
	}

	var ids []string
	for name := range vars {
		if id, ok := strings.CutSuffix(name, envAPIKeySuffix); ok && id != "" {
			ids = append(ids, id)
		}
	}
	// Environment iteration order is not stable; keep store order
	// deterministic so resolution tie-breaks are reproducible.
	sort.Strings(ids)

	var stores []upstream.StoreConfig
	for _, id := range ids {
		s := upstream.StoreConfig{
			Name:     id,
			APIKey:   vars[id+envAPIKeySuffix],
			Password: vars[id+envPasswordSuffix],
			Domain:   vars[id+envDomainSuffix],
		}.Normalize()
		if !s.IsComplete() {
			logger.Warn("skipping store with missing credential variables", zap.String("store", s.Name))
			continue
		}
		stores = append(stores, s)
	}
	return stores
}
