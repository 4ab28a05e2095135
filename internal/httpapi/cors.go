// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package httpapi

import (
	"net/http"
	"strings"

	"github.com/gobwas/glob"
	"github.com/samber/oops"
)

const (
	corsAllowMethods = "GET, POST, PATCH, OPTIONS"
	corsAllowHeaders = "Authorization, Content-Type"
	corsMaxAge       = "600"
)

// CORS answers cross-origin requests from an allow-list of origin patterns.
// A "*" in a pattern matches within one DNS label, so
// "https://*.example.com" matches "https://app.example.com" but not
// "https://a.b.example.com".
type CORS struct {
	origins []glob.Glob
}

// NewCORS compiles the origin patterns. An empty list disables CORS.
func NewCORS(patterns []string) (*CORS, error) {
	c := &CORS{}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		g, err := glob.Compile(strings.TrimSuffix(p, "/"), '.')
		if err != nil {
			return nil, oops.Code("CORS_PATTERN_INVALID").With("pattern", p).Wrap(err)
		}
		c.origins = append(c.origins, g)
	}
	return c, nil
}

// Allowed reports whether origin matches a configured pattern.
func (c *CORS) Allowed(origin string) bool {
	if origin == "" {
		return false
	}
	for _, g := range c.origins {
		if g.Match(origin) {
			return true
		}
	}
	return false
}

// Wrap returns middleware that sets CORS headers and answers preflights.
func (c *CORS) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" || len(c.origins) == 0 {
			next.ServeHTTP(w, r)
			return
		}

		h := w.Header()
		h.Add("Vary", "Origin")
		allowed := c.Allowed(origin)
		if allowed {
			h.Set("Access-Control-Allow-Origin", origin)
		}

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			if allowed {
				h.Set("Access-Control-Allow-Methods", corsAllowMethods)
				h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
				h.Set("Access-Control-Max-Age", corsMaxAge)
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
