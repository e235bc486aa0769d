// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

// requireAdmin rejects requests whose bearer token does not match AdminToken.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	want := []byte(s.config.AdminToken)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" || subtle.ConstantTimeCompare([]byte(token), want) != 1 {
			s.logger.Warn("admin request rejected",
				"path", r.URL.Path,
				"request_id", middleware.GetReqID(r.Context()))
			_ = WriteError(w, http.StatusUnauthorized, "Missing or invalid authorization", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// extractBearerToken returns the token of an "Authorization: Bearer" header.
func extractBearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
