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
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/poiesic/recommendit/core"
	"github.com/poiesic/recommendit/search"
)

// writeServiceError maps retrieval errors to HTTP responses.
func writeServiceError(w http.ResponseWriter, err error, logger *slog.Logger) {
	if err == nil {
		return
	}

	var (
		status  int
		message = err.Error()
		details map[string]any
	)

	var validationErr *ValidationError
	var noMatch *core.NoMatchError
	switch {
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
		message = validationErr.Message
		details = make(map[string]any, len(validationErr.Fields))
		for k, v := range validationErr.Fields {
			details[k] = v
		}

	case errors.Is(err, search.ErrEmptyQuery),
		errors.Is(err, search.ErrInvalidParams),
		errors.Is(err, search.ErrUnknownShape),
		errors.Is(err, core.ErrInvalidID):
		status = http.StatusBadRequest

	case errors.As(err, &noMatch):
		status = http.StatusNotFound
		details = map[string]any{
			"threshold":  noMatch.Threshold,
			"best_score": noMatch.BestScore,
			"candidates": noMatch.Candidates,
		}

	case errors.Is(err, core.ErrEmbeddingProvider):
		logger.Warn("embedding provider failed", "err", err)
		status = http.StatusBadGateway

	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout

	default:
		logger.Error("internal server error", "err", err)
		status = http.StatusInternalServerError
		message = "An internal error occurred"
	}

	if err := WriteError(w, status, message, details); err != nil {
		logger.Error("failed to write error response", "err", err)
	}
}
