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
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/poiesic/recommendit/core"
	"github.com/poiesic/recommendit/search"
)

// LegacyTopK is the result count of GET /recommend when top_k is absent.
const LegacyTopK = 5

// RecommendRequest is the body of POST /api/v1/recommend.
type RecommendRequest struct {
	Query          string   `json:"query" validate:"required,max=10000"`
	ScoreThreshold *float32 `json:"score_threshold,omitempty" validate:"omitempty,gte=-1,lte=1"`
	MaxResults     *int     `json:"max_results,omitempty" validate:"omitempty,gte=1,lte=100"`
	Shape          string   `json:"shape,omitempty" validate:"omitempty,max=32"`
}

// RecommendResponse is the body returned by POST /api/v1/recommend.
type RecommendResponse struct {
	Query   string `json:"query"`
	Shape   string `json:"shape"`
	Count   int    `json:"count"`
	Results any    `json:"results"`
}

// HealthResponse is the body returned by GET /healthz.
type HealthResponse struct {
	Status    string    `json:"status"`
	Records   int       `json:"records"`
	Dimension int       `json:"dimension"`
	LoadedAt  time.Time `json:"loaded_at"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.write(w, http.StatusOK, map[string]string{
		"message": "SHL Assessment API is running. Use /recommend endpoint.",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.svc.Snapshot()
	s.write(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Records:   snap.Records,
		Dimension: snap.Dimension,
		LoadedAt:  snap.LoadedAt,
	})
}

// handleLegacyRecommend serves GET /recommend?query=&top_k= with catalog
// column names and a bare JSON array. No match yields an empty array.
func (s *Server) handleLegacyRecommend(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		writeServiceError(w, &ValidationError{
			Message: "Validation failed",
			Fields:  map[string]string{"query": "query is required"},
		}, s.logger)
		return
	}

	params := s.svc.Defaults()
	params.MaxResults = LegacyTopK
	if raw := r.URL.Query().Get("top_k"); raw != "" {
		k, err := strconv.Atoi(raw)
		if err != nil || k < 1 {
			writeServiceError(w, &ValidationError{
				Message: "Validation failed",
				Fields:  map[string]string{"top_k": "top_k must be a positive integer"},
			}, s.logger)
			return
		}
		params.MaxResults = k
	}

	results, err := s.svc.Recommend(r.Context(), query, params)
	if err != nil && !errors.Is(err, core.ErrNoMatch) {
		writeServiceError(w, err, s.logger)
		return
	}

	shaper, _ := search.ShapeByName("catalog")
	s.write(w, http.StatusOK, shaper.Shape(results))
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = WriteError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err), nil)
		return
	}
	if err := validateStruct(s.validate, &req); err != nil {
		writeServiceError(w, err, s.logger)
		return
	}

	shapeName := req.Shape
	if shapeName == "" {
		shapeName = s.config.DefaultShape
	}
	shaper, err := search.ShapeByName(shapeName)
	if err != nil {
		writeServiceError(w, err, s.logger)
		return
	}

	params := s.svc.Defaults()
	if req.ScoreThreshold != nil {
		params.ScoreThreshold = *req.ScoreThreshold
	}
	if req.MaxResults != nil {
		params.MaxResults = *req.MaxResults
	}

	results, err := s.svc.Recommend(r.Context(), req.Query, params)
	if err != nil {
		writeServiceError(w, err, s.logger)
		return
	}

	s.write(w, http.StatusOK, RecommendResponse{
		Query:   req.Query,
		Shape:   shaper.Name(),
		Count:   len(results),
		Results: shaper.Shape(results),
	})
}

func (s *Server) handleGetAssessment(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err, s.logger)
		return
	}
	rec, ok := s.svc.Lookup(id)
	if !ok {
		_ = WriteError(w, http.StatusNotFound, fmt.Sprintf("assessment %s not found", id), nil)
		return
	}
	s.write(w, http.StatusOK, search.ShapeRecord(rec))
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.Reload(r.Context())
	if err != nil {
		s.logger.Error("reload failed", "err", err, "request_id", middleware.GetReqID(r.Context()))
		_ = WriteError(w, http.StatusInternalServerError, "Reload failed; the previous snapshot is still served", map[string]any{
			"records": snap.Records,
		})
		return
	}
	s.write(w, http.StatusOK, HealthResponse{
		Status:    "reloaded",
		Records:   snap.Records,
		Dimension: snap.Dimension,
		LoadedAt:  snap.LoadedAt,
	})
}

func (s *Server) write(w http.ResponseWriter, status int, data any) {
	if err := WriteJSON(w, status, data); err != nil {
		s.logger.Error("failed to write response", "err", err)
	}
}
