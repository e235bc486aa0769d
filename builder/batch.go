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

package builder

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/poiesic/recommendit/ai"
	"github.com/poiesic/recommendit/core"
	"github.com/poiesic/recommendit/index"
	"github.com/poiesic/recommendit/retry"
)

// batchProcessor handles embedding generation for batches of catalog records.
type batchProcessor struct {
	embedder       ai.Embedder
	limiter        *rate.Limiter
	maxRetries     int
	retryBaseDelay time.Duration
}

// process embeds a batch and stores the normalized vectors on the records.
// Each attempt waits for a limiter token so retries are throttled too.
// Only transient provider failures are retried.
func (bp *batchProcessor) process(ctx context.Context, records []*core.CatalogRecord) error {
	if len(records) == 0 {
		return nil
	}

	texts := make([]string, len(records))
	for i, record := range records {
		texts[i] = core.EmbeddingText(record)
	}

	var embeddings [][]float32
	err := retry.WithBackoffIf(ctx, func() error {
		if err := bp.limiter.Wait(ctx); err != nil {
			return err
		}
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay, retry.Transient)

	if err != nil {
		return fmt.Errorf("failed to generate embeddings: %w", err)
	}

	if len(embeddings) != len(records) {
		return fmt.Errorf("%w: expected %d, got %d", ErrEmbeddingCount, len(records), len(embeddings))
	}

	for i := range records {
		unit, ok := index.Normalize(embeddings[i])
		if !ok {
			return fmt.Errorf("%w: %s", index.ErrZeroVector, records[i].URL)
		}
		records[i].Vector = unit
	}

	return nil
}
