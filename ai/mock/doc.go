// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder and
// ai.AIProvider for use in unit tests. The mocks allow tests to run without
// an external embedding service and give controlled, deterministic vectors.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	vec, err := mockProvider.Embedder().EmbedText(ctx, "test")
//
//	// Fixed vectors for known queries
//	embedder := mock.NewTableEmbedder(map[string][]float32{
//	    "java developer": {1, 0, 0},
//	})
//
//	// Custom behavior injection
//	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
//	    return nil, core.NewProviderError(errors.New("rate limited"))
//	}
//
//	// Check call counts
//	count := embedder.CallCount()
//
// # Default Behavior
//
// MockEmbedder returns unit-length vectors derived from an FNV hash of the
// text, so equal text always yields equal vectors.
package mock
