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

// Package ai provides abstractions for the embedding service used by the
// recommender.
//
// The retrieval engine depends only on the Embedder interface. Concrete
// implementations live in sub-packages:
//
//   - openai: OpenAI-compatible HTTP provider built on langchaingo
//   - mock: deterministic test double
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, openai.NewEmbedder) return
// INTERFACE types so callers cannot couple to a concrete provider.
//
//	provider, err := openai.NewProvider(config)  // returns ai.AIProvider
//
// Test utility constructors (mock.NewMockEmbedder) return CONCRETE types so
// tests can inject behaviour and assert on call counts.
//
//	mockEmbed := mock.NewMockEmbedder()
//	mockEmbed.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) { ... }
//	count := mockEmbed.CallCount()
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithAPIKey(os.Getenv("OPENAI_API_KEY")))
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vec, err := provider.Embedder().EmbedText(ctx, "Java developer, 40 minutes")
package ai
