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


package mock

import "github.com/poiesic/docbot/ai"

// Provider is a test double for ai.Provider aggregating mock services.
type Provider struct {
	embedder  *Embedder
	generator *Generator
}

// NewProvider creates a provider backed by mock services.
// Returns ai.Provider since it is the primary entry point; use
// MockEmbedder() and MockGenerator() to reach the concrete types
// for assertions.
func NewProvider() ai.Provider {
	return &Provider{
		embedder:  NewEmbedder(),
		generator: NewGenerator(),
	}
}

// NewProviderWith creates a provider around existing mock instances.
func NewProviderWith(embedder *Embedder, generator *Generator) ai.Provider {
	return &Provider{embedder: embedder, generator: generator}
}

// Embedder returns the mock embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Generator returns the mock completion service.
func (p *Provider) Generator() ai.Generator {
	return p.generator
}

// MockEmbedder returns the concrete mock embedder for test assertions.
func (p *Provider) MockEmbedder() *Embedder {
	return p.embedder
}

// MockGenerator returns the concrete mock generator for test assertions.
func (p *Provider) MockGenerator() *Generator {
	return p.generator
}

// Close is a no-op.
func (p *Provider) Close() error {
	return nil
}
