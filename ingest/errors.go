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


package ingest

import "errors"

var (
	// ErrCatalogRequired indicates a nil catalog was passed to NewPipeline.
	ErrCatalogRequired = errors.New("ingest: catalog is required")

	// ErrArenaRequired indicates a nil arena was passed to NewPipeline.
	ErrArenaRequired = errors.New("ingest: arena is required")

	// ErrEmbedderRequired indicates a nil embedder was passed to NewPipeline.
	ErrEmbedderRequired = errors.New("ingest: embedder is required")
)
