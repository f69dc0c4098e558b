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


// Package chunk splits extracted document text into overlapping pieces
// sized for embedding.
//
// The splitter walks the text in fixed windows and prefers to cut at a
// paragraph break, then a line break, then a word break, so chunks tend to
// end at natural boundaries. Consecutive chunks share a configurable
// overlap, which keeps context that straddles a boundary retrievable from
// either side.
package chunk
