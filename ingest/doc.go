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


// Package ingest deploys uploaded documents into chatbot knowledge stores.
//
// A deployment pass extracts each pending document's text, splits it into
// overlapping chunks, embeds the chunks, and writes them to the chatbot's
// store. Passes run asynchronously on a shared worker pool; per chatbot
// they are serialized, with concurrent deploy requests coalesced into a
// single follow-up pass.
package ingest
