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


// Package query answers questions against deployed chatbot knowledge.
//
// A question is embedded, the nearest chunks retrieved from the chatbot's
// store, and a grounded prompt assembled for the generation service.
// Generation failures that look transient are retried with exponential
// backoff; exhausted retries surface as a distinct service-unavailable
// error so callers never mistake an outage for a bad question.
package query
