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


// Package kb implements per-chatbot knowledge stores on BadgerDB.
//
// An Arena owns a base directory and gives each chatbot an isolated store:
// a separate Badger database holding that chatbot's embedded chunks plus a
// manifest pinning the vector dimension. Isolation is physical, so
// destroying one chatbot's knowledge is a directory removal that cannot
// affect any other chatbot.
//
// Vectors are normalized to unit length on insert, which reduces cosine
// similarity at query time to a dot product over a linear scan. The
// per-chatbot corpus is small (bounded by the document limit), so a scan
// outperforms index maintenance here.
package kb
