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


package kb

import "fmt"

// Key layout inside a per-chatbot store. Chunk keys are namespaced by
// document so a whole document's chunks can be removed with one prefix scan.
const (
	manifestKey = "manifest"
	chunkPrefix = "chk"
)

// makeChunkKey generates a key for a chunk record.
// Format: chk:<documentID>:<zero-padded index>
func makeChunkKey(documentID string, index int) []byte {
	return []byte(fmt.Sprintf("%s:%s:%010d", chunkPrefix, documentID, index))
}

// makeDocumentPrefix generates the key prefix covering every chunk of a
// document.
func makeDocumentPrefix(documentID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", chunkPrefix, documentID))
}
