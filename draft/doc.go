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


// Package draft stages uploaded files before a chatbot exists to own them.
//
// Drafts are plain directories of validated raw files, one per draft id.
// Nothing is embedded at staging time. Promotion copies the files into a
// chatbot's document set and leaves the draft intact, so a bad file can be
// removed and the deploy retried without re-uploading everything. Idle
// drafts are reclaimed by Sweep.
package draft
