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


// Package catalog stores chatbot and document metadata in BadgerDB.
//
// The catalog is the system of record for what chatbots exist, which
// documents they own, and what state each is in. It deliberately holds no
// chunk or vector data; that belongs to the per-chatbot stores in the kb
// package, keeping metadata reads cheap and knowledge deletion physical.
package catalog
