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

import "errors"

// ErrStoreExists indicates a knowledge store already exists for the chatbot.
var ErrStoreExists = errors.New("kb: store already exists")

// ErrStoreNotFound indicates no knowledge store exists for the chatbot.
var ErrStoreNotFound = errors.New("kb: store not found")

// ErrDimensionMismatch indicates a vector's length differs from the
// dimension the store was created with.
var ErrDimensionMismatch = errors.New("kb: vector dimension mismatch")

// ErrStoreClosed indicates an operation on a store that has been closed
// or destroyed.
var ErrStoreClosed = errors.New("kb: store is closed")
