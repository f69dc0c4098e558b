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

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// manifest describes a knowledge store. It is written once at creation
// time and pins the vector dimension for the store's lifetime.
type manifest struct {
	ChatbotId string
	Dimension int
	CreatedAt time.Time
}

func marshalManifest(m manifest) []byte {
	size := ord.String.Size(m.ChatbotId) +
		varint.Int.Size(m.Dimension) +
		varint.Int64.Size(m.CreatedAt.UnixMicro())
	bs := make([]byte, size)
	n := ord.String.Marshal(m.ChatbotId, bs)
	n += varint.Int.Marshal(m.Dimension, bs[n:])
	varint.Int64.Marshal(m.CreatedAt.UnixMicro(), bs[n:])
	return bs
}

func unmarshalManifest(bs []byte) (m manifest, err error) {
	var n, k int
	if m.ChatbotId, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if m.Dimension, k, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += k
	var micros int64
	if micros, _, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return
	}
	m.CreatedAt = time.UnixMicro(micros).UTC()
	return m, nil
}
