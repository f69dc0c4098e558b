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


package core

import (
	"fmt"
	"math"
	"time"

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// Hand-written MUS serializers for the persisted record types. The record
// set is small and fixed, so the serializers are maintained by hand rather
// than generated.

// IDMUS serializes an ID as a varint.
var IDMUS = idMUS{}

type idMUS struct{}

var _ mus.Serializer[ID] = IDMUS

func (idMUS) Marshal(id ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(id ID) int {
	return varint.Uint64.Size(uint64(id))
}

func (idMUS) Skip(bs []byte) (int, error) {
	return varint.Uint64.Skip(bs)
}

// VectorMUS serializes an embedding vector as a varint length followed by
// the raw IEEE-754 bits of each component.
var VectorMUS = vectorMUS{}

type vectorMUS struct{}

var _ mus.Serializer[[]float32] = VectorMUS

func (vectorMUS) Marshal(v []float32, bs []byte) int {
	n := varint.Int.Marshal(len(v), bs)
	for _, f := range v {
		n += varint.Uint32.Marshal(math.Float32bits(f), bs[n:])
	}
	return n
}

func (vectorMUS) Unmarshal(bs []byte) ([]float32, int, error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length < 0 {
		return nil, n, fmt.Errorf("%w: negative vector length %d", ErrCorruptRecord, length)
	}
	if length == 0 {
		return nil, n, nil
	}
	v := make([]float32, length)
	for i := 0; i < length; i++ {
		bits, m, err := varint.Uint32.Unmarshal(bs[n:])
		n += m
		if err != nil {
			return nil, n, err
		}
		v[i] = math.Float32frombits(bits)
	}
	return v, n, nil
}

func (vectorMUS) Size(v []float32) int {
	size := varint.Int.Size(len(v))
	for _, f := range v {
		size += varint.Uint32.Size(math.Float32bits(f))
	}
	return size
}

func (s vectorMUS) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}

// timeMUS serializes a time.Time as its UnixMicro value.
type timeMUS struct{}

var _ mus.Serializer[time.Time] = timeMUS{}

func (timeMUS) Marshal(t time.Time, bs []byte) int {
	return varint.Int64.Marshal(t.UnixMicro(), bs)
}

func (timeMUS) Unmarshal(bs []byte) (time.Time, int, error) {
	v, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(v).UTC(), n, nil
}

func (timeMUS) Size(t time.Time) int {
	return varint.Int64.Size(t.UnixMicro())
}

func (timeMUS) Skip(bs []byte) (int, error) {
	return varint.Int64.Skip(bs)
}

// ChunkRecordMUS serializes a ChunkRecord.
var ChunkRecordMUS = chunkRecordMUS{}

type chunkRecordMUS struct{}

var _ mus.Serializer[ChunkRecord] = ChunkRecordMUS

func (chunkRecordMUS) Marshal(r ChunkRecord, bs []byte) int {
	n := IDMUS.Marshal(r.Id, bs)
	n += ord.String.Marshal(r.DocumentId, bs[n:])
	n += ord.String.Marshal(r.Filename, bs[n:])
	n += varint.Int.Marshal(r.Index, bs[n:])
	n += ord.String.Marshal(r.Text, bs[n:])
	n += VectorMUS.Marshal(r.Vector, bs[n:])
	return n
}

func (chunkRecordMUS) Unmarshal(bs []byte) (r ChunkRecord, n int, err error) {
	var m int
	if r.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if r.DocumentId, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + m, err
	}
	n += m
	if r.Filename, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + m, err
	}
	n += m
	if r.Index, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return r, n + m, err
	}
	n += m
	if r.Text, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + m, err
	}
	n += m
	if r.Vector, m, err = VectorMUS.Unmarshal(bs[n:]); err != nil {
		return r, n + m, err
	}
	n += m
	return r, n, nil
}

func (chunkRecordMUS) Size(r ChunkRecord) int {
	return IDMUS.Size(r.Id) +
		ord.String.Size(r.DocumentId) +
		ord.String.Size(r.Filename) +
		varint.Int.Size(r.Index) +
		ord.String.Size(r.Text) +
		VectorMUS.Size(r.Vector)
}

func (s chunkRecordMUS) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}

// ChatbotMUS serializes a Chatbot row. DocumentCount is derived at read
// time and deliberately not part of the wire form.
var ChatbotMUS = chatbotMUS{}

type chatbotMUS struct{}

var _ mus.Serializer[Chatbot] = ChatbotMUS

func (chatbotMUS) Marshal(b Chatbot, bs []byte) int {
	n := ord.String.Marshal(b.Id, bs)
	n += ord.String.Marshal(b.Name, bs[n:])
	n += ord.String.Marshal(b.SystemPrompt, bs[n:])
	n += ord.String.Marshal(b.Model, bs[n:])
	n += ord.String.Marshal(string(b.Status), bs[n:])
	n += timeMUS{}.Marshal(b.CreatedAt, bs[n:])
	n += timeMUS{}.Marshal(b.UpdatedAt, bs[n:])
	return n
}

func (chatbotMUS) Unmarshal(bs []byte) (b Chatbot, n int, err error) {
	var m int
	if b.Id, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if b.Name, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return b, n + m, err
	}
	n += m
	if b.SystemPrompt, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return b, n + m, err
	}
	n += m
	if b.Model, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return b, n + m, err
	}
	n += m
	var status string
	if status, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return b, n + m, err
	}
	n += m
	b.Status = ChatbotStatus(status)
	if b.CreatedAt, m, err = (timeMUS{}).Unmarshal(bs[n:]); err != nil {
		return b, n + m, err
	}
	n += m
	if b.UpdatedAt, m, err = (timeMUS{}).Unmarshal(bs[n:]); err != nil {
		return b, n + m, err
	}
	n += m
	return b, n, nil
}

func (chatbotMUS) Size(b Chatbot) int {
	return ord.String.Size(b.Id) +
		ord.String.Size(b.Name) +
		ord.String.Size(b.SystemPrompt) +
		ord.String.Size(b.Model) +
		ord.String.Size(string(b.Status)) +
		timeMUS{}.Size(b.CreatedAt) +
		timeMUS{}.Size(b.UpdatedAt)
}

func (s chatbotMUS) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}

// DocumentMUS serializes a Document row.
var DocumentMUS = documentMUS{}

type documentMUS struct{}

var _ mus.Serializer[Document] = DocumentMUS

func (documentMUS) Marshal(d Document, bs []byte) int {
	n := ord.String.Marshal(d.Id, bs)
	n += ord.String.Marshal(d.ChatbotId, bs[n:])
	n += ord.String.Marshal(d.Filename, bs[n:])
	n += ord.String.Marshal(string(d.Type), bs[n:])
	n += varint.Int64.Marshal(d.Size, bs[n:])
	n += ord.String.Marshal(d.Path, bs[n:])
	n += ord.String.Marshal(string(d.Status), bs[n:])
	n += ord.String.Marshal(d.Error, bs[n:])
	n += timeMUS{}.Marshal(d.UploadedAt, bs[n:])
	return n
}

func (documentMUS) Unmarshal(bs []byte) (d Document, n int, err error) {
	var m int
	if d.Id, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if d.ChatbotId, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + m, err
	}
	n += m
	if d.Filename, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + m, err
	}
	n += m
	var docType string
	if docType, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + m, err
	}
	n += m
	d.Type = DocType(docType)
	if d.Size, m, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return d, n + m, err
	}
	n += m
	if d.Path, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + m, err
	}
	n += m
	var status string
	if status, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + m, err
	}
	n += m
	d.Status = DocumentStatus(status)
	if d.Error, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + m, err
	}
	n += m
	if d.UploadedAt, m, err = (timeMUS{}).Unmarshal(bs[n:]); err != nil {
		return d, n + m, err
	}
	n += m
	return d, n, nil
}

func (documentMUS) Size(d Document) int {
	return ord.String.Size(d.Id) +
		ord.String.Size(d.ChatbotId) +
		ord.String.Size(d.Filename) +
		ord.String.Size(string(d.Type)) +
		varint.Int64.Size(d.Size) +
		ord.String.Size(d.Path) +
		ord.String.Size(string(d.Status)) +
		ord.String.Size(d.Error) +
		timeMUS{}.Size(d.UploadedAt)
}

func (s documentMUS) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}
