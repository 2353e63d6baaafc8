// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package sandbox

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/0xsoniclabs/sandbox/backend"
	"github.com/0xsoniclabs/sandbox/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/golang/snappy"
)

// ErrInvalidSnapshotFormat is reported when decoding malformed snapshot data.
var ErrInvalidSnapshotFormat = errors.New("invalid snapshot format")

// The encoding of a snapshot consists of a magic number, a format version
// and a snappy compressed RLP encoding of the snapshot content.
const (
	snapshotMagicNumber   uint32 = 0x5A4D5348
	snapshotFormatVersion byte   = 1
	snapshotHeaderSize           = 5
)

type snapshotEncoding struct {
	Variant string
	Root    common.Hash
	Entries []snapshotEntryEncoding
}

type snapshotEntryEncoding struct {
	Key   []byte
	Value []byte
	Refs  uint32
}

// EncodeSnapshot produces the binary encoding of the given snapshot.
func EncodeSnapshot(s Snapshot) ([]byte, error) {
	content := snapshotEncoding{
		Variant: s.variant,
		Root:    s.root,
		Entries: make([]snapshotEntryEncoding, len(s.storage)),
	}
	for i, cur := range s.storage {
		content.Entries[i] = snapshotEntryEncoding{
			Key:   cur.Key,
			Value: cur.Value,
			Refs:  uint32(cur.Refs),
		}
	}
	payload, err := rlp.EncodeToBytes(&content)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	res := make([]byte, snapshotHeaderSize, snapshotHeaderSize+snappy.MaxEncodedLen(len(payload)))
	binary.BigEndian.PutUint32(res, snapshotMagicNumber)
	res[4] = snapshotFormatVersion
	return append(res, snappy.Encode(nil, payload)...), nil
}

// DecodeSnapshot parses a snapshot produced by EncodeSnapshot.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	if len(data) < snapshotHeaderSize {
		return Snapshot{}, fmt.Errorf("%w: missing header", ErrInvalidSnapshotFormat)
	}
	if magic := binary.BigEndian.Uint32(data); magic != snapshotMagicNumber {
		return Snapshot{}, fmt.Errorf("%w: invalid magic number %x", ErrInvalidSnapshotFormat, magic)
	}
	if version := data[4]; version != snapshotFormatVersion {
		return Snapshot{}, fmt.Errorf("%w: unsupported version %d", ErrInvalidSnapshotFormat, version)
	}
	payload, err := snappy.Decode(nil, data[snapshotHeaderSize:])
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrInvalidSnapshotFormat, err)
	}
	var content snapshotEncoding
	if err := rlp.DecodeBytes(payload, &content); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrInvalidSnapshotFormat, err)
	}

	storage := make(backend.RawStorage, len(content.Entries))
	for i, cur := range content.Entries {
		if cur.Refs == 0 || cur.Refs > math.MaxInt32 {
			return Snapshot{}, fmt.Errorf("%w: invalid reference count %d of entry %x", ErrInvalidSnapshotFormat, cur.Refs, cur.Key)
		}
		if i > 0 && bytes.Compare(content.Entries[i-1].Key, cur.Key) >= 0 {
			return Snapshot{}, fmt.Errorf("%w: entries not in strictly ascending key order", ErrInvalidSnapshotFormat)
		}
		value := cur.Value
		if value == nil {
			value = []byte{}
		}
		key := cur.Key
		if key == nil {
			key = []byte{}
		}
		storage[i] = backend.KeyEntry{
			Key:   key,
			Entry: backend.Entry{Value: value, Refs: int32(cur.Refs)},
		}
	}
	return Snapshot{
		variant: content.Variant,
		storage: storage,
		root:    content.Root,
	}, nil
}

// WriteSnapshot writes the binary encoding of the given snapshot to w.
func WriteSnapshot(w io.Writer, s Snapshot) error {
	data, err := EncodeSnapshot(s)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot reads a snapshot written by WriteSnapshot from r.
func ReadSnapshot(r io.Reader) (Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return DecodeSnapshot(data)
}
