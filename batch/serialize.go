// Copyright (C) 2025, ChainSentry Ltd. All rights reserved.
// See the file LICENSE for licensing terms.

package batch

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// SerializationVersion tags the tree wire format. Bump on any layout change.
const SerializationVersion byte = 1

// ErrCorruptTree is returned when serialized tree bytes fail structural or
// hash-consistency checks.
var ErrCorruptTree = errors.New("corrupt tree encoding")

// Wire format, all integers big-endian:
//
//	version  byte
//	kind     byte
//	levels   uint32
//	per level:
//	  count  uint32
//	  hashes count * 32 bytes
//
// Every level is stored, leaves through root, so any leaf's proof can be
// regenerated later without the original entry list.

// Bytes serializes the full tree.
func (t *Tree) Bytes() []byte {
	size := 2 + 4
	for _, level := range t.levels {
		size += 4 + len(level)*common.HashLength
	}

	out := make([]byte, 0, size)
	out = append(out, SerializationVersion, byte(t.kind))
	out = binary.BigEndian.AppendUint32(out, uint32(len(t.levels)))
	for _, level := range t.levels {
		out = binary.BigEndian.AppendUint32(out, uint32(len(level)))
		for _, h := range level {
			out = append(out, h[:]...)
		}
	}
	return out
}

// ParseTree deserializes tree bytes, rejecting truncated input, unknown
// versions, inconsistent level widths, and any intermediate hash that does
// not recompute from the level below it.
func ParseTree(b []byte) (*Tree, error) {
	r := reader{buf: b}

	version, err := r.byte()
	if err != nil {
		return nil, err
	}
	if version != SerializationVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptTree, version)
	}

	kindByte, err := r.byte()
	if err != nil {
		return nil, err
	}
	kind := Kind(kindByte)
	if kind > KindTransaction {
		return nil, fmt.Errorf("%w: unknown kind %d", ErrCorruptTree, kindByte)
	}

	levelCount, err := r.uint32()
	if err != nil {
		return nil, err
	}
	if levelCount == 0 {
		return nil, fmt.Errorf("%w: no levels", ErrCorruptTree)
	}
	// Every level carries at least a count word and one hash, so the
	// claimed level count is bounded by the bytes actually present.
	if int64(levelCount)*int64(4+common.HashLength) > int64(r.remaining()) {
		return nil, fmt.Errorf("%w: truncated", ErrCorruptTree)
	}

	levels := make([][]common.Hash, 0, levelCount)
	for l := uint32(0); l < levelCount; l++ {
		count, err := r.uint32()
		if err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, fmt.Errorf("%w: empty level %d", ErrCorruptTree, l)
		}
		if int(count) > r.remaining()/common.HashLength {
			return nil, fmt.Errorf("%w: truncated", ErrCorruptTree)
		}
		level := make([]common.Hash, count)
		for i := range level {
			if level[i], err = r.hash(); err != nil {
				return nil, err
			}
		}
		levels = append(levels, level)
	}
	if r.remaining() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorruptTree, r.remaining())
	}
	if len(levels[len(levels)-1]) != 1 {
		return nil, fmt.Errorf("%w: top level is not a single root", ErrCorruptTree)
	}

	// Recompute every level above the leaves. Catches both bit rot and a
	// writer that used a different combination rule.
	for l := 1; l < len(levels); l++ {
		below := levels[l-1]
		want := (len(below) + 1) / 2
		if len(levels[l]) != want {
			return nil, fmt.Errorf("%w: level %d has %d nodes, want %d", ErrCorruptTree, l, len(levels[l]), want)
		}
		for i := 0; i < len(below); i += 2 {
			var recomputed common.Hash
			if i+1 < len(below) {
				recomputed = hashPair(below[i], below[i+1])
			} else {
				recomputed = below[i]
			}
			if levels[l][i/2] != recomputed {
				return nil, fmt.Errorf("%w: node %d at level %d does not recompute", ErrCorruptTree, i/2, l)
			}
		}
	}

	return &Tree{kind: kind, levels: levels}, nil
}

type reader struct {
	buf []byte
	off int
}

func (r *reader) remaining() int {
	return len(r.buf) - r.off
}

func (r *reader) byte() (byte, error) {
	if r.remaining() < 1 {
		return 0, fmt.Errorf("%w: truncated", ErrCorruptTree)
	}
	b := r.buf[r.off]
	r.off++
	return b, nil
}

func (r *reader) uint32() (uint32, error) {
	if r.remaining() < 4 {
		return 0, fmt.Errorf("%w: truncated", ErrCorruptTree)
	}
	v := binary.BigEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v, nil
}

func (r *reader) hash() (common.Hash, error) {
	if r.remaining() < common.HashLength {
		return common.Hash{}, fmt.Errorf("%w: truncated", ErrCorruptTree)
	}
	var h common.Hash
	copy(h[:], r.buf[r.off:])
	r.off += common.HashLength
	return h, nil
}
