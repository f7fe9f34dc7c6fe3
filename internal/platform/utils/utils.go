package utils

import (
	"QuorumKV/internal/domain"
	"encoding/binary"
	"io"
	"math"

	"github.com/pkg/errors"
)

const (
	lenSize       = 4
	timestampSize = 8
)

// AppendCell writes a cell in table format and returns the number of
// bytes written:
//
//	key_len:i32 key ts:i64 [value_len:i32 value]
//
// The timestamp is negated for tombstones, which carry no value fields.
func AppendCell(w io.Writer, cell domain.Cell) (int64, error) {
	key := cell.Key()
	value := cell.Value()
	if len(key) > math.MaxInt32 || len(value.Payload()) > math.MaxInt32 {
		return 0, errors.Errorf("cell too large: key %d bytes, value %d bytes", len(key), len(value.Payload()))
	}

	if err := binary.Write(w, binary.BigEndian, int32(len(key))); err != nil {
		return 0, errors.Wrap(err, "write key length")
	}
	if _, err := w.Write(key); err != nil {
		return 0, errors.Wrap(err, "write key")
	}

	ts := value.Timestamp()
	if value.IsTombstone() {
		ts = -ts
	}
	if err := binary.Write(w, binary.BigEndian, ts); err != nil {
		return 0, errors.Wrap(err, "write timestamp")
	}
	if value.IsTombstone() {
		return CellSize(cell), nil
	}

	if err := binary.Write(w, binary.BigEndian, int32(len(value.Payload()))); err != nil {
		return 0, errors.Wrap(err, "write value length")
	}
	if _, err := w.Write(value.Payload()); err != nil {
		return 0, errors.Wrap(err, "write value")
	}
	return CellSize(cell), nil
}

func CellSize(cell domain.Cell) int64 {
	size := int64(lenSize + len(cell.Key()) + timestampSize)
	if !cell.Value().IsTombstone() {
		size += int64(lenSize + len(cell.Value().Payload()))
	}
	return size
}

// DecodeKey returns the key of the cell stored at offset. The returned
// slice aliases data.
func DecodeKey(data []byte, offset int64) ([]byte, error) {
	key, _, err := decodeBytes(data, offset)
	return key, err
}

// DecodeCell decodes the cell stored at offset without copying. Key and
// payload alias data.
func DecodeCell(data []byte, offset int64) (domain.Cell, error) {
	key, pos, err := decodeBytes(data, offset)
	if err != nil {
		return domain.Cell{}, err
	}
	if pos+timestampSize > int64(len(data)) {
		return domain.Cell{}, errors.Wrapf(domain.ErrCorruptedTable, "timestamp at %d out of bounds", pos)
	}
	ts := int64(binary.BigEndian.Uint64(data[pos:]))
	pos += timestampSize
	if ts < 0 {
		return domain.NewCell(key, domain.NewTombstone(-ts)), nil
	}
	payload, _, err := decodeBytes(data, pos)
	if err != nil {
		return domain.Cell{}, err
	}
	return domain.NewCell(key, domain.NewValue(ts, payload)), nil
}

func decodeBytes(data []byte, offset int64) ([]byte, int64, error) {
	if offset < 0 || offset+lenSize > int64(len(data)) {
		return nil, 0, errors.Wrapf(domain.ErrCorruptedTable, "length at %d out of bounds", offset)
	}
	n := int64(int32(binary.BigEndian.Uint32(data[offset:])))
	start := offset + lenSize
	if n < 0 || start+n > int64(len(data)) {
		return nil, 0, errors.Wrapf(domain.ErrCorruptedTable, "%d bytes at %d out of bounds", n, start)
	}
	return data[start : start+n : start+n], start + n, nil
}
