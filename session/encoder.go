package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"
)

// CurrentSchemaVersion is the leading byte of every blob written by Encode.
const CurrentSchemaVersion uint8 = 1

// v1 layout:
//
//	version(1) userLen(1) userID(userLen) nameLen(1) name(nameLen) secretHash(32)
//	issuedAt(8) expiresAt(8) revoked(1) revokedAt(8)
//
// Times are big-endian unix milliseconds. revokedAt is zero while not revoked.
const v1FixedSize = 1 + 1 + 1 + 32 + 8 + 8 + 1 + 8

// Encode serialises r. SessionID is the storage key and is not part of the blob.
func Encode(r *Record) ([]byte, error) {
	if len(r.UserID) == 0 {
		return nil, errors.New("userID required")
	}
	if len(r.UserID) > 255 {
		return nil, errors.New("userID too long")
	}
	if len(r.DisplayName) > 255 {
		return nil, errors.New("display name too long")
	}

	var buf bytes.Buffer
	buf.Grow(v1FixedSize + len(r.UserID) + len(r.DisplayName))

	buf.WriteByte(CurrentSchemaVersion)
	buf.WriteByte(byte(len(r.UserID)))
	buf.WriteString(r.UserID)
	buf.WriteByte(byte(len(r.DisplayName)))
	buf.WriteString(r.DisplayName)
	buf.Write(r.SecretHash[:])

	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(r.IssuedAt.UnixMilli()))
	buf.Write(ts[:])
	binary.BigEndian.PutUint64(ts[:], uint64(r.ExpiresAt.UnixMilli()))
	buf.Write(ts[:])

	buf.Write(revocationPatch(r.Revoked, r.RevokedAt))

	return buf.Bytes(), nil
}

// revocationPatch returns the trailing 9 bytes of a v1 blob. The Redis revoke script
// splices exactly these bytes into the stored value.
func revocationPatch(revoked bool, at time.Time) []byte {
	out := make([]byte, 9)
	if !revoked {
		return out
	}
	out[0] = 1
	binary.BigEndian.PutUint64(out[1:], uint64(at.UnixMilli()))
	return out
}

// Decode parses a blob produced by Encode.
func Decode(data []byte) (*Record, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecordCorrupt, err)
	}
	if version != CurrentSchemaVersion {
		return nil, fmt.Errorf("%w: unsupported session schema version %d", ErrRecordCorrupt, version)
	}

	userLen, err := reader.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecordCorrupt, err)
	}
	r := &Record{}
	userID := make([]byte, userLen)
	if _, err := io.ReadFull(reader, userID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecordCorrupt, err)
	}
	r.UserID = string(userID)

	nameLen, err := reader.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecordCorrupt, err)
	}
	if len(data) != v1FixedSize+int(userLen)+int(nameLen) {
		return nil, fmt.Errorf("%w: length %d", ErrRecordCorrupt, len(data))
	}
	name := make([]byte, nameLen)
	if _, err := io.ReadFull(reader, name); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecordCorrupt, err)
	}
	r.DisplayName = string(name)

	if _, err := io.ReadFull(reader, r.SecretHash[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecordCorrupt, err)
	}

	var issued, expires, revokedAt int64
	if err := binary.Read(reader, binary.BigEndian, &issued); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecordCorrupt, err)
	}
	if err := binary.Read(reader, binary.BigEndian, &expires); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecordCorrupt, err)
	}
	flag, err := reader.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecordCorrupt, err)
	}
	if err := binary.Read(reader, binary.BigEndian, &revokedAt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecordCorrupt, err)
	}

	r.IssuedAt = time.UnixMilli(issued)
	r.ExpiresAt = time.UnixMilli(expires)
	switch flag {
	case 0:
	case 1:
		r.Revoked = true
		r.RevokedAt = time.UnixMilli(revokedAt)
	default:
		return nil, fmt.Errorf("%w: revoked flag %d", ErrRecordCorrupt, flag)
	}

	return r, nil
}
