// Package pack turns an audit record into the compressed artifact that is
// embedded into the binary, and back.
//
// The artifact is the compact JSON serialization of audit.VersionInfo wrapped
// in a zlib stream. It is self-describing: decoding needs nothing but the
// bytes.
package pack

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"depaudit/internal/audit"
	"depaudit/internal/types"
)

// Level is a zlib compression level.
type Level int

const (
	// LevelDebug favors build-step speed for iterative builds.
	LevelDebug Level = 1
	// LevelRelease favors artifact size. It stays below the maximum because
	// the step also runs on incremental release rebuilds.
	LevelRelease Level = 7
)

// LevelForProfile selects the compression level for a cargo build profile.
// Only "debug" and "release" are recognized.
func LevelForProfile(profile string) (Level, error) {
	switch profile {
	case "debug":
		return LevelDebug, nil
	case "release":
		return LevelRelease, nil
	default:
		return 0, types.NewAppError(
			types.ErrCodeConfigUnknownProfile,
			fmt.Sprintf("unknown build profile %q (expected debug or release)", profile),
			nil,
		)
	}
}

// Serialize returns the canonical JSON form of the record.
func Serialize(v *audit.VersionInfo) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodePackageEncode, "failed to serialize audit record", err)
	}
	return data, nil
}

// Compress wraps data in a zlib stream at the given level. Output is
// deterministic for a fixed input and level.
func Compress(data []byte, level Level) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, int(level))
	if err != nil {
		return nil, types.NewAppError(types.ErrCodePackageEncode, fmt.Sprintf("invalid compression level %d", level), err)
	}
	if _, err := zw.Write(data); err != nil {
		_ = zw.Close()
		return nil, types.NewAppError(types.ErrCodePackageEncode, "failed to compress audit record", err)
	}
	if err := zw.Close(); err != nil {
		return nil, types.NewAppError(types.ErrCodePackageEncode, "failed to finish zlib stream", err)
	}
	return buf.Bytes(), nil
}

// Decompress reverses Compress.
func Decompress(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, types.NewAppError(types.ErrCodePackageDecode, "artifact is not a zlib stream", err)
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodePackageDecode, "failed to decompress artifact", err)
	}
	return out, nil
}

// Encode serializes and compresses the record.
func Encode(v *audit.VersionInfo, level Level) ([]byte, error) {
	data, err := Serialize(v)
	if err != nil {
		return nil, err
	}
	return Compress(data, level)
}

// Decode decompresses and parses an artifact.
func Decode(data []byte) (*audit.VersionInfo, error) {
	raw, err := Decompress(data)
	if err != nil {
		return nil, err
	}
	var v audit.VersionInfo
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, types.NewAppError(types.ErrCodePackageDecode, "artifact does not contain a valid audit record", err)
	}
	return &v, nil
}
