package rtpipeline

import (
	"encoding/binary"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
)

// Loader reads compiled SPIR-V by path
type Loader interface {
	Load(path string) ([]byte, error)
}

// FileLoader reads SPIR-V from the filesystem. Relative paths are resolved against Root.
type FileLoader struct {
	Root string
}

func (l FileLoader) Load(path string) ([]byte, error) {
	if !filepath.IsAbs(path) && l.Root != "" {
		path = filepath.Join(l.Root, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read shader %s", path)
	}
	return data, nil
}

// FSLoader reads SPIR-V from an fs.FS, such as an embed.FS compiled into the binary
type FSLoader struct {
	FS fs.FS
}

func (l FSLoader) Load(path string) ([]byte, error) {
	data, err := fs.ReadFile(l.FS, path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read shader %s", path)
	}
	return data, nil
}

// BytesToBytecode converts little-endian SPIR-V bytes to the words a shader module is created from
func BytesToBytecode(b []byte) ([]uint32, error) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, errors.Newf("SPIR-V must be a nonzero multiple of 4 bytes but was %d bytes", len(b))
	}

	byteCode := make([]uint32, len(b)/4)
	for i := range byteCode {
		byteCode[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return byteCode, nil
}
