package loaders

import (
	"fmt"
	"io"
	"os"

	"github.com/spaghettifunk/anima2d/engine/core"
)

const spirvMagic uint32 = 0x07230203

// LoadBytecode reads a SPIR-V binary from disk.
func LoadBytecode(path string) ([]uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return parseBytecode(path, buf)
}

func parseBytecode(name string, buf []byte) ([]uint32, error) {
	if len(buf) == 0 || len(buf)%4 != 0 {
		return nil, fmt.Errorf("%s: %d bytes is not a whole number of SPIR-V words: %w", name, len(buf), core.ErrShaderCompile)
	}
	code := bytesToBytecode(buf)
	if code[0] != spirvMagic {
		return nil, fmt.Errorf("%s: bad SPIR-V magic %#08x: %w", name, code[0], core.ErrShaderCompile)
	}
	return code, nil
}

// SPIR-V words are little-endian.
func bytesToBytecode(b []byte) []uint32 {
	byteCode := make([]uint32, len(b)/4)
	for i := 0; i < len(byteCode); i++ {
		byteIndex := i * 4
		byteCode[i] = 0
		byteCode[i] |= uint32(b[byteIndex])
		byteCode[i] |= uint32(b[byteIndex+1]) << 8
		byteCode[i] |= uint32(b[byteIndex+2]) << 16
		byteCode[i] |= uint32(b[byteIndex+3]) << 24
	}

	return byteCode
}
