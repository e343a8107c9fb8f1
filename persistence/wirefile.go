package persistence

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

// WriteHexFile writes data to path hex-encoded with a trailing newline, the
// format the CLI uses for persisted public keys and signatures (§6: "public
// keys / signatures as hex strings of the wire format").
func WriteHexFile(path string, data []byte) error {
	enc := hex.EncodeToString(data) + "\n"
	if err := os.WriteFile(path, []byte(enc), 0600); err != nil {
		return fmt.Errorf("persistence: failed to write %s: %w", path, err)
	}
	return nil
}

// ReadHexFile reads and decodes a hex-encoded file written by WriteHexFile.
func ReadHexFile(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("persistence: failed to read %s: %w", path, err)
	}
	data, err := hex.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("persistence: %s is not valid hex: %w", path, err)
	}
	return data, nil
}
