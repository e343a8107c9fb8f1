// Package cavp runs LMS/LM-OTS implementations against CAVP-style
// conformance vectors: a JSON file of test groups, each pinning a
// public key and a set of signed messages with an expected verification
// outcome, in the shape ACVP's LMS algorithm capability publishes.
package cavp

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// VectorFile is the top-level CAVP-style JSON document.
type VectorFile struct {
	Algorithm  string       `json:"algorithm"`
	Mode       string       `json:"mode"`
	Revision   string       `json:"revision"`
	TestGroups []TestGroup  `json:"testGroups"`
}

// TestGroup bundles every test case that verifies against one public key.
type TestGroup struct {
	TgID      int        `json:"tgId"`
	PublicKey string     `json:"publicKey"` // hex
	Tests     []TestCase `json:"tests"`
}

// TestCase is a single signature verification vector.
type TestCase struct {
	TcID       int    `json:"tcId"`
	Message    string `json:"message"`   // hex
	Signature  string `json:"signature"` // hex
	TestPassed bool   `json:"testPassed"`
}

// PublicKeyBytes decodes the group's hex-encoded public key.
func (g *TestGroup) PublicKeyBytes() ([]byte, error) {
	b, err := hex.DecodeString(g.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("cavp: test group %d: invalid publicKey hex: %w", g.TgID, err)
	}
	return b, nil
}

// MessageBytes decodes the case's hex-encoded message.
func (c *TestCase) MessageBytes() ([]byte, error) {
	b, err := hex.DecodeString(c.Message)
	if err != nil {
		return nil, fmt.Errorf("cavp: test case %d: invalid message hex: %w", c.TcID, err)
	}
	return b, nil
}

// SignatureBytes decodes the case's hex-encoded signature.
func (c *TestCase) SignatureBytes() ([]byte, error) {
	b, err := hex.DecodeString(c.Signature)
	if err != nil {
		return nil, fmt.Errorf("cavp: test case %d: invalid signature hex: %w", c.TcID, err)
	}
	return b, nil
}

// LoadVectorFile parses a CAVP-style JSON vector file from path.
func LoadVectorFile(path string) (*VectorFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cavp: %w", err)
	}
	defer f.Close()
	return ParseVectorFile(f)
}

// ParseVectorFile parses a CAVP-style JSON vector file from r.
func ParseVectorFile(r io.Reader) (*VectorFile, error) {
	var vf VectorFile
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&vf); err != nil {
		return nil, fmt.Errorf("cavp: failed to parse vector file: %w", err)
	}
	return &vf, nil
}
