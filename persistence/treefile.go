package persistence

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"

	"github.com/ericeilertson/lms-hss/lms/common"
	"github.com/ericeilertson/lms-hss/lms/lms"
)

// TreeDocument is the portable, human-inspectable JSON form of an LMS
// private key: the format the CLI reads and writes. It is distinct from
// SignerState's binary file, which a long-running signer locks and
// mutates in place; TreeDocument is meant to be copied around and
// diffed, so it carries a checksum rather than relying on a lock to
// prove it wasn't partially written.
type TreeDocument struct {
	FormatVersion int    `json:"format_version"`
	LmsAlgID      uint32 `json:"lms_alg_id"`
	OtsAlgID      uint32 `json:"ots_alg_id"`
	ID            string `json:"id"`   // hex
	Q             uint32 `json:"q"`
	Seed          string `json:"seed"` // hex
	Checksum      string `json:"checksum"` // hex xxhash64 of the fields above
}

func (d *TreeDocument) computeChecksum() string {
	sum := xxhash.New()
	fmt.Fprintf(sum, "%d|%d|%d|%s|%d|%s", d.FormatVersion, d.LmsAlgID, d.OtsAlgID, d.ID, d.Q, d.Seed)
	var b [8]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(sum.Sum64() >> (56 - 8*i))
	}
	return hex.EncodeToString(b[:])
}

// NewTreeDocument builds a TreeDocument from an in-memory private key.
func NewTreeDocument(priv *lms.LmsPrivateKey) (TreeDocument, error) {
	raw := priv.ToBytes()
	// Layout per lms.LmsPrivateKey.ToBytes: lms_alg_id(4) ots_alg_id(4) q(4) id(16) seed(...)
	if len(raw) < 28 {
		return TreeDocument{}, fmt.Errorf("persistence: private key serialization too short")
	}
	lmsAlgID := uint32(raw[0])<<24 | uint32(raw[1])<<16 | uint32(raw[2])<<8 | uint32(raw[3])
	otsAlgID := uint32(raw[4])<<24 | uint32(raw[5])<<16 | uint32(raw[6])<<8 | uint32(raw[7])
	q := uint32(raw[8])<<24 | uint32(raw[9])<<16 | uint32(raw[10])<<8 | uint32(raw[11])
	id := raw[12:28]
	seed := raw[28:]

	d := TreeDocument{
		FormatVersion: int(formatVersion),
		LmsAlgID:      lmsAlgID,
		OtsAlgID:      otsAlgID,
		Q:             q,
		ID:            hex.EncodeToString(id),
		Seed:          hex.EncodeToString(seed),
	}
	d.Checksum = d.computeChecksum()
	return d, nil
}

// PrivateKey reconstructs the in-memory private key this document
// represents, regenerating its authentication tree from the seed. q is
// set directly from the document via LmsPrivateKeyFromBytes rather than
// replayed one signature at a time: a replay would cost one full OTS
// signature (every Winternitz chain, walked to completion) per leaf
// already consumed, which on a reloaded signer is O(q) work just to
// reach the leaf it's about to use.
func (d *TreeDocument) PrivateKey() (lms.LmsPrivateKey, error) {
	raw, err := d.toPrivateKeyBytes()
	if err != nil {
		return lms.LmsPrivateKey{}, err
	}
	return lms.LmsPrivateKeyFromBytes(raw)
}

// toPrivateKeyBytes checksum-validates d and reconstructs the exact byte
// layout lms.LmsPrivateKey.ToBytes produces: lms_alg_id(4) ots_alg_id(4)
// q(4) id(16) seed(...). Both PrivateKey and the tree-cache loader in
// treecache.go parse this layout, the former to rebuild the tree from
// seed, the latter to reuse an already-materialized one.
func (d *TreeDocument) toPrivateKeyBytes() ([]byte, error) {
	if d.computeChecksum() != d.Checksum {
		return nil, ErrCorruptState
	}

	idBytes, err := hex.DecodeString(d.ID)
	if err != nil {
		return nil, fmt.Errorf("persistence: invalid id hex: %w", err)
	}
	if len(idBytes) != int(common.IDLen) {
		return nil, fmt.Errorf("persistence: id is %d bytes, want %d", len(idBytes), common.IDLen)
	}
	seed, err := hex.DecodeString(d.Seed)
	if err != nil {
		return nil, fmt.Errorf("persistence: invalid seed hex: %w", err)
	}

	raw := make([]byte, 0, 28+len(seed))
	var u32 [4]byte
	binary.BigEndian.PutUint32(u32[:], d.LmsAlgID)
	raw = append(raw, u32[:]...)
	binary.BigEndian.PutUint32(u32[:], d.OtsAlgID)
	raw = append(raw, u32[:]...)
	binary.BigEndian.PutUint32(u32[:], d.Q)
	raw = append(raw, u32[:]...)
	raw = append(raw, idBytes...)
	raw = append(raw, seed...)
	return raw, nil
}

// WriteTreeDocument writes d as indented JSON to path.
func WriteTreeDocument(path string, d *TreeDocument) error {
	raw, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("persistence: failed to marshal tree document: %w", err)
	}
	if err := os.WriteFile(path, raw, 0600); err != nil {
		return fmt.Errorf("persistence: failed to write tree document: %w", err)
	}
	return nil
}

// ReadTreeDocument reads and checksum-validates a TreeDocument from path.
func ReadTreeDocument(path string) (*TreeDocument, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("persistence: failed to read tree document: %w", err)
	}
	var d TreeDocument
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("persistence: failed to parse tree document: %w", err)
	}
	if d.computeChecksum() != d.Checksum {
		return nil, ErrCorruptState
	}
	return &d, nil
}
