package persistence

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/edsrzf/mmap-go"

	"github.com/ericeilertson/lms-hss/lms/lms"
)

const treeCacheMagic = "lmstree1"

// TreeCache memory-maps a precomputed LMS authentication tree so a
// signer process can reload a large tree (height 20+ trees run into the
// tens of millions of nodes) without regenerating every leaf's LM-OTS
// key on startup.
type TreeCache struct {
	path     string
	file     *os.File
	mapped   mmap.MMap
	nodeSize int
	nodeCnt  int
}

// OpenTreeCache opens an existing cache file at path for reading, or
// reports that none exists yet via exists=false.
func OpenTreeCache(path string) (cache *TreeCache, exists bool, err error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0600)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("persistence: failed to open tree cache: %w", err)
	}

	m, err := mmap.Map(f, mmap.RDWR, 0)
	if err != nil {
		f.Close()
		return nil, false, fmt.Errorf("persistence: failed to mmap tree cache: %w", err)
	}

	c := &TreeCache{path: path, file: f, mapped: m}
	if err := c.parseHeader(); err != nil {
		c.Close()
		return nil, false, err
	}
	return c, true, nil
}

func (c *TreeCache) parseHeader() error {
	if len(c.mapped) < len(treeCacheMagic)+8+4+4+8 {
		return fmt.Errorf("%w: tree cache too short", ErrCorruptState)
	}
	if string(c.mapped[:len(treeCacheMagic)]) != treeCacheMagic {
		return fmt.Errorf("%w: tree cache magic mismatch", ErrCorruptState)
	}
	off := len(treeCacheMagic)
	c.nodeSize = int(binary.BigEndian.Uint32(c.mapped[off : off+4]))
	off += 4
	c.nodeCnt = int(binary.BigEndian.Uint32(c.mapped[off : off+4]))
	off += 4

	payload := c.mapped[:off+c.nodeSize*c.nodeCnt]
	wantSum := binary.BigEndian.Uint64(c.mapped[off+c.nodeSize*c.nodeCnt:])
	if xxhash.Sum64(payload) != wantSum {
		return fmt.Errorf("%w: tree cache checksum mismatch", ErrCorruptState)
	}
	return nil
}

// Nodes returns the cached authentication tree as a slice of node
// slices, each backed directly by the mapped file (copy before mutating
// or before calling Close).
func (c *TreeCache) Nodes() [][]byte {
	off := len(treeCacheMagic) + 8
	nodes := make([][]byte, c.nodeCnt)
	for i := 0; i < c.nodeCnt; i++ {
		start := off + i*c.nodeSize
		nodes[i] = c.mapped[start : start+c.nodeSize]
	}
	return nodes
}

// WriteTreeCache creates or overwrites the cache file at path with the
// given tree nodes (all of the same width).
func WriteTreeCache(path string, nodes [][]byte) error {
	if len(nodes) == 0 {
		return fmt.Errorf("persistence: cannot cache an empty tree")
	}
	nodeSize := len(nodes[0])

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("persistence: failed to create tree cache: %w", err)
	}
	defer f.Close()

	var header []byte
	header = append(header, treeCacheMagic...)
	var u32 [4]byte
	binary.BigEndian.PutUint32(u32[:], uint32(nodeSize))
	header = append(header, u32[:]...)
	binary.BigEndian.PutUint32(u32[:], uint32(len(nodes)))
	header = append(header, u32[:]...)

	if _, err := f.Write(header); err != nil {
		return fmt.Errorf("persistence: failed to write tree cache header: %w", err)
	}
	sum := xxhash.New()
	sum.Write(header)
	for _, n := range nodes {
		if len(n) != nodeSize {
			return fmt.Errorf("persistence: inconsistent tree node width")
		}
		if _, err := f.Write(n); err != nil {
			return fmt.Errorf("persistence: failed to write tree cache node: %w", err)
		}
		sum.Write(n)
	}

	var sumBytes [8]byte
	binary.BigEndian.PutUint64(sumBytes[:], sum.Sum64())
	if _, err := f.Write(sumBytes[:]); err != nil {
		return fmt.Errorf("persistence: failed to write tree cache checksum: %w", err)
	}
	return f.Sync()
}

// LoadPrivateKey reconstructs the private key d describes, the same as
// (*TreeDocument).PrivateKey, except that when a tree cache file already
// exists at cachePath it is mmap'd and reused directly instead of
// regenerating the tree from the seed — skipping a full LM-OTS keygen
// and Winternitz-chain walk for every leaf. When no cache exists yet,
// it falls back to the normal seed-based rebuild and writes the
// resulting tree to cachePath so the next call can mmap it.
func LoadPrivateKey(d *TreeDocument, cachePath string) (lms.LmsPrivateKey, error) {
	raw, err := d.toPrivateKeyBytes()
	if err != nil {
		return lms.LmsPrivateKey{}, err
	}

	cache, exists, err := OpenTreeCache(cachePath)
	if err != nil {
		return lms.LmsPrivateKey{}, err
	}
	if exists {
		defer cache.Close()
		// The key outlives the mapping, so it gets its own copy of each node.
		nodes := cache.Nodes()
		for i, n := range nodes {
			nodes[i] = append([]byte(nil), n...)
		}
		priv, err := lms.LmsPrivateKeyFromCachedTree(raw, nodes)
		if err != nil {
			return lms.LmsPrivateKey{}, fmt.Errorf("persistence: tree cache %s is incompatible with tree document: %w", cachePath, err)
		}
		return priv, nil
	}

	priv, err := lms.LmsPrivateKeyFromBytes(raw)
	if err != nil {
		return lms.LmsPrivateKey{}, err
	}
	if err := WriteTreeCache(cachePath, priv.Tree()); err != nil {
		return lms.LmsPrivateKey{}, fmt.Errorf("persistence: failed to seed tree cache: %w", err)
	}
	return priv, nil
}

// Close unmaps and closes the underlying cache file.
func (c *TreeCache) Close() error {
	var err error
	if c.mapped != nil {
		if err2 := c.mapped.Unmap(); err2 != nil {
			err = fmt.Errorf("persistence: failed to unmap tree cache: %w", err2)
		}
		c.mapped = nil
	}
	if c.file != nil {
		if err2 := c.file.Close(); err2 != nil && err == nil {
			err = fmt.Errorf("persistence: failed to close tree cache: %w", err2)
		}
		c.file = nil
	}
	return err
}
