package persistence

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/hashicorp/go-multierror"
	"github.com/nightlyone/lockfile"

	"github.com/ericeilertson/lms-hss/lms/common"
)

const formatVersion uint8 = 1

// SignerState durably tracks one LMS private key's leaf counter q across
// process restarts. It is backed by a single file plus a sibling lock
// file, following the same borrow-then-commit discipline a crash-safe
// signer needs: BorrowQ persists the new high-water mark before handing
// out leaf indices, so a crash between borrowing and signing only ever
// burns unused leaves, never reuses one that already produced a
// signature.
type SignerState struct {
	flock lockfile.Lockfile
	path  string

	initialized bool
	closed      bool

	lmsAlgID uint32
	otsAlgID uint32
	id       [16]byte
	seed     []byte
	q        uint32
	borrowed uint32
}

// NewSignerState opens (or prepares to create) the state file at path,
// acquiring an exclusive lock. If the file already exists its contents
// are loaded and checksum-validated. Call Reset on a state where
// Initialized() is false before using it.
func NewSignerState(path string) (*SignerState, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("persistence: %w", err)
	}

	s := &SignerState{path: absPath}

	lockPath := absPath + ".lock"
	s.flock, err = lockfile.New(lockPath)
	if err != nil {
		return nil, fmt.Errorf("persistence: failed to create lockfile %s: %w", lockPath, err)
	}
	if err := s.flock.TryLock(); err != nil {
		if _, ok := err.(interface{ Temporary() bool }); ok {
			return nil, fmt.Errorf("%w: %s", ErrLocked, absPath)
		}
		return nil, fmt.Errorf("persistence: %w", err)
	}

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return s, nil
	}

	if err := s.load(); err != nil {
		return s, err
	}
	return s, nil
}

// Initialized reports whether Reset has been called (directly, or by
// loading an existing state file).
func (s *SignerState) Initialized() bool {
	return s.initialized
}

// Reset writes a fresh state file for a newly generated private key,
// with the leaf counter at zero.
func (s *SignerState) Reset(lmsAlgID, otsAlgID uint32, id [16]byte, seed []byte) error {
	if s.closed {
		return ErrClosed
	}
	s.lmsAlgID = lmsAlgID
	s.otsAlgID = otsAlgID
	s.id = id
	s.seed = append([]byte(nil), seed...)
	s.q = 0
	s.borrowed = 0
	s.initialized = true
	return s.write()
}

// BorrowQ persists q+amount as the new floor before returning the
// current q, then returns [q, q+amount). The caller may freely use any
// subset of this range; call Commit with the first unused index once
// done so a future BorrowQ doesn't believe signatures were lost that
// never happened.
func (s *SignerState) BorrowQ(amount uint32) (uint32, error) {
	if s.closed {
		return 0, ErrClosed
	}
	if !s.initialized {
		return 0, ErrNotInitialized
	}
	params, err := common.LookupLms(s.lmsAlgID)
	if err != nil {
		return 0, err
	}
	if uint64(s.q)+uint64(amount) > uint64(1)<<params.H {
		return 0, fmt.Errorf("%w: q=%d, amount=%d", common.ErrQOutOfRange, s.q, amount)
	}

	start := s.q
	s.borrowed += amount
	s.q += amount

	if err := s.write(); err != nil {
		// Roll back in memory; the file on disk was never updated.
		s.borrowed -= amount
		s.q -= amount
		return 0, err
	}
	return start, nil
}

// Commit records that firstUnused is the first leaf index that was
// never actually used to sign, clearing the borrowed-but-unaccounted
// window that BorrowQ opened.
func (s *SignerState) Commit(firstUnused uint32) error {
	if s.closed {
		return ErrClosed
	}
	if !s.initialized {
		return ErrNotInitialized
	}

	oldBorrowed, oldQ := s.borrowed, s.q
	s.borrowed = 0
	s.q = firstUnused

	if err := s.write(); err != nil {
		s.borrowed, s.q = oldBorrowed, oldQ
		return err
	}
	return nil
}

// Q returns the current leaf counter and the number of leaves borrowed
// since the last Commit. A nonzero lostLeaves after an unclean shutdown
// means those leaf indices were reserved but their disposition is
// unknown, so the safe caller treats them as burned rather than reused.
func (s *SignerState) Q() (q uint32, lostLeaves uint32) {
	return s.q, s.borrowed
}

// Algorithms returns the LMS and LM-OTS algorithm ids this state was
// initialized with.
func (s *SignerState) Algorithms() (lmsAlgID, otsAlgID uint32) {
	return s.lmsAlgID, s.otsAlgID
}

// ID returns the tree identifier this state was initialized with.
func (s *SignerState) ID() [16]byte {
	return s.id
}

// Seed returns the LMS seed this state was initialized with.
func (s *SignerState) Seed() []byte {
	return append([]byte(nil), s.seed...)
}

func (s *SignerState) load() error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("persistence: failed to open state file: %w", err)
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("persistence: failed to read state file: %w", err)
	}
	if len(raw) < 9+4+4+16+4+4+2+8 {
		return fmt.Errorf("%w: truncated", ErrCorruptState)
	}

	payload := raw[:len(raw)-8]
	wantSum := binary.BigEndian.Uint64(raw[len(raw)-8:])
	if xxhash.Sum64(payload) != wantSum {
		return fmt.Errorf("%w: checksum mismatch", ErrCorruptState)
	}

	cur := payload
	_ = cur[0] // format version, currently unused beyond presence
	cur = cur[1:]
	s.lmsAlgID = binary.BigEndian.Uint32(cur[0:4])
	s.otsAlgID = binary.BigEndian.Uint32(cur[4:8])
	copy(s.id[:], cur[8:24])
	s.q = binary.BigEndian.Uint32(cur[24:28])
	s.borrowed = binary.BigEndian.Uint32(cur[28:32])
	seedLen := binary.BigEndian.Uint16(cur[32:34])
	if len(cur) < 34+int(seedLen) {
		return fmt.Errorf("%w: truncated seed", ErrCorruptState)
	}
	s.seed = append([]byte(nil), cur[34:34+int(seedLen)]...)

	s.initialized = true
	return nil
}

// write durably replaces the state file: write-temp, fsync, rename,
// fsync-parent-directory, matching the write discipline this kind of
// crash-sensitive state needs.
func (s *SignerState) write() error {
	var payload []byte
	payload = append(payload, byte(formatVersion))

	var u32 [4]byte
	binary.BigEndian.PutUint32(u32[:], s.lmsAlgID)
	payload = append(payload, u32[:]...)
	binary.BigEndian.PutUint32(u32[:], s.otsAlgID)
	payload = append(payload, u32[:]...)
	payload = append(payload, s.id[:]...)
	binary.BigEndian.PutUint32(u32[:], s.q)
	payload = append(payload, u32[:]...)
	binary.BigEndian.PutUint32(u32[:], s.borrowed)
	payload = append(payload, u32[:]...)

	var u16 [2]byte
	binary.BigEndian.PutUint16(u16[:], uint16(len(s.seed)))
	payload = append(payload, u16[:]...)
	payload = append(payload, s.seed...)

	var sum [8]byte
	binary.BigEndian.PutUint64(sum[:], xxhash.Sum64(payload))
	payload = append(payload, sum[:]...)

	tmpPath := s.path + ".tmp"
	tmpFile, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("persistence: failed to create temp state file: %w", err)
	}
	if _, err = tmpFile.Write(payload); err != nil {
		tmpFile.Close()
		return fmt.Errorf("persistence: failed to write temp state file: %w", err)
	}
	if err = tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("persistence: failed to sync temp state file: %w", err)
	}
	if err = tmpFile.Close(); err != nil {
		return fmt.Errorf("persistence: failed to close temp state file: %w", err)
	}
	if err = os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("persistence: failed to replace state file: %w", err)
	}

	dir, err := os.Open(filepath.Dir(s.path))
	if err != nil {
		return fmt.Errorf("persistence: failed to open parent dir for fsync: %w", err)
	}
	defer dir.Close()
	if err = dir.Sync(); err != nil {
		return fmt.Errorf("persistence: failed to fsync parent dir: %w", err)
	}

	return nil
}

// Close releases the lock on the state file. The state must not be used
// afterward.
func (s *SignerState) Close() error {
	var result error
	if err := s.flock.Unlock(); err != nil {
		result = multierror.Append(result, fmt.Errorf("persistence: failed to release lock: %w", err))
	}
	s.closed = true
	return result
}
