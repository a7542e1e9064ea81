package index

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/gob"
	"encoding/hex"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/Aman-CERP/coderag/internal/chunk"
	cerrors "github.com/Aman-CERP/coderag/internal/errors"
	"github.com/Aman-CERP/coderag/internal/store"
)

const snapshotVersion = 2

// snapshot is the unit of publication: a corpus and the scorer fit on it.
// Readers pin it with acquire; the scorer is closed once the snapshot is
// retired and the last reader has released it.
type snapshot struct {
	corpus []chunk.Chunk
	scorer store.LexicalScorer

	refs      atomic.Int64
	retired   atomic.Bool
	closeOnce sync.Once
}

func (s *snapshot) release() {
	if s.refs.Add(-1) == 0 && s.retired.Load() {
		s.closeScorer()
	}
}

// retire marks a snapshot that is no longer published.
func (s *snapshot) retire() {
	s.retired.Store(true)
	if s.refs.Load() == 0 {
		s.closeScorer()
	}
}

func (s *snapshot) closeScorer() {
	s.closeOnce.Do(func() {
		if s.scorer != nil {
			_ = s.scorer.Close()
		}
	})
}

// persistedSnapshot is the on-disk scorer snapshot. Digest identifies the
// ordered corpus the scorer was fit on.
type persistedSnapshot struct {
	Version int
	Digest  string
	Scorer  []byte
}

// corpusDigest hashes the identity and content of every chunk in order.
func corpusDigest(corpus []chunk.Chunk) string {
	h := sha256.New()
	var n [8]byte
	for _, c := range corpus {
		for _, field := range []string{c.FilePath, strconv.Itoa(c.StartLine), strconv.Itoa(c.EndLine), c.Content} {
			binary.LittleEndian.PutUint64(n[:], uint64(len(field)))
			h.Write(n[:])
			h.Write([]byte(field))
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

func encodeSnapshot(corpus []chunk.Chunk, scorer store.LexicalScorer) ([]byte, error) {
	data, err := scorer.Snapshot()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	snap := persistedSnapshot{Version: snapshotVersion, Digest: corpusDigest(corpus), Scorer: data}
	if err := gob.NewEncoder(&buf).Encode(snap); err != nil {
		return nil, cerrors.New(cerrors.ErrCodeInternal, "encode index snapshot", err)
	}
	return buf.Bytes(), nil
}

func decodeSnapshot(data []byte) (persistedSnapshot, error) {
	var snap persistedSnapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&snap); err != nil {
		return persistedSnapshot{}, cerrors.New(cerrors.ErrCodeSnapshotCorrupt, "decode index snapshot", err)
	}
	if snap.Version != snapshotVersion {
		return persistedSnapshot{}, cerrors.New(cerrors.ErrCodeSnapshotCorrupt, "unsupported index snapshot version", nil).
			WithDetail("version", strconv.Itoa(snap.Version))
	}
	return snap, nil
}
