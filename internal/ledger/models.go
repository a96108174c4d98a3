package ledger

import (
	"time"

	"vigil/pkg/domain"
)

// Kind classifies a terminal event committed to the ledger.
type Kind string

const (
	KindGenesis    Kind = "genesis"
	KindVerdict    Kind = "verdict"
	KindAlert      Kind = "alert"
	KindAttendance Kind = "attendance"
	KindRedaction  Kind = "redaction"
)

// Record is what callers hand to Append: an already serialized payload plus
// the metadata the ledger needs for sequencing and crypto-shredding.
type Record struct {
	Kind      Kind
	Timestamp time.Time
	// Identity scopes the payload's encryption key. Nil-uuid payloads are
	// stored in the clear; they carry no personal fields.
	Identity domain.PersonID
	Payload  []byte
}

// Entry is one committed ledger row. Once its batch is sealed the entry is
// immutable; ContentHash covers the stored payload bytes, so redaction
// (which only destroys a key) never invalidates it.
type Entry struct {
	Sequence   uint64
	BatchID    domain.BatchID
	BatchIndex int
	Kind       Kind
	Identity   domain.PersonID
	Timestamp  time.Time
	// Payload holds the stored bytes: ciphertext when Encrypted, plain JSON
	// otherwise.
	Payload   []byte
	Encrypted bool
	// ContentHash is the domain-separated leaf hash of Payload.
	ContentHash []byte
	// PayloadRef addresses the payload in external storage.
	PayloadRef string
}

// Commit summarizes a sealed batch. Recomputing the tree over the same
// entries must reproduce RootHash bit for bit.
type Commit struct {
	BatchID    domain.BatchID
	RootHash   []byte
	EntryCount int
	FirstSeq   uint64
	SealedAt   time.Time
}
