package collections

import (
	"electionledger/contexts/election-operations/ballot-ledger/domain/entities"
	domainerrors "electionledger/contexts/election-operations/ballot-ledger/domain/errors"
)

const DefaultVoterBuckets = 1024

type voterSlot struct {
	key    string
	status entities.VoterStatus
}

// VoterTable maps an opaque voter key to its status record using a
// fixed-bucket-count hash table with separate chaining. The hash is a plain
// byte sum modulo the bucket count: deterministic, total, and deliberately
// simple. The table never resizes; sizing the bucket count at or above the
// expected voter count keeps average lookups O(1), and sustained load above
// that degrades chains toward linear scans. That degradation is part of the
// contract, visible through LoadFactor and MaxChainLength.
type VoterTable struct {
	buckets [][]voterSlot
	size    int
}

func NewVoterTable(bucketCount int) *VoterTable {
	if bucketCount <= 0 {
		bucketCount = DefaultVoterBuckets
	}
	return &VoterTable{
		buckets: make([][]voterSlot, bucketCount),
	}
}

func (t *VoterTable) bucketFor(key string) int {
	sum := 0
	for i := 0; i < len(key); i++ {
		sum += int(key[i])
	}
	return sum % len(t.buckets)
}

func (t *VoterTable) Insert(key string, status entities.VoterStatus) error {
	index := t.bucketFor(key)
	for _, slot := range t.buckets[index] {
		if slot.key == key {
			return domainerrors.ErrDuplicateKey
		}
	}
	t.buckets[index] = append(t.buckets[index], voterSlot{key: key, status: status})
	t.size++
	return nil
}

func (t *VoterTable) Search(key string) (entities.VoterStatus, bool) {
	index := t.bucketFor(key)
	for _, slot := range t.buckets[index] {
		if slot.key == key {
			return slot.status, true
		}
	}
	return entities.VoterStatus{}, false
}

func (t *VoterTable) Update(key string, status entities.VoterStatus) error {
	index := t.bucketFor(key)
	for i := range t.buckets[index] {
		if t.buckets[index][i].key == key {
			t.buckets[index][i].status = status
			return nil
		}
	}
	return domainerrors.ErrKeyNotFound
}

func (t *VoterTable) Delete(key string) error {
	index := t.bucketFor(key)
	chain := t.buckets[index]
	for i := range chain {
		if chain[i].key == key {
			t.buckets[index] = append(chain[:i], chain[i+1:]...)
			t.size--
			return nil
		}
	}
	return domainerrors.ErrKeyNotFound
}

func (t *VoterTable) Len() int {
	return t.size
}

func (t *VoterTable) Buckets() int {
	return len(t.buckets)
}

// LoadFactor is items over buckets; it predicts average chain length.
func (t *VoterTable) LoadFactor() float64 {
	return float64(t.size) / float64(len(t.buckets))
}

func (t *VoterTable) MaxChainLength() int {
	longest := 0
	for _, chain := range t.buckets {
		if len(chain) > longest {
			longest = len(chain)
		}
	}
	return longest
}
