/*
idgen.go - Operation id generation

PURPOSE:
  Operation ids come from a random-bits generator rather than storage
  auto-assignment, so an operation's identity exists before the insert
  and the re-read after commit can address it directly.

  IDGenerator is injectable: production uses the low 64 bits of a v4
  UUID (signed, so negative ids are legal), tests use a sequential
  generator for deterministic assertions.
*/
package ledger

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator produces unique operation ids.
type IDGenerator interface {
	NextID() OperationID
}

// =============================================================================
// UUID GENERATOR - Production default
// =============================================================================

// UUIDGenerator derives ids from the least significant 64 bits of a
// random UUID.
type UUIDGenerator struct{}

func (UUIDGenerator) NextID() OperationID {
	u := uuid.New()
	return OperationID(int64(binary.BigEndian.Uint64(u[8:])))
}

// =============================================================================
// SEQUENTIAL GENERATOR - Deterministic, for tests
// =============================================================================

// SequentialGenerator hands out 1, 2, 3, ... and is safe for concurrent
// use.
type SequentialGenerator struct {
	last int64
}

func (g *SequentialGenerator) NextID() OperationID {
	return OperationID(atomic.AddInt64(&g.last, 1))
}
