package model

import "time"

// WriteMode selects how a write is replicated to the Secondary store.
type WriteMode string

const (
	// WriteSync blocks until both stores are updated.
	WriteSync WriteMode = "sync"
	// WriteAsync returns after the Primary write; the Secondary update is
	// deferred to the replication worker.
	WriteAsync WriteMode = "async"
)

// Valid reports whether the mode is one of the supported values.
func (m WriteMode) Valid() bool {
	return m == WriteSync || m == WriteAsync
}

// ReadSource selects which store serves a read.
type ReadSource string

const (
	ReadPrimary   ReadSource = "primary"
	ReadSecondary ReadSource = "secondary"
)

// Valid reports whether the source is one of the supported values.
func (s ReadSource) Valid() bool {
	return s == ReadPrimary || s == ReadSecondary
}

// OpKind is the kind of a queued replication operation.
type OpKind string

const (
	OpCreate OpKind = "create"
	OpUpdate OpKind = "update"
	OpDelete OpKind = "delete"
)

// AsyncOp is a pending operation against the Secondary store. Ops live
// only in the in-memory queue between enqueue and worker execution; they
// are not durable and are lost on process restart.
type AsyncOp struct {
	Kind       OpKind
	VideoID    string
	Video      *Video      // full record, create only
	Patch      *VideoPatch // present fields, update only
	EnqueuedAt time.Time
}

// DiscrepancyIssue classifies a single primary/secondary divergence.
type DiscrepancyIssue string

const (
	MissingOnSecondary DiscrepancyIssue = "missing_on_secondary"
	ViewCountMismatch  DiscrepancyIssue = "view_count_mismatch"
)

// Discrepancy is one divergent record found by a consistency check.
type Discrepancy struct {
	VideoID string           `json:"video_id"`
	Issue   DiscrepancyIssue `json:"issue"`
	Detail  string           `json:"detail,omitempty"`
}

// ConsistencyReport is the result of comparing the Primary and Secondary
// stores. It is produced fresh on each audit and never persisted.
type ConsistencyReport struct {
	PrimaryCount   int64         `json:"primary_count"`
	SecondaryCount int64         `json:"secondary_count"`
	CountMatch     bool          `json:"count_match"`
	Discrepancies  []Discrepancy `json:"discrepancies"`
	Consistent     bool          `json:"consistent"`
	CheckedAt      time.Time     `json:"checked_at"`
}

// ReplicationStatus is the operational snapshot returned by the
// coordinator's status operation.
type ReplicationStatus struct {
	CacheConnected     bool               `json:"cache_connected"`
	CachedPopularCount int64              `json:"cached_popular_count"`
	QueueDepth         int64              `json:"queue_depth"`
	LastReport         *ConsistencyReport `json:"last_consistency_report,omitempty"`
}
