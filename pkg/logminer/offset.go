package logminer

// Offset is the durable position record persisted by the connector host
// between restarts. Its only durability invariant is that Scn and
// CommitScn are monotone non-decreasing across successive writes.
type Offset struct {
	Scn               SCN
	CommitScn         *SCN
	LcrPosition       string
	SnapshotCompleted bool
}
