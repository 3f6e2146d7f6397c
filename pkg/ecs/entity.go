package ecs

// Entity is an ephemeral, per-world handle: an index into the world's
// metadata table plus a version guarding against reuse of recycled
// indices. Cross-document identity is carried separately, by ids.EntityID
// and the bidirectional maps in pkg/prefabmodel.
type Entity struct {
	ID      uint32
	Version uint32
}

// entityMeta locates a live entity's row. A nil arch marks the slot as
// dead; a removed entity's slot keeps its last version so the next handle
// minted for the recycled id gets a higher one.
type entityMeta struct {
	arch    *Archetype
	row     int
	version uint32
}
