// Package ids defines the stable, cross-document identifiers the prefab
// engine uses. ECS entity handles (ecs.Entity) are ephemeral and per-world;
// these 16-byte UUIDs are the only identities that survive serialization.
package ids

import "github.com/google/uuid"

// PrefabID identifies a prefab document across loads and cooks.
type PrefabID uuid.UUID

// EntityID is the persistent name of an entity, stable across a prefab's
// serialized lifetime even though its backing ecs.Entity handle changes
// every time the prefab is loaded or cooked.
type EntityID uuid.UUID

// ComponentTypeID is bound to a component type at registration time and
// never changes thereafter.
type ComponentTypeID uuid.UUID

// NewPrefabID mints a fresh random PrefabID.
func NewPrefabID() PrefabID { return PrefabID(uuid.New()) }

// NewEntityID mints a fresh random EntityID.
func NewEntityID() EntityID { return EntityID(uuid.New()) }

// NewComponentTypeID mints a fresh random ComponentTypeID.
func NewComponentTypeID() ComponentTypeID { return ComponentTypeID(uuid.New()) }

func (id PrefabID) String() string        { return uuid.UUID(id).String() }
func (id EntityID) String() string        { return uuid.UUID(id).String() }
func (id ComponentTypeID) String() string { return uuid.UUID(id).String() }

// IsZero reports whether id is the nil UUID.
func (id PrefabID) IsZero() bool { return id == PrefabID{} }

// IsZero reports whether id is the nil UUID.
func (id EntityID) IsZero() bool { return id == EntityID{} }

// IsZero reports whether id is the nil UUID.
func (id ComponentTypeID) IsZero() bool { return id == ComponentTypeID{} }

// ParsePrefabID parses a canonical UUID string into a PrefabID.
func ParsePrefabID(s string) (PrefabID, error) {
	u, err := uuid.Parse(s)
	return PrefabID(u), err
}

// ParseEntityID parses a canonical UUID string into an EntityID.
func ParseEntityID(s string) (EntityID, error) {
	u, err := uuid.Parse(s)
	return EntityID(u), err
}

// ParseComponentTypeID parses a canonical UUID string into a ComponentTypeID.
func ParseComponentTypeID(s string) (ComponentTypeID, error) {
	u, err := uuid.Parse(s)
	return ComponentTypeID(u), err
}

// MarshalText implements encoding.TextMarshaler so these ids round-trip
// through the ghodss/yaml-backed document format as plain UUID strings.
func (id PrefabID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *PrefabID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }

// MarshalText implements encoding.TextMarshaler.
func (id EntityID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *EntityID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }

// MarshalText implements encoding.TextMarshaler.
func (id ComponentTypeID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ComponentTypeID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
