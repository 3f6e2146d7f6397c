package format

import (
	"github.com/edwinsyarief/prefab/pkg/ecs"
	"github.com/edwinsyarief/prefab/pkg/ids"
	"github.com/edwinsyarief/prefab/pkg/prefabmodel"
)

// EntityRef is the on-the-wire shape a component field uses to reference
// another entity in the same prefab. Components that hold an ecs.Entity
// field should serialize it as an EntityRef via ToEntityRef/FromEntityRef
// rather than the raw handle, since ecs.Entity is only valid within one
// World and has no meaning once cooked or round-tripped through text.
type EntityRef struct {
	ID ids.EntityID `json:"id"`
}

// EntitySerializer resolves entity-valued component fields against a
// prefab's bidirectional EntityID<->handle map during one emission or
// read, minting a fresh EntityID for any handle the map hasn't seen yet
// so repeated references stay consistent.
type EntitySerializer struct {
	entities *prefabmodel.EntityMap
}

// NewEntitySerializer returns a serializer backed by entities.
func NewEntitySerializer(entities *prefabmodel.EntityMap) *EntitySerializer {
	return &EntitySerializer{entities: entities}
}

// ToEntityRef returns e's EntityRef, minting and binding a fresh EntityID
// if e has no assigned id yet.
func (s *EntitySerializer) ToEntityRef(e ecs.Entity) EntityRef {
	id, ok := s.entities.ByEntity(e)
	if !ok {
		id = ids.NewEntityID()
		s.entities.Bind(id, e)
	}
	return EntityRef{ID: id}
}

// FromEntityRef resolves ref back to a world handle, if one is bound.
func (s *EntitySerializer) FromEntityRef(ref EntityRef) (ecs.Entity, bool) {
	return s.entities.ByID(ref.ID)
}
