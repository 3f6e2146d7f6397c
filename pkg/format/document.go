// Package format is the prefab engine's native text format: an
// event-driven traversal protocol over a nested YAML document, populating
// or emitting a pkg/prefabmodel.Model. Reader is the event sink a
// document walk drives; Emitter is the query surface a serializer pulls
// from; ReadDocument and EmitDocument are the concrete drivers connecting
// both to the Document AST. Component and override payloads are captured
// as encoding/json.RawMessage so re-emission is byte-stable without the
// target component type needing to be registered in this process.
package format

import (
	"encoding/json"

	"github.com/ghodss/yaml"

	"github.com/edwinsyarief/prefab/pkg/ids"
)

// ComponentEntry is one `(type: <uuid>, data: <value>)` pair under an
// entity.
type ComponentEntry struct {
	Type ids.ComponentTypeID `json:"type"`
	Data json.RawMessage     `json:"data"`
}

// EntityDoc is one `Entity(Entity(id: ..., components: [...]))` object.
type EntityDoc struct {
	ID         ids.EntityID     `json:"id"`
	Components []ComponentEntry `json:"components,omitempty"`
}

// OverrideEntry is one `(component_type: <uuid>, diff: <patch>)` pair.
type OverrideEntry struct {
	ComponentType ids.ComponentTypeID `json:"component_type"`
	Diff          json.RawMessage     `json:"diff"`
}

// EntityOverride is one `(entity_id: ..., component_overrides: [...])`
// entry under a PrefabRef.
type EntityOverride struct {
	EntityID           ids.EntityID    `json:"entity_id"`
	ComponentOverrides []OverrideEntry `json:"component_overrides,omitempty"`
}

// PrefabRefDoc is one `PrefabRef((prefab_id: ..., entity_overrides: [...]))`
// object.
type PrefabRefDoc struct {
	PrefabID        ids.PrefabID     `json:"prefab_id"`
	EntityOverrides []EntityOverride `json:"entity_overrides,omitempty"`
}

// ObjectDoc is one element of a Document's `objects` sequence. Exactly
// one of Entity/PrefabRef is set.
type ObjectDoc struct {
	Entity    *EntityDoc    `json:"entity,omitempty"`
	PrefabRef *PrefabRefDoc `json:"prefab_ref,omitempty"`
}

// Document is the top-level `Prefab(id: ..., objects: [...])` node.
type Document struct {
	ID      ids.PrefabID `json:"id"`
	Objects []ObjectDoc  `json:"objects,omitempty"`
}

// Marshal renders doc to the native text format.
func Marshal(doc *Document) ([]byte, error) {
	return yaml.Marshal(doc)
}

// Unmarshal parses the native text format into doc.
func Unmarshal(data []byte, doc *Document) error {
	return yaml.Unmarshal(data, doc)
}
