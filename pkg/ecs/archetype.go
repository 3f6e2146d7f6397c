package ecs

// Archetype holds every entity that carries one exact set of component
// types, laid out columnarly: one byte column per component type, one row
// per entity, rows aligned across columns and with the entities slice.
type Archetype struct {
	mask     Mask
	ids      []ComponentID
	cols     [][]byte
	entities []Entity
	slot     [maxComponentTypes]int16
}

func newArchetype(mask Mask) *Archetype {
	a := &Archetype{mask: mask, ids: mask.componentIDs()}
	a.cols = make([][]byte, len(a.ids))
	for i := range a.slot {
		a.slot[i] = -1
	}
	for i, id := range a.ids {
		a.slot[id] = int16(i)
	}
	return a
}

// Mask returns the archetype's component set.
func (self *Archetype) Mask() Mask { return self.mask }

// ComponentIDs returns the archetype's component types in ascending id
// order.
func (self *Archetype) ComponentIDs() []ComponentID { return self.ids }

// Entities returns the archetype's entity rows. The slice is invalidated
// by any mutating World call; callers must not retain it.
func (self *Archetype) Entities() []Entity { return self.entities }

// Len returns the number of entities currently stored.
func (self *Archetype) Len() int { return len(self.entities) }

// cell returns the byte range backing one component value, by column slot
// and row.
func (self *Archetype) cell(col int, row int) []byte {
	size := sizeOf(self.ids[col])
	return self.cols[col][row*size : (row+1)*size]
}

// appendRow grows every column by one zeroed row, appends e, and returns
// the new row index.
func (self *Archetype) appendRow(e Entity) int {
	row := len(self.entities)
	self.entities = append(self.entities, e)
	for i, id := range self.ids {
		self.cols[i] = append(self.cols[i], make([]byte, sizeOf(id))...)
	}
	return row
}

// swapRemoveRow removes one row by moving the last row into its place.
// It returns the entity that was relocated, or ok == false when the
// removed row was the last one.
func (self *Archetype) swapRemoveRow(row int) (moved Entity, ok bool) {
	last := len(self.entities) - 1
	moved = self.entities[last]
	self.entities[row] = moved
	self.entities = self.entities[:last]
	for i := range self.cols {
		size := sizeOf(self.ids[i])
		col := self.cols[i]
		copy(col[row*size:(row+1)*size], col[last*size:(last+1)*size])
		self.cols[i] = col[:last*size]
	}
	return moved, row != last
}
