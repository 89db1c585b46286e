// Copyright 2026 The mm2 Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package mm2

// assemble indexes decoded rooms by id and resolves every raw exit id to a
// room.  Ids that don't name a room are dropped with a warning, so after
// assembly every exit points only at rooms in the returned map.
func assemble(records []*record) (map[RoomID]*Room, []Warning, error) {
	index := make(map[RoomID]*record, len(records))
	for _, rec := range records {
		id := rec.room.id
		if prev, ok := index[id]; ok {
			return nil, nil, &DuplicateIdentifierError{ID: id, First: prev.index, Second: rec.index}
		}
		index[id] = rec
	}

	var warnings []Warning
	resolve := func(owner RoomID, dir Direction, ids []uint32, inbound bool) []*Room {
		if len(ids) == 0 {
			return nil
		}
		rooms := make([]*Room, 0, len(ids))
		for _, id := range ids {
			target, ok := index[RoomID(id)]
			if !ok {
				warnings = append(warnings, &DanglingReferenceWarning{
					Room:      owner,
					Direction: dir,
					Target:    RoomID(id),
					Inbound:   inbound,
				})
				continue
			}
			rooms = append(rooms, target.room)
		}
		return rooms
	}

	rooms := make(map[RoomID]*Room, len(records))
	for _, rec := range records {
		room := rec.room
		for _, dir := range Directions {
			e := room.exits[dir]
			if e == nil {
				continue
			}
			links := rec.links[dir]
			e.from = resolve(room.id, dir, links.in, true)
			e.to = resolve(room.id, dir, links.out, false)
			if e.empty() {
				// only dangling ids kept this slot alive
				room.exits[dir] = nil
			}
		}
		rooms[room.id] = room
	}
	return rooms, warnings, nil
}
