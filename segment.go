package duotoneanim

import "slices"

// groupID derives a group id from its root pixel. On-groups are positive,
// off-groups negative.
func groupID(root int, on bool) int {
	if on {
		return root + 1
	}
	return -root - 1
}

// segment labels every pixel with a 4-connected group of its polarity.
// Regions that close below the minimum area flip polarity and keep growing
// through their former edge, merging into any neighbor group they reach.
func (e *Engine) segment() error {
	return e.label(make(map[int][]int))
}

// label runs the segmentation with members as the initial id→pixels table.
func (e *Engine) label(members map[int][]int) error {
	n := e.grid.Len()
	labels := make([]int, n)

	for root := range n {
		if labels[root] != 0 {
			continue
		}
		on := e.state[root] == 1
		id := groupID(root, on)
		labels[root] = id
		members[id] = []int{root}
		queue := []int{root}
		edge := newSeqSet()

		// visit claims p for the current group or merges the current group
		// into the group p already belongs to.
		visit := func(p int) {
			switch l := labels[p]; l {
			case id:
			case 0:
				labels[p] = id
				members[id] = append(members[id], p)
				queue = append(queue, p)
			default:
				for _, m := range members[id] {
					labels[m] = l
				}
				members[l] = append(members[l], members[id]...)
				delete(members, id)
				id = l
			}
		}

		for {
			for len(queue) > 0 {
				cur := queue[0]
				queue = queue[1:]
				for _, nb := range e.grid.SideNeighbors(cur) {
					if (e.state[nb] == 1) != on {
						edge.Add(nb)
						continue
					}
					visit(nb)
				}
			}
			if float64(len(members[id])) >= e.minArea || edge.Len() == 0 {
				break
			}

			on = !on
			newID := groupID(root, on)
			if _, ok := members[newID]; ok {
				return &GroupIDCollisionError{GroupID: newID, RootPixel: root}
			}
			bit := uint8(0)
			if on {
				bit = 1
			}
			flipped := members[id]
			delete(members, id)
			for _, m := range flipped {
				e.state[m] = bit
				labels[m] = newID
			}
			members[newID] = flipped
			id = newID

			pending := edge.Values()
			edge = newSeqSet()
			for _, p := range pending {
				visit(p)
			}
		}
	}

	for p, l := range labels {
		e.composite[p] = ownKey(l)
	}
	diagf("run %s: segmented %d pixels into %d groups (min area %.2f)", e.runID, n, len(members), e.minArea)
	return nil
}

// indexGroups builds the group records from a freshly segmented grid:
// border counts, composite keys of unfixed pixels and their queues.
func (e *Engine) indexGroups() {
	e.groups = newGroupTable()
	for p := range e.grid.Len() {
		ring := e.grid.Ring(p)
		fixed := e.isFixed(ring)
		adjacent := e.adjacentGroups(p, ring)
		for _, k := range adjacent {
			e.groups.ensure(k)
		}
		for _, q := range sides(ring) {
			if q >= 0 && e.state[q] != e.state[p] {
				e.groups.ensure(e.edgeKey(p, q)).BorderCount += 0.5
			}
		}
		if fixed || len(adjacent) == 0 {
			continue
		}
		k := adjacent[0]
		e.composite[p] = k
		e.groups.ensure(k).queue(queueFor(e.state[p])).Add(p)
	}
}

// sides extracts the side neighbors from a ring.
func sides(ring [8]int) [4]int {
	return [4]int{ring[1], ring[3], ring[5], ring[7]}
}

// edgeKey is the pairing that owns the boundary edge between a and b, which
// must have opposite polarity.
func (e *Engine) edgeKey(a, b int) GroupKey {
	if e.state[a] == 1 {
		return GroupKey{On: e.composite[a].On, Off: e.composite[b].Off}
	}
	return GroupKey{On: e.composite[b].On, Off: e.composite[a].Off}
}

// isFixed reports whether flipping the ring's center could change group
// connectivity. Pixels on the grid border are always fixed. Otherwise the
// on-neighbors must form exactly one run around the ring and the side
// on-count must be between 1 and 3.
func (e *Engine) isFixed(ring [8]int) bool {
	for _, q := range ring {
		if q < 0 {
			return true
		}
	}
	touches, sideOn := 0, 0
	last := e.state[ring[7]] == 1
	for k, q := range ring {
		on := e.state[q] == 1
		if on {
			if k%2 == 1 {
				sideOn++
			}
			if !last {
				if touches > 0 {
					return true
				}
				touches++
			}
		}
		last = on
	}
	return touches != 1 || sideOn < 1 || sideOn > 3
}

// adjacentGroups returns the distinct pairings of p's own group with the
// opposite-polarity groups of its side neighbors, in side order.
func (e *Engine) adjacentGroups(p int, ring [8]int) []GroupKey {
	bit := e.state[p]
	own := e.composite[p].Own(bit)
	var out []GroupKey
	for _, q := range sides(ring) {
		if q < 0 || e.state[q] == bit {
			continue
		}
		k := GroupKey{On: own, Off: e.composite[q].Off}
		if bit == 0 {
			k = GroupKey{On: e.composite[q].On, Off: own}
		}
		if !slices.Contains(out, k) {
			out = append(out, k)
		}
	}
	return out
}

// recalcGroup recomputes the composite key of p from its current
// neighborhood. Fixed pixels keep only their own side.
func (e *Engine) recalcGroup(p int, fixed bool, ring [8]int) GroupKey {
	bit := e.state[p]
	own := e.composite[p].Own(bit)
	if !fixed {
		for _, q := range sides(ring) {
			if q < 0 || e.state[q] == bit {
				continue
			}
			if bit == 1 {
				return GroupKey{On: own, Off: e.composite[q].Off}
			}
			return GroupKey{On: e.composite[q].On, Off: own}
		}
	}
	if bit == 1 {
		return GroupKey{On: own}
	}
	return GroupKey{Off: own}
}
