package gekko

import (
	"fmt"
	"reflect"
	"slices"
)

// To get more queries:
//  1. Add QueryN with its MakeQueryN constructor
//  2. Implement Map/Single following the existing arities
type Query1[A any] struct {
	ecs    *Ecs
	filter queryFilter
}
type Query2[A, B any] struct {
	ecs    *Ecs
	filter queryFilter
}
type Query3[A, B, C any] struct {
	ecs    *Ecs
	filter queryFilter
}
type Query4[A, B, C, D any] struct {
	ecs    *Ecs
	filter queryFilter
}

func MakeQuery1[A any](cmd *Commands) Query1[A] { return Query1[A]{ecs: cmd.app.ecs} }
func MakeQuery2[A, B any](cmd *Commands) Query2[A, B] {
	return Query2[A, B]{ecs: cmd.app.ecs}
}
func MakeQuery3[A, B, C any](cmd *Commands) Query3[A, B, C] {
	return Query3[A, B, C]{ecs: cmd.app.ecs}
}
func MakeQuery4[A, B, C, D any](cmd *Commands) Query4[A, B, C, D] {
	return Query4[A, B, C, D]{ecs: cmd.app.ecs}
}

// queryFilter narrows a query to archetypes that also carry (With) or lack
// (Without) the given component types. Filter components are not fetched.
type queryFilter struct {
	with    []any
	without []any
}

func (f queryFilter) addWith(components ...any) queryFilter {
	return queryFilter{with: append(slices.Clone(f.with), components...), without: f.without}
}

func (f queryFilter) addWithout(components ...any) queryFilter {
	return queryFilter{with: f.with, without: append(slices.Clone(f.without), components...)}
}

type queryMatch struct {
	eid  EntityId
	arch *archetype
	row  row
}

// collect returns matching rows ordered by entity id. required ids may be
// absent from an archetype only when they are listed in optional.
func (ecs *Ecs) collect(required []componentId, optional set[componentId], filter queryFilter) []queryMatch {
	withIds := make([]componentId, 0, len(filter.with))
	for _, c := range filter.with {
		withIds = append(withIds, ecs.getComponentId(componentType(c)))
	}
	withoutIds := make([]componentId, 0, len(filter.without))
	for _, c := range filter.without {
		withoutIds = append(withoutIds, ecs.getComponentId(componentType(c)))
	}

	var matches []queryMatch
ArchLoop:
	for _, arch := range ecs.archetypes {
		for _, id := range required {
			if !arch.has(id) {
				if _, ok := optional[id]; !ok {
					continue ArchLoop
				}
			}
		}
		for _, id := range withIds {
			if !arch.has(id) {
				continue ArchLoop
			}
		}
		for _, id := range withoutIds {
			if arch.has(id) {
				continue ArchLoop
			}
		}
		for entityId, row := range arch.entities {
			matches = append(matches, queryMatch{eid: entityId, arch: arch, row: row})
		}
	}

	slices.SortFunc(matches, func(a, b queryMatch) int {
		switch {
		case a.eid < b.eid:
			return -1
		case a.eid > b.eid:
			return 1
		}
		return 0
	})
	return matches
}

// cell returns a pointer to the row's T, or nil when the archetype lacks T.
func cell[T any](arch *archetype, id componentId, r row) *T {
	data, ok := arch.componentData[id]
	if !ok {
		return nil
	}
	return &data.([]T)[r]
}

func singleMatch(matches []queryMatch, query string) queryMatch {
	if len(matches) != 1 {
		panic(fmt.Sprintf("%s.Single(): expected exactly one matching entity, found %d", query, len(matches)))
	}
	return matches[0]
}

func (q Query1[A]) With(components ...any) Query1[A] {
	return Query1[A]{ecs: q.ecs, filter: q.filter.addWith(components...)}
}

func (q Query1[A]) Without(components ...any) Query1[A] {
	return Query1[A]{ecs: q.ecs, filter: q.filter.addWithout(components...)}
}

func (q Query1[A]) Map(m func(EntityId, *A) bool, optionals ...any) {
	id1 := identifyComponents1[A](q.ecs)
	opt := identifyOptionals(q.ecs, optionals...)

	for _, match := range q.ecs.collect([]componentId{id1}, opt, q.filter) {
		if !m(match.eid, cell[A](match.arch, id1, match.row)) {
			return
		}
	}
}

func (q Query1[A]) Count() int {
	id1 := identifyComponents1[A](q.ecs)
	return len(q.ecs.collect([]componentId{id1}, nil, q.filter))
}

// Single returns the only matching entity and panics when there is none or
// more than one.
func (q Query1[A]) Single() (EntityId, *A) {
	id1 := identifyComponents1[A](q.ecs)
	match := singleMatch(q.ecs.collect([]componentId{id1}, nil, q.filter), fmt.Sprintf("Query1[%s]", typeName[A]()))
	return match.eid, cell[A](match.arch, id1, match.row)
}

func (q Query2[A, B]) With(components ...any) Query2[A, B] {
	return Query2[A, B]{ecs: q.ecs, filter: q.filter.addWith(components...)}
}

func (q Query2[A, B]) Without(components ...any) Query2[A, B] {
	return Query2[A, B]{ecs: q.ecs, filter: q.filter.addWithout(components...)}
}

func (q Query2[A, B]) Map(m func(EntityId, *A, *B) bool, optionals ...any) {
	id1, id2 := identifyComponents2[A, B](q.ecs)
	opt := identifyOptionals(q.ecs, optionals...)

	for _, match := range q.ecs.collect([]componentId{id1, id2}, opt, q.filter) {
		if !m(match.eid,
			cell[A](match.arch, id1, match.row),
			cell[B](match.arch, id2, match.row),
		) {
			return
		}
	}
}

func (q Query2[A, B]) Single() (EntityId, *A, *B) {
	id1, id2 := identifyComponents2[A, B](q.ecs)
	match := singleMatch(q.ecs.collect([]componentId{id1, id2}, nil, q.filter),
		fmt.Sprintf("Query2[%s, %s]", typeName[A](), typeName[B]()))
	return match.eid, cell[A](match.arch, id1, match.row), cell[B](match.arch, id2, match.row)
}

func (q Query3[A, B, C]) With(components ...any) Query3[A, B, C] {
	return Query3[A, B, C]{ecs: q.ecs, filter: q.filter.addWith(components...)}
}

func (q Query3[A, B, C]) Without(components ...any) Query3[A, B, C] {
	return Query3[A, B, C]{ecs: q.ecs, filter: q.filter.addWithout(components...)}
}

func (q Query3[A, B, C]) Map(m func(EntityId, *A, *B, *C) bool, optionals ...any) {
	id1, id2, id3 := identifyComponents3[A, B, C](q.ecs)
	opt := identifyOptionals(q.ecs, optionals...)

	for _, match := range q.ecs.collect([]componentId{id1, id2, id3}, opt, q.filter) {
		if !m(match.eid,
			cell[A](match.arch, id1, match.row),
			cell[B](match.arch, id2, match.row),
			cell[C](match.arch, id3, match.row),
		) {
			return
		}
	}
}

func (q Query3[A, B, C]) Single() (EntityId, *A, *B, *C) {
	id1, id2, id3 := identifyComponents3[A, B, C](q.ecs)
	match := singleMatch(q.ecs.collect([]componentId{id1, id2, id3}, nil, q.filter),
		fmt.Sprintf("Query3[%s, %s, %s]", typeName[A](), typeName[B](), typeName[C]()))
	return match.eid, cell[A](match.arch, id1, match.row), cell[B](match.arch, id2, match.row), cell[C](match.arch, id3, match.row)
}

func (q Query4[A, B, C, D]) With(components ...any) Query4[A, B, C, D] {
	return Query4[A, B, C, D]{ecs: q.ecs, filter: q.filter.addWith(components...)}
}

func (q Query4[A, B, C, D]) Without(components ...any) Query4[A, B, C, D] {
	return Query4[A, B, C, D]{ecs: q.ecs, filter: q.filter.addWithout(components...)}
}

func (q Query4[A, B, C, D]) Map(m func(EntityId, *A, *B, *C, *D) bool, optionals ...any) {
	id1, id2, id3, id4 := identifyComponents4[A, B, C, D](q.ecs)
	opt := identifyOptionals(q.ecs, optionals...)

	for _, match := range q.ecs.collect([]componentId{id1, id2, id3, id4}, opt, q.filter) {
		if !m(match.eid,
			cell[A](match.arch, id1, match.row),
			cell[B](match.arch, id2, match.row),
			cell[C](match.arch, id3, match.row),
			cell[D](match.arch, id4, match.row),
		) {
			return
		}
	}
}

func identifyOptionals(ecs *Ecs, components ...any) set[componentId] {
	res := make(set[componentId])
	for _, c := range components {
		res[ecs.getComponentId(componentType(c))] = struct{}{}
	}

	return res
}

func typeName[T any]() string {
	var t T
	return reflect.TypeOf(t).String()
}

func identifyComponents1[A any](ecs *Ecs) componentId {
	var a A
	return ecs.getComponentId(reflect.TypeOf(a))
}

func identifyComponents2[A, B any](ecs *Ecs) (componentId, componentId) {
	var a A
	var b B
	return ecs.getComponentId(reflect.TypeOf(a)), ecs.getComponentId(reflect.TypeOf(b))
}

func identifyComponents3[A, B, C any](ecs *Ecs) (componentId, componentId, componentId) {
	var a A
	var b B
	var c C
	return ecs.getComponentId(reflect.TypeOf(a)), ecs.getComponentId(reflect.TypeOf(b)), ecs.getComponentId(reflect.TypeOf(c))
}

func identifyComponents4[A, B, C, D any](ecs *Ecs) (componentId, componentId, componentId, componentId) {
	var a A
	var b B
	var c C
	var d D
	return ecs.getComponentId(reflect.TypeOf(a)), ecs.getComponentId(reflect.TypeOf(b)), ecs.getComponentId(reflect.TypeOf(c)), ecs.getComponentId(reflect.TypeOf(d))
}
