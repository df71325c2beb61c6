package gekko

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuery_Map(t *testing.T) {
	type Comp1 struct{ a int }
	type Comp2 struct{ b float32 }
	type Comp3 struct{}

	ecs := MakeEcs()
	ecs.addEntity(Comp1{a: 1})                                 // comp1 only                       -- shouldn't match
	id2 := ecs.addEntity(Comp1{a: 2}, Comp2{b: 1.37})          // comp1 & comp2                    -- should match
	id3 := ecs.addEntity(Comp1{a: 3}, Comp2{b: 4.20}, Comp3{}) // comp1 & comp2 + something extra  -- should match
	ecs.addEntity(Comp1{a: 4}, Comp3{})                        // comp1 + something extra          -- shouldn't match
	ecs.addEntity(Comp2{b: 3.14})                              // comp2 only                       -- shouldn't match

	query := Query2[Comp1, Comp2]{ecs: &ecs}

	expectedEntityIds := []EntityId{id2, id3}
	expectedComponentsA := []Comp1{{a: 2}, {a: 3}}
	expectedComponentsB := []Comp2{{b: 1.37}, {b: 4.20}}
	numResults := 0

	query.Map(func(entityId EntityId, comp1 *Comp1, comp2 *Comp2) bool {
		assert.Equal(t, expectedEntityIds[numResults], entityId)
		assert.Equal(t, expectedComponentsA[numResults], *comp1)
		assert.Equal(t, expectedComponentsB[numResults], *comp2)

		numResults += 1
		return true
	})

	assert.Equal(t, 2, numResults)
}

func TestQuery_MapMutatesStorage(t *testing.T) {
	type Counter struct{ n int }

	ecs := MakeEcs()
	id := ecs.addEntity(Counter{n: 1})

	Query1[Counter]{ecs: &ecs}.Map(func(_ EntityId, c *Counter) bool {
		c.n += 41
		return true
	})

	assert.Equal(t, 42, component[Counter](&ecs, id).n)
}

func TestQuery_MapStopsEarly(t *testing.T) {
	type Comp struct{}

	ecs := MakeEcs()
	for i := 0; i < 5; i++ {
		ecs.addEntity(Comp{})
	}

	visited := 0
	Query1[Comp]{ecs: &ecs}.Map(func(EntityId, *Comp) bool {
		visited++
		return visited < 2
	})
	assert.Equal(t, 2, visited)
}

func TestQuery_WithWithout(t *testing.T) {
	type Mesh struct{}
	type Player struct{}
	type Replaced struct{}

	ecs := MakeEcs()
	ecs.addEntity(Mesh{})
	player := ecs.addEntity(Mesh{}, Player{})
	ecs.addEntity(Mesh{}, Player{}, Replaced{})

	var got []EntityId
	Query1[Mesh]{ecs: &ecs}.With(Player{}).Without(Replaced{}).Map(func(eid EntityId, _ *Mesh) bool {
		got = append(got, eid)
		return true
	})

	assert.Equal(t, []EntityId{player}, got)
}

func TestQuery_Optionals(t *testing.T) {
	type Required struct{}
	type Maybe struct{ v int }

	ecs := MakeEcs()
	ecs.addEntity(Required{})
	ecs.addEntity(Required{}, Maybe{v: 7})

	withMaybe, withoutMaybe := 0, 0
	Query2[Required, Maybe]{ecs: &ecs}.Map(func(_ EntityId, _ *Required, m *Maybe) bool {
		if m == nil {
			withoutMaybe++
		} else {
			assert.Equal(t, 7, m.v)
			withMaybe++
		}
		return true
	}, Maybe{})

	assert.Equal(t, 1, withMaybe)
	assert.Equal(t, 1, withoutMaybe)
}

func TestQuery_Single(t *testing.T) {
	type Camera struct{ fov float32 }

	ecs := MakeEcs()
	q := Query1[Camera]{ecs: &ecs}

	require.Panics(t, func() { q.Single() }, "no camera must panic")

	id := ecs.addEntity(Camera{fov: 45})
	eid, cam := q.Single()
	assert.Equal(t, id, eid)
	assert.Equal(t, float32(45), cam.fov)
	assert.Equal(t, 1, q.Count())

	ecs.addEntity(Camera{fov: 60})
	require.Panics(t, func() { q.Single() }, "two cameras must panic")
}
