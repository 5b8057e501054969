package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamDeliversInRegistrationOrder(t *testing.T) {
	s := NewStream()

	var order []string
	s.On(EntityUpdated, func(Event) { order = append(order, "first") })
	s.On(EntityUpdated, func(Event) { order = append(order, "second") })
	s.On(EntityUpdated, func(Event) { order = append(order, "third") })

	s.Emit(Event{Kind: EntityUpdated, EntityID: "e1"})

	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestStreamFiltersByKind(t *testing.T) {
	s := NewStream()

	var got []Kind
	s.On(ValueCreated, func(ev Event) { got = append(got, ev.Kind) })

	s.Emit(Event{Kind: ValueCreated})
	s.Emit(Event{Kind: RelationCreated})
	s.Emit(Event{Kind: ValueCreated})

	assert.Equal(t, []Kind{ValueCreated, ValueCreated}, got)
}

func TestStreamUnsubscribe(t *testing.T) {
	s := NewStream()

	calls := 0
	off := s.On(EntityDeleted, func(Event) { calls++ })

	s.Emit(Event{Kind: EntityDeleted})
	off()
	s.Emit(Event{Kind: EntityDeleted})
	off() // second call is a no-op

	assert.Equal(t, 1, calls)
}

func TestStreamPanicIsolation(t *testing.T) {
	s := NewStream()

	var reached bool
	s.On(EntitiesSynced, func(Event) { panic("boom") })
	s.On(EntitiesSynced, func(Event) { reached = true })

	require.NotPanics(t, func() {
		s.Emit(Event{Kind: EntitiesSynced})
	})
	assert.True(t, reached, "handler after panicking one must still run")
}

func TestStreamSeqIsMonotonic(t *testing.T) {
	s := NewStream()

	var seqs []int64
	s.On(ValueDeleted, func(ev Event) { seqs = append(seqs, ev.Seq) })

	s.Emit(Event{Kind: ValueDeleted})
	s.Emit(Event{Kind: RelationDeleted})
	s.Emit(Event{Kind: ValueDeleted})

	require.Len(t, seqs, 2)
	assert.Equal(t, int64(1), seqs[0])
	assert.Equal(t, int64(3), seqs[1])
	assert.Equal(t, int64(3), s.Seq())
}

func TestStreamLogIsAppendOnlyCopy(t *testing.T) {
	s := NewStream()

	s.Emit(Event{Kind: EntityUpdated, EntityID: "a"})
	s.Emit(Event{Kind: EntityDeleted, EntityID: "b"})

	log := s.Log()
	require.Len(t, log, 2)
	assert.Equal(t, EntityUpdated, log[0].Kind)
	assert.Equal(t, EntityDeleted, log[1].Kind)

	// Mutating the returned slice must not affect the stream's log.
	log[0].EntityID = "mutated"
	fresh := s.Log()
	assert.Equal(t, "a", fresh[0].EntityID)
}

func TestStreamEmitDuringDispatch(t *testing.T) {
	s := NewStream()

	var kinds []Kind
	s.On(ValueCreated, func(Event) {
		s.Emit(Event{Kind: EntityUpdated})
	})
	s.On(EntityUpdated, func(ev Event) { kinds = append(kinds, ev.Kind) })

	require.NotPanics(t, func() {
		s.Emit(Event{Kind: ValueCreated})
	})
	assert.Equal(t, []Kind{EntityUpdated}, kinds)
}
