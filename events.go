package galton

import (
	"unsafe"

	"github.com/akmonengine/galton/actor"
	"github.com/akmonengine/galton/constraint"
)

type EventType uint8

const (
	COLLISION_ENTER EventType = iota
	COLLISION_STAY
	COLLISION_EXIT
	ON_SLEEP
	ON_WAKE
)

// Event is implemented by every event sent to listeners
type Event interface {
	Type() EventType
}

// Pair names the two bodies of a collision event, in no particular order
type Pair struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody
}

// Has reports whether body is one of the two bodies
func (p Pair) Has(body *actor.RigidBody) bool {
	return p.BodyA == body || p.BodyB == body
}

type CollisionEnterEvent struct{ Pair }
type CollisionStayEvent struct{ Pair }
type CollisionExitEvent struct{ Pair }

func (CollisionEnterEvent) Type() EventType { return COLLISION_ENTER }
func (CollisionStayEvent) Type() EventType  { return COLLISION_STAY }
func (CollisionExitEvent) Type() EventType  { return COLLISION_EXIT }

type SleepEvent struct{ Body *actor.RigidBody }
type WakeEvent struct{ Body *actor.RigidBody }

func (SleepEvent) Type() EventType { return ON_SLEEP }
func (WakeEvent) Type() EventType  { return ON_WAKE }

type EventListener func(event Event)

// makePairKey orders the bodies by address so that (a, b) and (b, a) share a key
func makePairKey(a, b *actor.RigidBody) Pair {
	if uintptr(unsafe.Pointer(b)) < uintptr(unsafe.Pointer(a)) {
		return Pair{BodyA: b, BodyB: a}
	}

	return Pair{BodyA: a, BodyB: b}
}

// contact state of a pair across two ticks
type pairState uint8

const (
	touchedBefore pairState = 1 << iota
	touchingNow
)

// Events tracks contacts and sleep changes between ticks and dispatches them at the end of a step
type Events struct {
	listeners map[EventType][]EventListener
	pending   []Event

	pairs map[Pair]pairState
	awake map[*actor.RigidBody]bool
}

func NewEvents() Events {
	return Events{
		listeners: make(map[EventType][]EventListener),
		pending:   make([]Event, 0, 256),
		pairs:     make(map[Pair]pairState),
		awake:     make(map[*actor.RigidBody]bool),
	}
}

// Subscribe adds a listener for an event type
// Listeners run in subscription order, at the end of World.Step.
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

// recordContacts marks the pairs of the manifold as touching during this tick
// Contacts against an unattached body use the body they were detected against.
func (e *Events) recordContacts(manifold *constraint.Manifold) {
	for _, point := range manifold.Points() {
		other := point.Bodies[1]
		if other == nil {
			other = point.Other
		}
		if point.Bodies[0] == nil || other == nil {
			continue
		}

		key := makePairKey(point.Bodies[0], other)
		e.pairs[key] |= touchingNow
	}
}

// forget drops a body removed from the world, without an exit event
func (e *Events) forget(body *actor.RigidBody) {
	delete(e.awake, body)
	for pair := range e.pairs {
		if pair.Has(body) {
			delete(e.pairs, pair)
		}
	}
}

// processCollisionEvents turns the pair states into Enter/Stay/Exit events, then starts a new tick
// Pairs of two sleeping bodies stay quiet.
func (e *Events) processCollisionEvents() {
	for pair, state := range e.pairs {
		quiet := !pair.BodyA.IsAwake() && !pair.BodyB.IsAwake()

		switch {
		case state == touchedBefore:
			e.pending = append(e.pending, CollisionExitEvent{pair})
			delete(e.pairs, pair)
			continue
		case quiet:
		case state&touchedBefore != 0:
			e.pending = append(e.pending, CollisionStayEvent{pair})
		default:
			e.pending = append(e.pending, CollisionEnterEvent{pair})
		}

		e.pairs[pair] = touchedBefore
	}
}

// processSleepEvents compares the awake flag of every dynamic body with the last tick
// The first tick of a body only records its state.
func (e *Events) processSleepEvents(bodies []*actor.RigidBody) {
	for _, body := range bodies {
		if body.IsStatic() {
			continue
		}

		awake := body.IsAwake()
		wasAwake, known := e.awake[body]
		e.awake[body] = awake

		switch {
		case !known || wasAwake == awake:
		case awake:
			e.pending = append(e.pending, WakeEvent{Body: body})
		default:
			e.pending = append(e.pending, SleepEvent{Body: body})
		}
	}
}

// flush dispatches the events of this tick
func (e *Events) flush() {
	e.processCollisionEvents()

	for _, event := range e.pending {
		for _, listener := range e.listeners[event.Type()] {
			listener(event)
		}
	}
	e.pending = e.pending[:0]
}
