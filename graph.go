package rewire

import (
	"sort"
	"sync"
)

// DependencyGraph wires dependency-driven reinjection. For each dependent it
// holds the subscriptions placed on its watched envelopes' notification
// buses, so a dependency firing triggers the dependent's rebuild. The graph
// owns those subscriptions and must release them when the dependent is
// removed or re-injected with different wiring, to avoid dangling triggers.
type DependencyGraph struct {
	mu      sync.Mutex
	subs    map[string]*dependentRecord
	nextSeq uint64
}

// dependentRecord keeps one dependent's trigger and bus subscriptions.
// seq preserves registration order so fan-out stays deterministic when
// subscriptions are moved to a replacement envelope.
type dependentRecord struct {
	seq     uint64
	trigger Callback
	subs    []graphSubscription
}

type graphSubscription struct {
	bus *notificationBus
	sub *Subscription
}

// NewDependencyGraph creates an empty dependency graph
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		subs: make(map[string]*dependentRecord),
	}
}

// register subscribes trigger on every watched envelope, in order, and
// records the handles under dependentID for later teardown. Registering an
// id that already holds subscriptions releases the old ones first, so a
// dependency firing never runs the rebuild twice.
func (g *DependencyGraph) register(dependentID string, watched []anyEnvelope, trigger Callback) {
	g.unregister(dependentID)

	records := make([]graphSubscription, 0, len(watched))
	for _, env := range watched {
		bus := env.notifier()
		records = append(records, graphSubscription{
			bus: bus,
			sub: bus.subscribe(trigger),
		})
	}

	g.mu.Lock()
	g.nextSeq++
	g.subs[dependentID] = &dependentRecord{
		seq:     g.nextSeq,
		trigger: trigger,
		subs:    records,
	}
	g.mu.Unlock()
}

// unregister releases all subscriptions held for dependentID. No-op for an
// unknown id.
func (g *DependencyGraph) unregister(dependentID string) {
	g.mu.Lock()
	record := g.subs[dependentID]
	delete(g.subs, dependentID)
	g.mu.Unlock()

	if record == nil {
		return
	}
	for _, s := range record.subs {
		s.bus.unsubscribe(s.sub)
	}
}

// unregisterAll releases every subscription the graph holds; used on
// registry teardown
func (g *DependencyGraph) unregisterAll() {
	g.mu.Lock()
	all := g.subs
	g.subs = make(map[string]*dependentRecord)
	g.mu.Unlock()

	for _, record := range all {
		for _, s := range record.subs {
			s.bus.unsubscribe(s.sub)
		}
	}
}

// rewireDependency moves every trigger subscribed on old to next, preserving
// the dependents' registration order. Called when a watched model is
// replaced, so its dependents keep firing instead of dangling on the retired
// envelope's bus.
func (g *DependencyGraph) rewireDependency(old, next *notificationBus) {
	g.mu.Lock()
	var affected []*dependentRecord
	for _, record := range g.subs {
		for _, s := range record.subs {
			if s.bus == old {
				affected = append(affected, record)
				break
			}
		}
	}
	sort.Slice(affected, func(i, j int) bool {
		return affected[i].seq < affected[j].seq
	})
	g.mu.Unlock()

	for _, record := range affected {
		for i, s := range record.subs {
			if s.bus != old {
				continue
			}
			old.unsubscribe(s.sub)
			record.subs[i] = graphSubscription{
				bus: next,
				sub: next.subscribe(record.trigger),
			}
		}
	}
}

// watchCount returns how many dependency subscriptions are held for
// dependentID
func (g *DependencyGraph) watchCount(dependentID string) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	record := g.subs[dependentID]
	if record == nil {
		return 0
	}
	return len(record.subs)
}
