// Package notify provides change notification for configuration updates.
//
// Components subscribe to a Notifier, globally or scoped to one section,
// and receive a callback whenever an option is set or deleted or the whole
// configuration is reloaded.
package notify

import "sync"

// ChangeType represents the type of configuration change.
type ChangeType int

const (
	// ChangeSet indicates a value was set or updated.
	ChangeSet ChangeType = iota

	// ChangeDelete indicates a value was deleted.
	ChangeDelete

	// ChangeReload indicates the entire configuration was reloaded.
	ChangeReload
)

// String returns the change type name.
func (c ChangeType) String() string {
	switch c {
	case ChangeSet:
		return "set"
	case ChangeDelete:
		return "delete"
	case ChangeReload:
		return "reload"
	default:
		return "unknown"
	}
}

// Change represents a configuration change event.
type Change struct {
	// Section is the section the change occurred in. Empty for reloads.
	Section string

	// Option is the changed option. Empty for reloads.
	Option string

	// Type is the type of change.
	Type ChangeType

	// Old is the previous value (nil if there was none).
	Old any

	// New is the new value (nil for deletes).
	New any

	// Source identifies where the change came from.
	Source string
}

// Observer is called when a configuration change occurs.
type Observer func(change Change)

// Subscription represents an active observer subscription.
type Subscription struct {
	id       uint64
	notifier *Notifier
}

// Unsubscribe removes this subscription.
func (s *Subscription) Unsubscribe() {
	if s.notifier != nil {
		s.notifier.unsubscribe(s.id)
	}
}

// Notifier manages configuration change subscriptions.
type Notifier struct {
	mu sync.RWMutex

	globalObservers  map[uint64]Observer
	sectionObservers map[string]map[uint64]Observer
	nextID           uint64

	async  bool
	buffer chan Change
	done   chan struct{}
	wg     sync.WaitGroup
	closed bool
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithAsync enables asynchronous notification delivery through a buffered
// channel.
func WithAsync(bufferSize int) Option {
	return func(n *Notifier) {
		if bufferSize > 0 {
			n.async = true
			n.buffer = make(chan Change, bufferSize)
		}
	}
}

// New creates a new Notifier.
func New(opts ...Option) *Notifier {
	n := &Notifier{
		globalObservers:  make(map[uint64]Observer),
		sectionObservers: make(map[string]map[uint64]Observer),
		done:             make(chan struct{}),
	}

	for _, opt := range opts {
		opt(n)
	}

	if n.async {
		n.wg.Add(1)
		go n.processAsync()
	}

	return n
}

// Subscribe registers an observer for all changes.
func (n *Notifier) Subscribe(observer Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.globalObservers[id] = observer

	return &Subscription{id: id, notifier: n}
}

// SubscribeSection registers an observer for changes within one section.
// Reload events are delivered to section observers as well.
func (n *Notifier) SubscribeSection(section string, observer Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	if n.sectionObservers[section] == nil {
		n.sectionObservers[section] = make(map[uint64]Observer)
	}
	n.sectionObservers[section][id] = observer

	return &Subscription{id: id, notifier: n}
}

// Notify sends a change notification to all relevant observers.
func (n *Notifier) Notify(change Change) {
	n.mu.RLock()
	if n.closed {
		n.mu.RUnlock()
		return
	}
	n.mu.RUnlock()

	if n.async {
		select {
		case n.buffer <- change:
		case <-n.done:
		}
		return
	}

	n.deliver(change)
}

// NotifySet is a convenience method for set changes.
func (n *Notifier) NotifySet(section, option string, old, newValue any, source string) {
	n.Notify(Change{
		Section: section,
		Option:  option,
		Type:    ChangeSet,
		Old:     old,
		New:     newValue,
		Source:  source,
	})
}

// NotifyDelete is a convenience method for delete changes.
func (n *Notifier) NotifyDelete(section, option string, old any, source string) {
	n.Notify(Change{
		Section: section,
		Option:  option,
		Type:    ChangeDelete,
		Old:     old,
		Source:  source,
	})
}

// NotifyReload is a convenience method for reload events.
func (n *Notifier) NotifyReload(source string) {
	n.Notify(Change{Type: ChangeReload, Source: source})
}

// Close shuts down the notifier. It is safe to call Close multiple times.
func (n *Notifier) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	n.mu.Unlock()

	close(n.done)
	n.wg.Wait()
}

// Batch collects multiple changes and delivers them as a group on Commit.
type Batch struct {
	notifier *Notifier
	changes  []Change
	mu       sync.Mutex
}

// NewBatch creates a new batch for collecting changes.
func (n *Notifier) NewBatch() *Batch {
	return &Batch{
		notifier: n,
		changes:  make([]Change, 0),
	}
}

// Add adds a change to the batch.
func (b *Batch) Add(change Change) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.changes = append(b.changes, change)
}

// Set adds a set change to the batch.
func (b *Batch) Set(section, option string, old, newValue any, source string) {
	b.Add(Change{
		Section: section,
		Option:  option,
		Type:    ChangeSet,
		Old:     old,
		New:     newValue,
		Source:  source,
	})
}

// Delete adds a delete change to the batch.
func (b *Batch) Delete(section, option string, old any, source string) {
	b.Add(Change{
		Section: section,
		Option:  option,
		Type:    ChangeDelete,
		Old:     old,
		Source:  source,
	})
}

// Commit sends all batched changes to observers, in the order they were
// added, and empties the batch.
func (b *Batch) Commit() {
	b.mu.Lock()
	changes := b.changes
	b.changes = make([]Change, 0)
	b.mu.Unlock()

	for _, change := range changes {
		b.notifier.Notify(change)
	}
}

// Discard clears the batch without sending notifications.
func (b *Batch) Discard() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.changes = make([]Change, 0)
}

// Len returns the number of pending changes.
func (b *Batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.changes)
}

// unsubscribe removes an observer by ID.
func (n *Notifier) unsubscribe(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	delete(n.globalObservers, id)

	for section, observers := range n.sectionObservers {
		delete(observers, id)
		if len(observers) == 0 {
			delete(n.sectionObservers, section)
		}
	}
}

// deliver sends a change to all matching observers.
func (n *Notifier) deliver(change Change) {
	n.mu.RLock()

	var observers []Observer
	for _, obs := range n.globalObservers {
		observers = append(observers, obs)
	}

	if change.Type == ChangeReload {
		// Reload affects every section.
		for _, sectionObs := range n.sectionObservers {
			for _, obs := range sectionObs {
				observers = append(observers, obs)
			}
		}
	} else if sectionObs, ok := n.sectionObservers[change.Section]; ok {
		for _, obs := range sectionObs {
			observers = append(observers, obs)
		}
	}

	n.mu.RUnlock()

	// Call observers outside the lock.
	for _, obs := range observers {
		obs(change)
	}
}

// processAsync handles asynchronous notification delivery.
func (n *Notifier) processAsync() {
	defer n.wg.Done()

	for {
		select {
		case change := <-n.buffer:
			n.deliver(change)
		case <-n.done:
			// Drain remaining buffered changes.
			for {
				select {
				case change := <-n.buffer:
					n.deliver(change)
				default:
					return
				}
			}
		}
	}
}
