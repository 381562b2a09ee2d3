// Package hooking lets observers attach to the events published by the
// cache levels and the replay engine.
//
// Every event carries a HookCtx. Its meaning depends on who publishes it:
//
//   - Cache levels publish Hit, Miss, Eviction, Writeback and Invalidation.
//     Domain is the level, Item is the mem.LineAddress concerned and Detail
//     is a cache.AccessDetail giving the set, the way (-1 on a miss) and
//     whether the access writes.
//   - The replay engine publishes Phase End with the index of the phase
//     that ended as a uint64 Item, and Core Done with the *replay.Core as
//     Item. Detail is nil.
package hooking

// HookPos names an event. Publishers declare their positions as package
// variables and hooks compare them by pointer.
type HookPos struct {
	Name string
}

// HookCtx describes one published event.
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos
	Item   any
	Detail any
}

// Hookable is implemented by everything that publishes events.
type Hookable interface {
	// AcceptHook registers a hook. It panics if the hook is already
	// registered.
	AcceptHook(hook Hook)

	// NumHooks returns the number of hooks registered.
	NumHooks() int

	// Hooks returns the hooks in registration order.
	Hooks() []Hook
}

// Hook observes events. Func runs synchronously inside the publisher, so
// it must not call back into the level or engine that invoked it.
type Hook interface {
	Func(ctx HookCtx)
}

// HookableBase keeps the hooks of a publisher. Embed it to implement
// Hookable.
type HookableBase struct {
	hooks []Hook
}

// NumHooks returns the number of hooks registered.
func (h *HookableBase) NumHooks() int {
	return len(h.hooks)
}

// Hooks returns the hooks in registration order.
func (h *HookableBase) Hooks() []Hook {
	return h.hooks
}

// AcceptHook registers a hook. A hook registered twice would see every
// event twice, so it panics instead.
func (h *HookableBase) AcceptHook(hook Hook) {
	for _, registered := range h.hooks {
		if registered == hook {
			panic("duplicated hook")
		}
	}

	h.hooks = append(h.hooks, hook)
}

// InvokeHook passes ctx to every hook in registration order.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.hooks {
		hook.Func(ctx)
	}
}
