package cache

import "github.com/sarchlab/memhier/sim/hooking"

// Hook positions published by a cache. The item of the hook context is the
// line address involved and the detail is an AccessDetail.
var (
	HookPosHit          = &hooking.HookPos{Name: "Cache Hit"}
	HookPosMiss         = &hooking.HookPos{Name: "Cache Miss"}
	HookPosEviction     = &hooking.HookPos{Name: "Cache Eviction"}
	HookPosWriteback    = &hooking.HookPos{Name: "Cache Writeback"}
	HookPosInvalidation = &hooking.HookPos{Name: "Cache Invalidation"}
)

// AccessDetail locates the way an event happened at. Way is -1 when no way
// was resolved.
type AccessDetail struct {
	Set     int
	Way     int
	IsWrite bool
}
