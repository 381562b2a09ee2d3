package cmd

import (
	"github.com/sarchlab/memhier/mem/cache"
	"github.com/sarchlab/memhier/sim/hooking"
)

var cachePositions = []*hooking.HookPos{
	cache.HookPosHit,
	cache.HookPosMiss,
	cache.HookPosEviction,
	cache.HookPosWriteback,
	cache.HookPosInvalidation,
}
