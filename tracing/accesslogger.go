package tracing

import (
	"log"

	"github.com/sarchlab/memhier/mem"
	"github.com/sarchlab/memhier/mem/cache"
	"github.com/sarchlab/memhier/sim/hooking"
	"github.com/sarchlab/memhier/sim/naming"
)

// AccessLogger is a hook that prints one line for every cache event.
type AccessLogger struct {
	LogHookBase
}

// NewAccessLogger returns a new AccessLogger which writes to the logger.
func NewAccessLogger(logger *log.Logger) *AccessLogger {
	h := new(AccessLogger)
	h.Logger = logger

	return h
}

// Func writes the event information into the logger.
func (h *AccessLogger) Func(ctx hooking.HookCtx) {
	addr, ok := ctx.Item.(mem.LineAddress)
	if !ok {
		return
	}

	name := naming.NameOf(ctx.Domain, "?")

	detail, ok := ctx.Detail.(cache.AccessDetail)
	if !ok {
		h.Logger.Printf("%s, %s, %#x", name, ctx.Pos.Name, uint64(addr))
		return
	}

	op := "r"
	if detail.IsWrite {
		op = "w"
	}

	h.Logger.Printf("%s, %s, %#x, %s, set %d, way %d",
		name, ctx.Pos.Name, uint64(addr), op, detail.Set, detail.Way)
}
