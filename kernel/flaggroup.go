package kernel

import "github.com/Dukiyaaa/MyOSForCm3/internal/tlist"

// FlagWaitType selects the predicate a FlagGroup wait evaluates
// against the group's current 32-bit flag word, matching the macro set
// in original_source/tFlagGroup.h.
type FlagWaitType uint8

const (
	SetAll FlagWaitType = iota
	SetAny
	ClearAll
	ClearAny
)

// FlagGroup is a 32-bit set of event flags with AND/OR wait semantics,
// as specified in SPEC_FULL.md §4.10.
type FlagGroup struct {
	event Event
	k     *Kernel
	flags uint32
}

// NewFlagGroup creates a flag group with the given initial flag word.
func (k *Kernel) NewFlagGroup(initial uint32) *FlagGroup {
	fg := &FlagGroup{k: k, flags: initial}
	fg.event.init(eventFlagGroup)
	return fg
}

// evaluateFlags reports whether the given predicate currently holds
// against flags, and if so which bits of mask should be reported to
// (and optionally consumed by) the caller.
func evaluateFlags(flags uint32, typ FlagWaitType, mask uint32) (matched uint32, ok bool) {
	switch typ {
	case SetAll:
		if flags&mask == mask {
			return mask, true
		}
	case SetAny:
		if got := flags & mask; got != 0 {
			return got, true
		}
	case ClearAll:
		if flags&mask == 0 {
			return mask, true
		}
	case ClearAny:
		if got := mask &^ flags; got != 0 {
			return got, true
		}
	}
	return 0, false
}

// applyConsume mutates flags per the matched bits of a satisfied
// predicate: SET_* predicates clear the matched bits, CLEAR_* set them
// — "consuming" the event so a later waiter re-evaluates fresh state.
func applyConsume(flags *uint32, typ FlagWaitType, matched uint32) {
	switch typ {
	case SetAll, SetAny:
		*flags &^= matched
	case ClearAll, ClearAny:
		*flags |= matched
	}
}

// Wait blocks t until typ/mask is satisfied against the group's flags,
// the timeout elapses, or the group is destroyed. timeout == 0 blocks
// indefinitely. On success the matched bits are returned; if consume
// is set they are also applied to the group's flag word (for the
// caller's own wait, applied immediately; for a waiter unblocked later
// by Notify, applied as part of that walk so earlier-queued waiters
// can consume bits before later ones re-evaluate).
func (fg *FlagGroup) Wait(t *Task, typ FlagWaitType, mask uint32, consume bool, timeout int) (uint32, Result) {
	k := fg.k
	k.enter()
	if matched, ok := evaluateFlags(fg.flags, typ, mask); ok {
		if consume {
			applyConsume(&fg.flags, typ, matched)
		}
		k.exit()
		return matched, NoError
	}
	t.flagWaitType = typ
	t.flagWaitMask = mask
	t.flagConsume = consume
	result, delivered := k.blockSelf(&fg.event, t, nil, timeout)
	k.exit()
	matched, _ := delivered.(uint32)
	return matched, result
}

// TryWait is FlagGroup's non-blocking poll entry point, resolving the
// distilled spec's timeout-0 ambiguity (SPEC_FULL.md §4.10): Wait's
// timeout == 0 always means "block forever"; polling is this separate
// method. It reports Timeout when the predicate does not currently
// hold, by analogy with a wait whose timeout has already elapsed.
func (fg *FlagGroup) TryWait(typ FlagWaitType, mask uint32, consume bool) (uint32, Result) {
	k := fg.k
	k.enter()
	defer k.exit()
	matched, ok := evaluateFlags(fg.flags, typ, mask)
	if !ok {
		return 0, Timeout
	}
	if consume {
		applyConsume(&fg.flags, typ, matched)
	}
	return matched, NoError
}

// Notify applies bits to the group's flag word (OR if isSet, AND-NOT
// otherwise) and walks waiters in FIFO order, waking every one whose
// stored predicate now matches.
func (fg *FlagGroup) Notify(isSet bool, bits uint32) {
	k := fg.k
	k.enter()
	if isSet {
		fg.flags |= bits
	} else {
		fg.flags &^= bits
	}

	n := fg.event.waitList.First()
	for n != nil {
		next := fg.event.waitList.Next(n)
		t := tlist.Owner[*Task](n)
		if matched, ok := evaluateFlags(fg.flags, t.flagWaitType, t.flagWaitMask); ok {
			if t.flagConsume {
				applyConsume(&fg.flags, t.flagWaitType, matched)
			}
			k.eventRemoveTaskLocked(t, matched, NoError)
		}
		n = next
	}
	k.schedLocked()
	k.exit()
}

// Flags returns the group's current flag word.
func (fg *FlagGroup) Flags() uint32 {
	k := fg.k
	k.enter()
	defer k.exit()
	return fg.flags
}

// Destroy wakes every waiter with Deleted, returning the count woken.
func (fg *FlagGroup) Destroy() int {
	k := fg.k
	k.enter()
	n := k.eventRemoveAllLocked(&fg.event, nil, Deleted)
	k.schedLocked()
	k.exit()
	k.logDestroyUnblocked("flaggroup", n)
	return n
}
