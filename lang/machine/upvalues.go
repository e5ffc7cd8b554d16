package machine

import "github.com/mna/fen/lang/types"

// captureUpvalue returns the open upvalue for stack slot, reusing one
// already in the open list if present, so that multiple closures over the
// same variable alias the same Upvalue. The list stays sorted by descending
// slot, which is what lets closeUpvalues stop at the first entry below its
// threshold.
func (vm *VM) captureUpvalue(slot int) *types.Upvalue {
	var prev *types.Upvalue
	cur := vm.openUpvalues
	for cur != nil && cur.Slot > slot {
		prev = cur
		cur = cur.Next
	}
	if cur != nil && cur.Slot == slot {
		return cur
	}

	created := &types.Upvalue{Location: &vm.stack[slot], Slot: slot, Next: cur}
	if prev == nil {
		vm.openUpvalues = created
	} else {
		prev.Next = created
	}
	return created
}

// closeUpvalues closes every open upvalue at or above threshold: each one
// copies its slot's current value into its own storage and is unlinked from
// the open list.
func (vm *VM) closeUpvalues(threshold int) {
	for vm.openUpvalues != nil && vm.openUpvalues.Slot >= threshold {
		uv := vm.openUpvalues
		uv.Close()
		vm.openUpvalues = uv.Next
		uv.Next = nil
	}
}
