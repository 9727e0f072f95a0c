package store

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/talgya/terrain-hydrology/internal/hydrology"
)

// DumpNodesBinary serializes every node in net, in id order, to the
// big-endian wire format used only by tests to verify ordering and parent
// linkage: u64 id | u64 parentId | u64 reserved | u8 numChildren |
// u64*numChildren childIds. Mouth nodes report their own id as parentId
// (the same parent-or-self convention the output store uses).
//
// A node with more than 255 children cannot be represented (numChildren is
// a single byte); DumpNodesBinary returns an error in that case rather than
// silently truncating the child list.
func DumpNodesBinary(net *hydrology.Network) ([]byte, error) {
	var buf bytes.Buffer

	for _, n := range net.AllNodes() {
		parentID := n.ID
		if n.ParentID != nil {
			parentID = *n.ParentID
		}

		children := make([]uint64, 0, len(n.Children))
		for childID := range n.Children {
			children = append(children, childID)
		}
		sort.Slice(children, func(i, j int) bool { return children[i] < children[j] })

		if len(children) > 255 {
			return nil, fmt.Errorf("store: node %d has %d children, exceeds the u8 numChildren limit of 255", n.ID, len(children))
		}

		if err := binary.Write(&buf, binary.BigEndian, n.ID); err != nil {
			return nil, err
		}
		if err := binary.Write(&buf, binary.BigEndian, parentID); err != nil {
			return nil, err
		}
		if err := binary.Write(&buf, binary.BigEndian, uint64(0)); err != nil {
			return nil, err
		}
		buf.WriteByte(byte(len(children)))
		for _, childID := range children {
			if err := binary.Write(&buf, binary.BigEndian, childID); err != nil {
				return nil, err
			}
		}
	}

	return buf.Bytes(), nil
}
