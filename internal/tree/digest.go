package tree

import (
	"encoding/binary"

	"github.com/minio/highwayhash"
)

var digestKey = []byte("treemerge-digest-0123456789ABCDE")

// Digest is a 64-bit structural fingerprint of the tree: node kinds, keys,
// nesting and per-target presence, in canonical order. It does not depend
// on the order nodes were created in, nor on slot payload contents.
func (t *Tree) Digest() (uint64, error) {
	h, err := highwayhash.New64(digestKey)
	if err != nil {
		return 0, err
	}
	var buf [4]byte
	t.Walk(func(id NodeID, depth int) bool {
		n := t.nodes[id]
		binary.LittleEndian.PutUint32(buf[:], uint32(depth))
		h.Write(buf[:])
		h.Write([]byte{byte(n.kind)})
		binary.LittleEndian.PutUint32(buf[:], uint32(len(n.key)))
		h.Write(buf[:])
		h.Write([]byte(n.key))
		h.Write([]byte(t.PresenceString(id)))
		return true
	})
	return h.Sum64(), nil
}
