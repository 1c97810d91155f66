package contract

import (
	"bytes"
	"container/heap"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"

	"github.com/Georgantas/sapio/errors"
	"github.com/Georgantas/sapio/policy"
)

// numsKey returns the fixed unspendable internal key used when no
// clause contributes a key-path key: the sha256 of thirty-two 0x01
// bytes, interpreted as an x-only point.
func numsKey() (*btcec.PublicKey, error) {
	seed := sha256.Sum256(bytes.Repeat([]byte{1}, 32))
	key, err := schnorr.ParsePubKey(seed[:])
	if err != nil {
		return nil, errors.Wrap(err, "parsing nums point")
	}
	return key, nil
}

// scriptLeaf is one spending condition lowered to a tapscript, plus
// the merkle depth it lands at once the tree is laid out.
type scriptLeaf struct {
	clause policy.Clause
	script []byte
	depth  int
}

// satisfactionWeight is the worst-case control-plane weight of
// spending this leaf: witness stack, script reveal, and control block
// for its depth.
func (l *scriptLeaf) satisfactionWeight() int {
	return policy.MaxWitnessSize(l.clause) + len(l.script) + 33 + 32*l.depth
}

type treeNode struct {
	weight uint64
	seq    int
	tap    txscript.TapNode
	left   *treeNode
	right  *treeNode
	leaf   *scriptLeaf
}

// nodeHeap orders nodes by weight, breaking ties by insertion order so
// the layout is a pure function of the leaf list.
type nodeHeap []*treeNode

func (h nodeHeap) Len() int { return len(h) }
func (h nodeHeap) Less(i, j int) bool {
	if h[i].weight != h[j].weight {
		return h[i].weight < h[j].weight
	}
	return h[i].seq < h[j].seq
}
func (h nodeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x interface{}) { *h = append(*h, x.(*treeNode)) }
func (h *nodeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// buildTree merges the leaves bottom-up, lightest pair first, and
// records each leaf's final depth. It returns nil for an empty leaf
// list.
func buildTree(leaves []*scriptLeaf) *treeNode {
	if len(leaves) == 0 {
		return nil
	}
	h := make(nodeHeap, 0, len(leaves))
	for i, l := range leaves {
		h = append(h, &treeNode{weight: 1, seq: i, tap: txscript.NewBaseTapLeaf(l.script), leaf: l})
	}
	heap.Init(&h)
	seq := len(leaves)
	for h.Len() > 1 {
		a := heap.Pop(&h).(*treeNode)
		b := heap.Pop(&h).(*treeNode)
		heap.Push(&h, &treeNode{
			weight: a.weight + b.weight,
			seq:    seq,
			tap:    txscript.NewTapBranch(a.tap, b.tap),
			left:   a,
			right:  b,
		})
		seq++
	}
	root := heap.Pop(&h).(*treeNode)
	setDepths(root, 0)
	return root
}

func setDepths(n *treeNode, depth int) {
	if n.leaf != nil {
		n.leaf.depth = depth
		return
	}
	setDepths(n.left, depth+1)
	setDepths(n.right, depth+1)
}

// scriptTree is the finished taproot commitment of one compilation.
type scriptTree struct {
	internalKey *btcec.PublicKey
	outputKey   *btcec.PublicKey
	leaves      []*scriptLeaf
	root        *treeNode
}

// newScriptTree lowers the clauses, picks the internal key, and
// commits the merkle tree. The internal key is the key of the first
// bare key clause, if any; the clause still keeps its leaf, so a
// script path always exists for it. Without a key clause the fixed
// nums point is used and only script paths can spend.
func newScriptTree(clauses []policy.Clause) (*scriptTree, error) {
	internal, err := numsKey()
	if err != nil {
		return nil, err
	}
	keyChosen := false
	leaves := make([]*scriptLeaf, 0, len(clauses))
	for _, c := range clauses {
		if k, ok := c.(policy.Key); ok && !keyChosen {
			internal = k.Pk
			keyChosen = true
		}
		script, err := policy.Compile(c)
		if err != nil {
			return nil, err
		}
		leaves = append(leaves, &scriptLeaf{clause: c, script: script})
	}

	t := &scriptTree{internalKey: internal, leaves: leaves}
	t.root = buildTree(leaves)
	if t.root == nil {
		t.outputKey = txscript.ComputeTaprootKeyNoScript(internal)
	} else {
		rootHash := t.root.tap.TapHash()
		t.outputKey = txscript.ComputeTaprootOutputKey(internal, rootHash[:])
	}
	return t, nil
}

// address returns the taproot address of the committed output key.
func (t *scriptTree) address(net *chaincfg.Params) (btcutil.Address, error) {
	return btcutil.NewAddressTaproot(schnorr.SerializePubKey(t.outputKey), net)
}

// descriptor renders the tree as a tr() output descriptor with raw()
// leaves, mirroring the merkle layout.
func (t *scriptTree) descriptor() string {
	key := hex.EncodeToString(schnorr.SerializePubKey(t.internalKey))
	if t.root == nil {
		return fmt.Sprintf("tr(%s)", key)
	}
	return fmt.Sprintf("tr(%s,%s)", key, nodeDescriptor(t.root))
}

func nodeDescriptor(n *treeNode) string {
	if n.leaf != nil {
		return fmt.Sprintf("raw(%s)", hex.EncodeToString(n.leaf.script))
	}
	return fmt.Sprintf("{%s,%s}", nodeDescriptor(n.left), nodeDescriptor(n.right))
}

// maxSatisfactionWeight is the worst case over all leaves, used for
// fee-safety estimation. Zero when only the key path exists.
func (t *scriptTree) maxSatisfactionWeight() int {
	max := 0
	for _, l := range t.leaves {
		if w := l.satisfactionWeight(); w > max {
			max = w
		}
	}
	return max
}
