package partition_test

import (
	"fmt"

	"github.com/matzehuels/macroplace/pkg/adjacency"
	"github.com/matzehuels/macroplace/pkg/geom"
	"github.com/matzehuels/macroplace/pkg/macro"
	"github.com/matzehuels/macroplace/pkg/partition"
)

func ExamplePartitioner_Partition() {
	ms := []macro.Macro{
		{Name: "M0", W: 20, H: 20},
		{Name: "M1", W: 20, H: 20},
		{Name: "M2", W: 20, H: 20},
		{Name: "M3", W: 20, H: 20},
	}
	// M0 talks to M2 and M1 to M3; nothing crosses.
	w := adjacency.NewWeights(len(ms))
	w.AddPair(0, 2, 10)
	w.AddPair(1, 3, 10)

	p, err := partition.New(geom.Rect{UX: 100, UY: 100}, ms, w, partition.Options{LeafSize: 2, Seed: 1})
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	tree := p.Partition()
	leafOf := tree.LeafOf(len(ms))

	fmt.Println("leaves:", len(tree.Leaves()))
	fmt.Println("M0 with M2:", leafOf[0] == leafOf[2])
	fmt.Println("M1 with M3:", leafOf[1] == leafOf[3])
	fmt.Println("M0 with M1:", leafOf[0] == leafOf[1])
	// Output:
	// leaves: 2
	// M0 with M2: true
	// M1 with M3: true
	// M0 with M1: false
}
