// Package region maps face mesh landmark indices to named face regions.
package region

import (
	"fmt"
	"sort"
)

// Name is a human-readable face region.
type Name string

// Face regions. Left and right are from the subject's own perspective on a
// mirrored frame.
const (
	Nose       Name = "Nose"
	LeftEye    Name = "Left Eye"
	RightEye   Name = "Right Eye"
	Mouth      Name = "Mouth"
	Forehead   Name = "Forehead"
	LeftCheek  Name = "Left Cheek"
	RightCheek Name = "Right Cheek"

	// None is displayed when no region is detected. It is never a table value.
	None Name = "None"
)

// Table maps a face landmark index to the region it belongs to.
// A region may own several indices; each index has exactly one region.
type Table map[int]Name

// primary holds one anchor landmark per region.
var primary = Table{
	1:   Nose,
	33:  LeftEye,
	263: RightEye,
	61:  Mouth,
	10:  Forehead,
	50:  LeftCheek,
	280: RightCheek,
}

// coverage pads each region with nearby landmarks so jitter and mirroring
// still land on a labeled point. Regions end up with different point counts,
// which makes mouth and the cheeks easier to hit than the forehead.
var coverage = Table{
	2: Nose, 5: Nose, 6: Nose,

	159: LeftEye, 145: LeftEye, 133: LeftEye,
	386: RightEye, 374: RightEye, 362: RightEye,

	13: Mouth, 14: Mouth, 17: Mouth, 18: Mouth, 200: Mouth,

	9: Forehead, 151: Forehead,

	116: LeftCheek, 117: LeftCheek, 118: LeftCheek,
	345: RightCheek, 346: RightCheek, 347: RightCheek,
}

// Default returns a fresh copy of the built-in lookup table.
func Default() Table {
	t := make(Table, len(primary)+len(coverage))
	for idx, name := range primary {
		t[idx] = name
	}
	for idx, name := range coverage {
		t[idx] = name
	}
	return t
}

// Lookup returns the region for a landmark index. Unlabeled indices return false.
func (t Table) Lookup(index int) (Name, bool) {
	name, ok := t[index]
	return name, ok
}

// Validate checks that every key is a valid index for a face mesh of
// numLandmarks points and that no key maps to an empty name.
func (t Table) Validate(numLandmarks int) error {
	for idx, name := range t {
		if idx < 0 || idx >= numLandmarks {
			return fmt.Errorf("landmark index %d out of range [0,%d)", idx, numLandmarks)
		}
		if name == "" || name == None {
			return fmt.Errorf("landmark index %d has no region name", idx)
		}
	}
	return nil
}

// Coverage returns the number of landmarks assigned to each region.
func (t Table) Coverage() map[Name]int {
	counts := make(map[Name]int)
	for _, name := range t {
		counts[name]++
	}
	return counts
}

// Names returns the distinct region names in the table, sorted.
func (t Table) Names() []Name {
	seen := make(map[Name]struct{})
	for _, name := range t {
		seen[name] = struct{}{}
	}

	names := make([]Name, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Indices returns the labeled landmark indices for a region in ascending order.
func (t Table) Indices(name Name) []int {
	var out []int
	for idx, n := range t {
		if n == name {
			out = append(out, idx)
		}
	}
	sort.Ints(out)
	return out
}
