// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_services

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"sort"

	internal_entity "github.com/rapidaai/voicecollect/internal/entity"
)

// SplitNames in assignment order. The order matters: it is the tie-break for
// remainder distribution.
var SplitNames = [3]string{"train", "dev", "test"}

// ratioEpsilon is the tolerance on the ratio sum.
const ratioEpsilon = 1e-6

// ValidateRatios checks that the three split fractions sum to 1.0 within
// epsilon.
func ValidateRatios(train, dev, test float64) error {
	if train < 0 || dev < 0 || test < 0 {
		return fmt.Errorf("%w: negative ratio", ErrInvalidRatios)
	}
	if math.Abs(train+dev+test-1.0) > ratioEpsilon {
		return fmt.Errorf("%w: got %.4f + %.4f + %.4f = %.4f",
			ErrInvalidRatios, train, dev, test, train+dev+test)
	}
	return nil
}

// SplitCounts partitions n into train/dev/test counts by the largest
// remainder method: each split gets floor(ratio*n), then the leftover units
// go one at a time to the splits with the largest fractional remainder,
// ties broken by split order (train, dev, test). The counts always sum to n
// exactly, for any n >= 0 and ratios summing to 1.0.
func SplitCounts(n int, train, dev, test float64) [3]int {
	ratios := [3]float64{train, dev, test}
	var counts [3]int
	var fractions [3]float64

	assigned := 0
	for i, r := range ratios {
		exact := r * float64(n)
		counts[i] = int(math.Floor(exact))
		fractions[i] = exact - math.Floor(exact)
		assigned += counts[i]
	}

	// Distribute the remainder by descending fractional part; sort.SliceStable
	// keeps split order for equal fractions.
	order := []int{0, 1, 2}
	sort.SliceStable(order, func(a, b int) bool {
		return fractions[order[a]] > fractions[order[b]]
	})
	for i := 0; i < n-assigned; i++ {
		counts[order[i%3]]++
	}
	return counts
}

// AssignSplits partitions recordings into train/dev/test slices. Assignment
// is deterministic for a fixed input set and configuration:
//
//   - "random" shuffles a copy with a rand source seeded from the FNV-64a
//     hash of the export name;
//   - "chronological" (or anything else) keeps ascending id order.
//
// The input slice itself is never reordered.
func AssignSplits(recordings []*internal_entity.Recording, strategy, exportName string, counts [3]int) [3][]*internal_entity.Recording {
	ordered := make([]*internal_entity.Recording, len(recordings))
	copy(ordered, recordings)
	sort.SliceStable(ordered, func(a, b int) bool { return ordered[a].Id < ordered[b].Id })

	if strategy == internal_entity.SplitStrategyRandom {
		rng := rand.New(rand.NewSource(splitSeed(exportName)))
		rng.Shuffle(len(ordered), func(i, j int) {
			ordered[i], ordered[j] = ordered[j], ordered[i]
		})
	}

	var splits [3][]*internal_entity.Recording
	offset := 0
	for i, count := range counts {
		splits[i] = ordered[offset : offset+count]
		offset += count
	}
	return splits
}

func splitSeed(exportName string) int64 {
	h := fnv.New64a()
	h.Write([]byte(exportName))
	return int64(h.Sum64())
}
