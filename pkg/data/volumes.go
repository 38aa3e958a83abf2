package data

import "math"

// ChapterEntry is one chapter of a catalog chapter list, in reading order.
type ChapterEntry struct {
	ID       string
	Title    string
	Language string
	Chapter  float64
	Volume   *int
	Oneshot  bool
}

// VolumeTable is the renumbering table for series whose chapter numbers start
// again at every volume.
type VolumeTable struct {
	Reset  bool
	Count  map[int]int
	Offset map[int]int
}

// DetectVolumes scans a chapter list in reading order. A reset is a volume
// increase landing on chapter 1 or lower. Count holds, for every volume that
// was left during the scan, the number of distinct integral chapters it had.
//
// Offset is 1 for a volume whose first chapter is exactly 1 once a chapter 0
// has been counted in an earlier volume: the scale is then 0-based and the
// volume's first unit is already part of the running total. A series starting
// at chapter 1 keeps chapter 1 as its first continuous chapter.
func DetectVolumes(entries []ChapterEntry) VolumeTable {
	table := VolumeTable{Count: map[int]int{}, Offset: map[int]int{}}

	var (
		current    int
		hasCurrent bool
		zeroBased  bool
		seen       = map[int]map[int]bool{}
	)
	for _, e := range entries {
		if e.Volume == nil || e.Oneshot {
			continue
		}
		v := *e.Volume
		if hasCurrent && v > current {
			if e.Chapter <= 1 {
				table.Reset = true
			}
			table.Count[current] = len(seen[current])
			if seen[current][0] {
				zeroBased = true
			}
		}
		current, hasCurrent = v, true

		if seen[v] == nil {
			seen[v] = map[int]bool{}
			if e.Chapter == 1 && zeroBased {
				table.Offset[v] = 1
			}
		}
		if e.Chapter == math.Trunc(e.Chapter) {
			seen[v][int(e.Chapter)] = true
		}
	}
	return table
}

// Convert maps a volume-local chapter to the continuous scale:
// chapter + sum(Count[v] for v < volume) - Offset[volume].
// Titles without a detected reset, and chapters without a volume, are
// returned unchanged.
func (t VolumeTable) Convert(chapter float64, volume *int) float64 {
	if !t.Reset || volume == nil {
		return chapter
	}
	total := 0
	for v, count := range t.Count {
		if v < *volume {
			total += count
		}
	}
	return chapter + float64(total) - float64(t.Offset[*volume])
}

// Renumber converts a whole chapter list. When two different chapters land
// on the same number the later one is pushed forward by 0.5 until it finds a
// free slot. Repeated entries for the same chapter share their number.
func (t VolumeTable) Renumber(entries []ChapterEntry) []float64 {
	type origin struct {
		chapter float64
		volume  int
		hasVol  bool
	}
	owners := make(map[float64]origin, len(entries))
	assigned := make(map[origin]float64, len(entries))
	out := make([]float64, len(entries))

	for i, e := range entries {
		key := origin{chapter: e.Chapter}
		if e.Volume != nil {
			key.volume, key.hasVol = *e.Volume, true
		}
		if n, ok := assigned[key]; ok {
			out[i] = n
			continue
		}
		n := t.Convert(e.Chapter, e.Volume)
		for {
			owner, taken := owners[n]
			if !taken || owner == key {
				break
			}
			n += 0.5
		}
		owners[n] = key
		assigned[key] = n
		out[i] = n
	}
	return out
}
