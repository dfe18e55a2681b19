// Package catalog groups scanned datasets by acquisition month and assigns
// the 1-based display indices operators select by.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/fyrsmithlabs/fmrimap/internal/dataset"
)

// ErrNoDatasetsFound is returned when no dataset carries a usable date key.
var ErrNoDatasetsFound = errors.New("no datasets found")

// RescanLabel heads the group of datasets indexed by Merge.
const RescanLabel = "Found on rescan"

// Entry is one indexed dataset.
type Entry struct {
	Index   int
	Dataset dataset.Dataset

	// Missing marks an entry that disappeared on a later scan. It keeps
	// its index but is not selectable.
	Missing bool

	// Rescanned marks an entry indexed by Merge rather than Build.
	Rescanned bool
}

// Group is a (year, month) bucket of entries. Month is 0 when the date key
// carries an out-of-range month. The trailing Rescan group holds every
// entry added by Merge and has no year or month.
type Group struct {
	Year    int
	Month   int
	Label   string
	Rescan  bool
	Entries []*Entry
}

// Catalog is the indexed, grouped view of a scan. Indices are stable for
// the lifetime of the Catalog.
type Catalog struct {
	entries []*Entry // index order
	byIndex map[int]*Entry
	byPath  map[string]*Entry
	groups  []Group
	dropped []dataset.Dataset
}

// MergeResult summarises a Merge.
type MergeResult struct {
	Added   int
	Missing int
}

// Build sorts datasets by date key (newest first, ties in discovery order),
// assigns indices 1..N in that order and groups them by month. Datasets
// without a date key are left out and reported by Dropped.
func Build(datasets []dataset.Dataset) (*Catalog, error) {
	c := &Catalog{
		byIndex: make(map[int]*Entry),
		byPath:  make(map[string]*Entry),
	}

	c.add(datasets, false)
	if len(c.entries) == 0 {
		return nil, fmt.Errorf("%w: %d scanned, none with a YYYYMMDD_ name prefix", ErrNoDatasetsFound, len(datasets))
	}
	return c, nil
}

// add indexes the unseen datasets with date keys after the current maximum
// index and returns how many were added.
func (c *Catalog) add(datasets []dataset.Dataset, rescanned bool) int {
	fresh := make([]dataset.Dataset, 0, len(datasets))
	for _, d := range datasets {
		if _, seen := c.byPath[d.Path]; seen {
			continue
		}
		if d.DateKey == "" {
			if !c.isDropped(d.Path) {
				c.dropped = append(c.dropped, d)
			}
			continue
		}
		fresh = append(fresh, d)
	}

	sort.SliceStable(fresh, func(i, j int) bool {
		yi, mi := yearMonth(fresh[i].DateKey)
		yj, mj := yearMonth(fresh[j].DateKey)
		if yi != yj {
			return yi > yj
		}
		if mi != mj {
			return mi > mj
		}
		return fresh[i].DateKey > fresh[j].DateKey
	})

	for _, d := range fresh {
		e := &Entry{Index: len(c.entries) + 1, Dataset: d, Rescanned: rescanned}
		c.entries = append(c.entries, e)
		c.byIndex[e.Index] = e
		c.byPath[d.Path] = e
	}
	c.regroup()
	return len(fresh)
}

func (c *Catalog) isDropped(path string) bool {
	for _, d := range c.dropped {
		if d.Path == path {
			return true
		}
	}
	return false
}

// regroup chunks entries in index order into consecutive month groups, so
// print order always equals index order. Entries from Build come first and
// are already month sorted; Merge additions follow under one RescanLabel
// group so no month heading repeats.
func (c *Catalog) regroup() {
	c.groups = nil
	var rescanned []*Entry
	for _, e := range c.entries {
		if e.Rescanned {
			rescanned = append(rescanned, e)
			continue
		}
		year, month := yearMonth(e.Dataset.DateKey)
		n := len(c.groups)
		if n > 0 && c.groups[n-1].Year == year && c.groups[n-1].Month == month {
			c.groups[n-1].Entries = append(c.groups[n-1].Entries, e)
			continue
		}
		c.groups = append(c.groups, Group{
			Year:    year,
			Month:   month,
			Label:   Label(year, month),
			Entries: []*Entry{e},
		})
	}
	if len(rescanned) > 0 {
		c.groups = append(c.groups, Group{Label: RescanLabel, Rescan: true, Entries: rescanned})
	}
}

// yearMonth splits a YYYYMMDD key. Out-of-range months map to 0, which
// sorts below every valid month of the same year.
func yearMonth(key string) (int, int) {
	if len(key) < 6 {
		return 0, 0
	}
	year, _ := strconv.Atoi(key[:4])
	month, err := strconv.Atoi(key[4:6])
	if err != nil || month < 1 || month > 12 {
		month = 0
	}
	return year, month
}

// Label renders a group heading such as "January 2024", or "Unknown 2024"
// when month is out of range.
func Label(year, month int) string {
	if month < 1 || month > 12 {
		return fmt.Sprintf("Unknown %d", year)
	}
	return fmt.Sprintf("%s %d", time.Month(month), year)
}

// Merge folds a re-scan into the catalog. Known paths keep their index and
// take the fresh metadata; new datasets are indexed after the current
// maximum in catalog sort order; vanished datasets keep their index and
// are marked missing.
func (c *Catalog) Merge(datasets []dataset.Dataset) MergeResult {
	current := make(map[string]dataset.Dataset, len(datasets))
	for _, d := range datasets {
		current[d.Path] = d
	}

	var res MergeResult
	for _, e := range c.entries {
		d, ok := current[e.Dataset.Path]
		e.Missing = !ok
		if ok {
			e.Dataset = d
			continue
		}
		res.Missing++
	}

	res.Added = c.add(datasets, true)
	return res
}

// Groups returns the groups in print order.
func (c *Catalog) Groups() []Group {
	return c.groups
}

// Entries returns all entries in index order.
func (c *Catalog) Entries() []*Entry {
	return c.entries
}

// Len returns the number of indexed datasets, N.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Dropped returns the scanned datasets left out for lacking a date key.
func (c *Catalog) Dropped() []dataset.Dataset {
	return c.dropped
}

// Lookup maps a display index back to its entry.
func (c *Catalog) Lookup(index int) (*Entry, bool) {
	e, ok := c.byIndex[index]
	return e, ok
}

// Resolve maps display indices to datasets in the given order. Unknown
// indices and missing entries are skipped.
func (c *Catalog) Resolve(indices []int) []dataset.Dataset {
	out := make([]dataset.Dataset, 0, len(indices))
	for _, i := range indices {
		e, ok := c.byIndex[i]
		if !ok || e.Missing {
			continue
		}
		out = append(out, e.Dataset)
	}
	return out
}
