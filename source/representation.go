package source

import (
	"sort"

	"github.com/samber/lo"
)

// MediaKind tells which elementary stream a representation carries.
type MediaKind int

const (
	Video MediaKind = iota
	Audio
)

func (k MediaKind) String() string {
	if k == Audio {
		return "audio"
	}
	return "video"
}

func (k MediaKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Variant distinguishes the two encodings offered per tier.
// Primary is the higher-efficiency codec, Alternate the widely compatible one.
type Variant int

const (
	Primary Variant = iota
	Alternate
)

func (v Variant) String() string {
	if v == Alternate {
		return "alternate"
	}
	return "primary"
}

func (v Variant) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// Representation is one concrete encoded stream of a video.
type Representation struct {
	ID      string    `json:"id"`
	URL     string    `json:"url"`
	Kind    MediaKind `json:"kind"`
	Variant Variant   `json:"variant"`
}

// String returns the identifier and kind for display.
func (r Representation) String() string {
	return r.ID + " (" + r.Kind.String() + ", " + r.Variant.String() + ")"
}

// Catalog is the immutable set of representations available for one video.
type Catalog struct {
	items map[string]Representation
}

// NewCatalog indexes the representations by id. Later duplicates win.
func NewCatalog(reps ...Representation) Catalog {
	items := make(map[string]Representation, len(reps))
	for _, r := range reps {
		items[r.ID] = r
	}
	return Catalog{items: items}
}

// Get returns the representation with the given id.
func (c Catalog) Get(id string) (Representation, bool) {
	r, ok := c.items[id]
	return r, ok
}

// Has reports whether the id is present.
func (c Catalog) Has(id string) bool {
	_, ok := c.items[id]
	return ok
}

// Len returns the number of representations.
func (c Catalog) Len() int {
	return len(c.items)
}

// IDs returns the sorted representation ids.
func (c Catalog) IDs() []string {
	ids := lo.Keys(c.items)
	sort.Strings(ids)
	return ids
}

// Of returns the representations of one kind, sorted by id.
func (c Catalog) Of(kind MediaKind) []Representation {
	reps := lo.Filter(lo.Values(c.items), func(r Representation, _ int) bool {
		return r.Kind == kind
	})
	sort.Slice(reps, func(i, j int) bool { return reps[i].ID < reps[j].ID })
	return reps
}
