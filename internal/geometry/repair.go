package geometry

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/twpayne/go-geos"
)

// ErrEngine wraps any failure raised by the geometry engine.
var ErrEngine = errors.New("geometry engine error")

// bufferQuadSegs is the number of segments per quarter circle GEOS uses for buffers.
// A zero-width buffer creates no arcs, so the value only matters to GEOS internals.
const bufferQuadSegs = 8

// Outcome tells what Repair did to a geometry.
type Outcome int

const (
	// OutcomeValid means the geometry was already valid and returned unchanged.
	OutcomeValid Outcome = iota
	// OutcomeRepaired means the geometry was invalid and replaced by buffer(0).
	OutcomeRepaired
)

func (o Outcome) String() string {
	switch o {
	case OutcomeValid:
		return "valid"
	case OutcomeRepaired:
		return "repaired"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Repairer validates and repairs geometries.
type Repairer struct {
	ctx *geos.Context
}

// NewRepairer creates a repairer with its own GEOS context.
func NewRepairer() *Repairer {
	return &Repairer{ctx: geos.NewContext()}
}

// Repair returns g unchanged when it is valid, or its buffer(0) when it is not.
// A repair that collapses the geometry returns an empty polygonal geometry,
// which is valid. Errors wrap ErrEngine.
func (r *Repairer) Repair(g orb.Geometry) (out orb.Geometry, outcome Outcome, err error) {
	defer recoverEngine(&err)

	gg, err := r.toGEOS(g)
	if err != nil {
		return nil, OutcomeValid, err
	}

	if gg.IsValid() {
		return g, OutcomeValid, nil
	}

	buffered := gg.Buffer(0, bufferQuadSegs)
	if buffered == nil {
		return nil, OutcomeRepaired, fmt.Errorf("%w: buffer returned no geometry", ErrEngine)
	}
	if buffered.IsEmpty() {
		return emptyLike(g), OutcomeRepaired, nil
	}

	repaired, err := wkb.Unmarshal(buffered.ToWKB())
	if err != nil {
		return nil, OutcomeRepaired, fmt.Errorf("%w: decoding repaired geometry: %v", ErrEngine, err)
	}
	return repaired, OutcomeRepaired, nil
}

// emptyLike returns the empty polygonal geometry matching the type of g.
func emptyLike(g orb.Geometry) orb.Geometry {
	if _, ok := g.(orb.MultiPolygon); ok {
		return orb.MultiPolygon{}
	}
	return orb.Polygon{}
}

// IsValid reports whether GEOS considers g valid.
func (r *Repairer) IsValid(g orb.Geometry) (valid bool, err error) {
	defer recoverEngine(&err)

	gg, err := r.toGEOS(g)
	if err != nil {
		return false, err
	}
	return gg.IsValid(), nil
}

// Reason returns the GEOS explanation for an invalid geometry, or "Valid Geometry".
func (r *Repairer) Reason(g orb.Geometry) (reason string, err error) {
	defer recoverEngine(&err)

	gg, err := r.toGEOS(g)
	if err != nil {
		return "", err
	}
	return gg.IsValidReason(), nil
}

func (r *Repairer) toGEOS(g orb.Geometry) (*geos.Geom, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: nil geometry", ErrEngine)
	}
	data, err := wkb.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding WKB: %v", ErrEngine, err)
	}
	gg, err := r.ctx.NewGeomFromWKB(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngine, err)
	}
	return gg, nil
}

// recoverEngine converts a GEOS panic into an ErrEngine error.
func recoverEngine(err *error) {
	if rec := recover(); rec != nil {
		*err = fmt.Errorf("%w: %v", ErrEngine, rec)
	}
}
