package catasto

import (
	"fmt"
	"strings"
	"time"
)

// Kind is one of the two cadastral geometry categories, told apart by filename suffix.
type Kind string

const (
	// KindParcels identifies parcel files ("particelle"), suffix _ple.gml.
	KindParcels Kind = "ple"

	// KindMap identifies map sheet files ("mappe"), suffix _map.gml.
	KindMap Kind = "map"
)

// Kinds returns every kind in processing order.
func Kinds() []Kind {
	return []Kind{KindParcels, KindMap}
}

// Suffix returns the filename suffix that selects entries of this kind.
func (k Kind) Suffix() string {
	return "_" + string(k) + ".gml"
}

// Layer returns the package layer name that stores features of this kind.
func (k Kind) Layer() string {
	return string(k) + "_layer"
}

// KindForName classifies an archive entry name by suffix.
// The comparison ignores case. Returns false for entries of neither kind.
func KindForName(name string) (Kind, bool) {
	lower := strings.ToLower(name)
	for _, k := range Kinds() {
		if strings.HasSuffix(lower, k.Suffix()) {
			return k, true
		}
	}
	return "", false
}

// Region groups the top-level archives that share a region code.
type Region struct {
	// Code is the upper-case two-letter province code, e.g. "VE".
	Code string

	// Archives are absolute paths of the top-level archives, in discovery order.
	Archives []string
}

// ExtractedFile records where a GML file came from and where it was written.
// It lives only as long as the region scratch directory.
type ExtractedFile struct {
	// Path is the extracted file inside the scratch directory.
	Path string

	// OriginalName is the base name of the entry inside the nested archive.
	OriginalName string

	// Region is the code of the top-level archive the file came from.
	Region string

	// Kind is derived from the filename suffix.
	Kind Kind
}

// Status is the outcome of one unit of work.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// EntryResult describes one nested archive inside a top-level archive.
type EntryResult struct {
	Name      string `json:"name"`
	Status    Status `json:"status"`
	Reason    string `json:"reason,omitempty"`
	Extracted int    `json:"extracted"`
}

// ArchiveResult describes one top-level archive.
type ArchiveResult struct {
	Path      string        `json:"path"`
	Checksum  string        `json:"checksum,omitempty"`
	Status    Status        `json:"status"`
	Reason    string        `json:"reason,omitempty"`
	Extracted int           `json:"extracted"`
	Entries   []EntryResult `json:"entries,omitempty"`
}

// FileResult describes how one extracted GML file fared in the merge.
type FileResult struct {
	Name     string `json:"name"`
	Kind     Kind   `json:"kind"`
	Status   Status `json:"status"`
	Reason   string `json:"reason,omitempty"`
	Locality string `json:"comune,omitempty"`
	Kept     int    `json:"kept"`
	Repaired int    `json:"repaired"`
	Dropped  int    `json:"dropped"`
}

// LayerResult describes one layer written to (or missing from) a package.
type LayerResult struct {
	Layer  string `json:"layer"`
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
	Rows   int    `json:"rows"`
}

// CleanupResult describes the deletion of one intermediate package.
type CleanupResult struct {
	Path   string `json:"path"`
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// RegionResult aggregates everything that happened to one region.
type RegionResult struct {
	Code     string          `json:"provincia"`
	Status   Status          `json:"status"`
	Reason   string          `json:"reason,omitempty"`
	Package  string          `json:"package,omitempty"`
	Archives []ArchiveResult `json:"archives"`
	Files    []FileResult    `json:"files,omitempty"`
	Layers   []LayerResult   `json:"layers,omitempty"`
	Duration time.Duration   `json:"duration_ns"`
}

// Report is the structured outcome of a conversion run.
type Report struct {
	RunID      string          `json:"run_id"`
	RootDir    string          `json:"root_dir"`
	Output     string          `json:"output,omitempty"`
	Regions    []RegionResult  `json:"regions"`
	Final      []LayerResult   `json:"final,omitempty"`
	Cleanup    []CleanupResult `json:"cleanup,omitempty"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
}

// RegionsWithStatus returns the codes of regions that ended with the given status.
func (r *Report) RegionsWithStatus(status Status) []string {
	var codes []string
	for _, region := range r.Regions {
		if region.Status == status {
			codes = append(codes, region.Code)
		}
	}
	return codes
}

// FinalRows returns the number of rows written to the named final layer.
func (r *Report) FinalRows(layer string) int {
	for _, l := range r.Final {
		if l.Layer == layer && l.Status == StatusSucceeded {
			return l.Rows
		}
	}
	return 0
}

// Summary returns a one-line description of the run.
func (r *Report) Summary() string {
	return fmt.Sprintf("%d region(s): %d succeeded, %d skipped, %d failed",
		len(r.Regions),
		len(r.RegionsWithStatus(StatusSucceeded)),
		len(r.RegionsWithStatus(StatusSkipped)),
		len(r.RegionsWithStatus(StatusFailed)),
	)
}
