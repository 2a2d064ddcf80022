// Package types provides type definitions for structured data used throughout the resume-screener system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// DegreeLevel is an ordinal position on the education hierarchy
type DegreeLevel int

// Degree levels, ascending
const (
	DegreeNone        DegreeLevel = 0
	DegreeCertificate DegreeLevel = 1
	DegreeDiploma     DegreeLevel = 2
	DegreeBachelor    DegreeLevel = 3
	DegreeMaster      DegreeLevel = 4
	DegreePhD         DegreeLevel = 5
)

var degreeNames = map[DegreeLevel]string{
	DegreeNone:        "none",
	DegreeCertificate: "certificate",
	DegreeDiploma:     "diploma",
	DegreeBachelor:    "bachelor",
	DegreeMaster:      "master",
	DegreePhD:         "phd",
}

// String returns the lowercase name of the degree level
func (d DegreeLevel) String() string {
	if name, ok := degreeNames[d]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether d lies on the hierarchy.
func (d DegreeLevel) Valid() bool {
	return d >= DegreeNone && d <= DegreePhD
}
