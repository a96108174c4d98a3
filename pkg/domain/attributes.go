package domain

// Attributes are the classification facets of an identity used for
// expectation resolution and alert routing. They never carry biometric data.
type Attributes struct {
	Cohort string // program of study or staff unit
	Year   int    // zero for staff
	Group  string // section within a cohort
}
