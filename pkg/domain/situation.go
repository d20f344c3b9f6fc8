package domain

import (
	dErrors "tributo/pkg/domain-errors"
)

// Situation is the single-digit emission situation flag in the clave.
// It records the connectivity protocol the document was emitted under.
type Situation string

const (
	SituationNormal      Situation = "1"
	SituationContingency Situation = "2"
	SituationOffline     Situation = "3"
)

var validSituations = map[Situation]bool{
	SituationNormal:      true,
	SituationContingency: true,
	SituationOffline:     true,
}

// ParseSituation validates and returns a Situation flag.
func ParseSituation(s string) (Situation, error) {
	sit := Situation(s)
	if !validSituations[sit] {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown situation flag: %q", s)
	}
	return sit, nil
}

func (s Situation) String() string {
	return string(s)
}
