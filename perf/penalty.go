package perf

import (
	"math"
	"strings"

	"github.com/pkg/errors"
)

// PenaltyType names the rule used to derive the threshold a change point
// statistic must exceed.
type PenaltyType string

const (
	// PenaltyMBIC is the modified BIC, 3·log(n).
	PenaltyMBIC PenaltyType = "mbic"
	// PenaltyBIC is the Schwarz information criterion, log(n).
	PenaltyBIC PenaltyType = "bic"
	// PenaltyAIC is the Akaike information criterion, 2.
	PenaltyAIC PenaltyType = "aic"
	// PenaltyHannanQuinn is 2·log(log(n)).
	PenaltyHannanQuinn PenaltyType = "hannan-quinn"
	// PenaltyManual uses Penalty.Value unchanged.
	PenaltyManual PenaltyType = "manual"
	// PenaltyNone accepts any strictly positive statistic.
	PenaltyNone PenaltyType = "none"
)

// DefaultPenalty is the threshold rule used when none is configured.
const DefaultPenalty = PenaltyMBIC

// PenaltyTypes returns every supported penalty rule.
func PenaltyTypes() []PenaltyType {
	return []PenaltyType{PenaltyMBIC, PenaltyBIC, PenaltyAIC, PenaltyHannanQuinn, PenaltyManual, PenaltyNone}
}

// Validate returns an error for unknown penalty types.
func (t PenaltyType) Validate() error {
	for _, known := range PenaltyTypes() {
		if t == known {
			return nil
		}
	}
	return errors.Errorf("'%s' is not a valid penalty type", t)
}

// ParsePenaltyType converts user input, such as a flag value, to a
// PenaltyType. The empty string selects the default.
func ParsePenaltyType(in string) (PenaltyType, error) {
	in = strings.ToLower(strings.TrimSpace(in))
	switch in {
	case "":
		return DefaultPenalty, nil
	case "sic":
		return PenaltyBIC, nil
	case "hq", "hannan_quinn":
		return PenaltyHannanQuinn, nil
	}
	t := PenaltyType(in)
	return t, errors.WithStack(t.Validate())
}

// Penalty configures the significance threshold of a mean-shift detector.
type Penalty struct {
	Type PenaltyType `bson:"type" json:"type" yaml:"type"`
	// Value is the threshold for PenaltyManual and is ignored otherwise.
	Value float64 `bson:"value,omitempty" json:"value,omitempty" yaml:"value,omitempty"`
}

// Validate checks the penalty, filling in the default type when unset.
func (p *Penalty) Validate() error {
	if p.Type == "" {
		p.Type = DefaultPenalty
	}
	if err := p.Type.Validate(); err != nil {
		return err
	}
	if p.Type == PenaltyManual && (p.Value < 0 || math.IsNaN(p.Value) || math.IsInf(p.Value, 0)) {
		return errors.Errorf("manual penalty must be a finite, non-negative number, not %f", p.Value)
	}
	return nil
}

// Threshold returns the value the statistic must exceed for a series of n
// points.
func (p Penalty) Threshold(n int) float64 {
	size := float64(n)
	switch p.Type {
	case PenaltyBIC:
		return math.Log(size)
	case PenaltyAIC:
		return 2
	case PenaltyHannanQuinn:
		return 2 * math.Log(math.Log(size))
	case PenaltyManual:
		return p.Value
	case PenaltyNone:
		return 0
	default:
		return 3 * math.Log(size)
	}
}
