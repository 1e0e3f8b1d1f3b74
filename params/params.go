// Package params holds the live physical parameter set that drives the field,
// the thread-safe store it is published through, and its GPU byte layout.
package params

import (
	"math"

	"github.com/pthm-cable/warpviz/config"
)

// NumFields is the number of scalars in a Set and in a Block.
const NumFields = 7

// FieldNames lists the parameters in layout order. The fragment shader's
// uniform aliases must appear in exactly this order.
var FieldNames = [NumFields]string{
	"dutyCycle",
	"geometricAmplification",
	"cavityQ",
	"sagDepthNM",
	"timeScaleRatio",
	"avgPowerMW",
	"exoticMassKG",
}

// Set is one complete parameter record. Values are published whole;
// nothing mutates a Set after it has been handed to a Store.
type Set struct {
	DutyCycle              float32 `json:"duty_cycle" yaml:"duty_cycle" csv:"duty_cycle"`
	GeometricAmplification float32 `json:"geometric_amplification" yaml:"geometric_amplification" csv:"geometric_amplification"`
	CavityQ                float32 `json:"cavity_q" yaml:"cavity_q" csv:"cavity_q"`
	SagDepthNM             float32 `json:"sag_depth_nm" yaml:"sag_depth_nm" csv:"sag_depth_nm"`
	TimeScaleRatio         float32 `json:"time_scale_ratio" yaml:"time_scale_ratio" csv:"time_scale_ratio"`
	AvgPowerMW             float32 `json:"avg_power_mw" yaml:"avg_power_mw" csv:"avg_power_mw"`
	ExoticMassKG           float32 `json:"exotic_mass_kg" yaml:"exotic_mass_kg" csv:"exotic_mass_kg"`
}

// FromConfig converts the configured startup parameters.
func FromConfig(c config.ParamsConfig) Set {
	return Set{
		DutyCycle:              float32(c.DutyCycle),
		GeometricAmplification: float32(c.GeometricAmplification),
		CavityQ:                float32(c.CavityQ),
		SagDepthNM:             float32(c.SagDepthNM),
		TimeScaleRatio:         float32(c.TimeScaleRatio),
		AvgPowerMW:             float32(c.AvgPowerMW),
		ExoticMassKG:           float32(c.ExoticMassKG),
	}
}

// FromArray builds a Set from values in layout order.
func FromArray(v [NumFields]float32) Set {
	return Set{
		DutyCycle:              v[0],
		GeometricAmplification: v[1],
		CavityQ:                v[2],
		SagDepthNM:             v[3],
		TimeScaleRatio:         v[4],
		AvgPowerMW:             v[5],
		ExoticMassKG:           v[6],
	}
}

// Array returns the values in layout order.
func (s Set) Array() [NumFields]float32 {
	return [NumFields]float32{
		s.DutyCycle,
		s.GeometricAmplification,
		s.CavityQ,
		s.SagDepthNM,
		s.TimeScaleRatio,
		s.AvgPowerMW,
		s.ExoticMassKG,
	}
}

// Scale returns the bubble radius in metres (sag depth is given in nanometres).
func (s Set) Scale() float32 {
	return s.SagDepthNM * 1e-9
}

// Amplitude returns the peak shift coefficient, duty cycle times amplification.
func (s Set) Amplitude() float32 {
	return s.DutyCycle * s.GeometricAmplification
}

// Sanitize replaces every non-finite field with zero and reports which
// fields were replaced, by index into FieldNames.
func (s Set) Sanitize() (Set, []int) {
	v := s.Array()
	var replaced []int
	for i, x := range v {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			v[i] = 0
			replaced = append(replaced, i)
		}
	}
	if replaced == nil {
		return s, nil
	}
	return FromArray(v), replaced
}
