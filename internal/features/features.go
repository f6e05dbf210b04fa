package features

import (
	"encoding/json"
	"math"
	"os"

	"prophet/pkg/errors"
)

// Scaler maps named payload fields to the ordered, standardized feature
// vector a model was trained on. Parameters are loaded from a JSON sidecar
// exported alongside the model artifact:
//
//	{
//	  "fields": ["NetRevenue", "NetQuantity", ...],
//	  "mean":   [12.3, ...],
//	  "scale":  [4.5, ...],
//	  "log_fields": ["NetRevenue"]
//	}
//
// Fields listed in log_fields get a signed log1p before standardization,
// mirroring the transform applied during training.
type Scaler struct {
	Fields    []string  `json:"fields"`
	Mean      []float64 `json:"mean"`
	Scale     []float64 `json:"scale"`
	LogFields []string  `json:"log_fields"`

	logSet map[string]bool
}

// NewScaler builds a scaler from explicit parameters
func NewScaler(fields []string, mean, scale []float64, logFields []string) (*Scaler, error) {
	s := &Scaler{Fields: fields, Mean: mean, Scale: scale, LogFields: logFields}
	if err := s.validate(); err != nil {
		return nil, err
	}
	s.buildLogSet()
	return s, nil
}

// Identity returns a scaler that passes the named fields through unscaled.
// Useful for tests and for models exported with the scaler folded in.
func Identity(fields ...string) *Scaler {
	mean := make([]float64, len(fields))
	scale := make([]float64, len(fields))
	for i := range scale {
		scale[i] = 1
	}
	s := &Scaler{Fields: fields, Mean: mean, Scale: scale}
	s.buildLogSet()
	return s
}

// LoadScaler reads scaler parameters from a JSON sidecar file
func LoadScaler(path string) (*Scaler, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read scaler %s", path)
	}

	var s Scaler
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, errors.Wrapf(err, "parse scaler %s", path)
	}
	if err := s.validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid scaler %s", path)
	}

	s.buildLogSet()
	return &s, nil
}

func (s *Scaler) validate() error {
	if len(s.Fields) == 0 {
		return errors.New("scaler has no fields")
	}
	if len(s.Mean) != len(s.Fields) || len(s.Scale) != len(s.Fields) {
		return errors.Newf("scaler parameter length mismatch: %d fields, %d mean, %d scale",
			len(s.Fields), len(s.Mean), len(s.Scale))
	}
	for i, sc := range s.Scale {
		if sc == 0 {
			return errors.Newf("scaler field %s has zero scale", s.Fields[i])
		}
	}
	return nil
}

func (s *Scaler) buildLogSet() {
	s.logSet = make(map[string]bool, len(s.LogFields))
	for _, f := range s.LogFields {
		s.logSet[f] = true
	}
}

// Missing returns the scaler fields absent from the payload, sorted
func (s *Scaler) Missing(data map[string]interface{}) []string {
	var missing []string
	for _, f := range s.Fields {
		if _, ok := data[f]; !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) > 1 {
		// NewMissingFields sorts; reuse it to keep ordering in one place
		missing = errors.NewMissingFields(missing).Fields
	}
	return missing
}

// Numeric extracts the scaler's fields from a decoded JSON payload.
// Presence must be checked first via Missing; a present but non-numeric
// value is a processing error, not a validation one.
func (s *Scaler) Numeric(data map[string]interface{}) (map[string]float64, error) {
	out := make(map[string]float64, len(s.Fields))
	for _, f := range s.Fields {
		v, ok := data[f]
		if !ok {
			continue
		}
		num, ok := v.(float64)
		if !ok {
			return nil, errors.Newf("field %s is not numeric", f)
		}
		out[f] = num
	}
	return out, nil
}

// Vector builds the ordered, scaled feature vector from named values
func (s *Scaler) Vector(data map[string]float64) ([]float64, error) {
	vec := make([]float64, len(s.Fields))
	for i, f := range s.Fields {
		v, ok := data[f]
		if !ok {
			return nil, errors.Wrapf(errors.ErrInvalidInput, "field %s not present", f)
		}
		if s.logSet[f] {
			v = SignedLog1p(v)
		}
		vec[i] = (v - s.Mean[i]) / s.Scale[i]
	}
	return vec, nil
}

// SignedLog1p compresses a value with log1p while preserving its sign
func SignedLog1p(x float64) float64 {
	return math.Copysign(math.Log1p(math.Abs(x)), x)
}

// SignedExpm1 inverts SignedLog1p
func SignedExpm1(x float64) float64 {
	return math.Copysign(math.Expm1(math.Abs(x)), x)
}
