package prediction

import (
	"time"

	"prophet/internal/features"
	"prophet/internal/interpretation"
	"prophet/internal/metrics"
	"prophet/internal/ml"
	"prophet/pkg/errors"
	"prophet/pkg/logger"
	"prophet/pkg/money"
)

// Service composes feature preparation, model inference and result
// interpretation. It holds no mutable state beyond the read-only registry
// and scalers, so a single instance serves all requests.
type Service struct {
	registry         *ml.Registry
	clusterScaler    *features.Scaler
	regressionScaler *features.Scaler
	log              *logger.Logger
}

// New creates a prediction service
func New(registry *ml.Registry, clusterScaler, regressionScaler *features.Scaler, log *logger.Logger) *Service {
	return &Service{
		registry:         registry,
		clusterScaler:    clusterScaler,
		regressionScaler: regressionScaler,
		log:              log.With("component", "prediction"),
	}
}

// ClusterScaler returns the scaler for the clustering feature set
func (s *Service) ClusterScaler() *features.Scaler {
	return s.clusterScaler
}

// RegressionScaler returns the scaler for the regression feature set
func (s *Service) RegressionScaler() *features.Scaler {
	return s.regressionScaler
}

// AllFields returns the union of both feature sets, clustering fields first
func (s *Service) AllFields() []string {
	seen := make(map[string]bool)
	var all []string
	for _, f := range s.clusterScaler.Fields {
		if !seen[f] {
			seen[f] = true
			all = append(all, f)
		}
	}
	for _, f := range s.regressionScaler.Fields {
		if !seen[f] {
			seen[f] = true
			all = append(all, f)
		}
	}
	return all
}

// GroupResult is the outcome of a clustering prediction
type GroupResult struct {
	Selector string
	Model    string
	Group    int
	Info     interpretation.GroupInfo
}

// PredictGroup classifies a product into a cluster and attaches the
// business interpretation for the predicted label.
func (s *Service) PredictGroup(model string, data map[string]float64) (*GroupResult, error) {
	classifier, err := s.registry.Classifier(model)
	if err != nil {
		return nil, err
	}

	vec, err := s.clusterScaler.Vector(data)
	if err != nil {
		return nil, errors.Wrap(err, "prepare cluster features")
	}

	start := time.Now()
	group, err := classifier.PredictGroup(vec)
	metrics.RecordInference(model, time.Since(start))
	if err != nil {
		return nil, errors.Wrapf(err, "%s inference", model)
	}

	s.log.Debugw("group predicted", "model", model, "group", group)

	return &GroupResult{
		Selector: model,
		Model:    ml.DisplayName(model),
		Group:    group,
		Info:     interpretation.ForModel(model, group),
	}, nil
}

// RevenueResult is the outcome of a revenue prediction
type RevenueResult struct {
	Selector  string
	Model     string
	Raw       float64 // model output before the inverse log transform
	Value     float64
	Formatted string
}

// PredictRevenue estimates next-month revenue. The regression target was
// trained on signed-log1p revenue, so the model output is mapped back
// through SignedExpm1 before formatting.
func (s *Service) PredictRevenue(model string, data map[string]float64) (*RevenueResult, error) {
	regressor, err := s.registry.Regressor(model)
	if err != nil {
		return nil, err
	}

	vec, err := s.regressionScaler.Vector(data)
	if err != nil {
		return nil, errors.Wrap(err, "prepare regression features")
	}

	start := time.Now()
	raw, err := regressor.PredictValue(vec)
	metrics.RecordInference(model, time.Since(start))
	if err != nil {
		return nil, errors.Wrapf(err, "%s inference", model)
	}

	value := features.SignedExpm1(raw)

	s.log.Debugw("revenue predicted", "model", model, "raw", raw, "value", value)

	return &RevenueResult{
		Selector:  model,
		Model:     ml.DisplayName(model),
		Raw:       raw,
		Value:     value,
		Formatted: money.USD(value),
	}, nil
}

// DebugInfo exposes the intermediate regression values for debugging
type DebugInfo struct {
	RawInput      map[string]float64 `json:"raw_regression_input"`
	ScaledInput   []float64          `json:"scaled_regression_input"`
	RawPrediction float64            `json:"raw_prediction"`
}

// Debug builds the intermediate-value payload for a completed revenue
// prediction.
func (s *Service) Debug(data map[string]float64, result *RevenueResult) (*DebugInfo, error) {
	scaled, err := s.regressionScaler.Vector(data)
	if err != nil {
		return nil, errors.Wrap(err, "prepare regression features")
	}

	raw := make(map[string]float64, len(s.regressionScaler.Fields))
	for _, f := range s.regressionScaler.Fields {
		raw[f] = data[f]
	}

	return &DebugInfo{
		RawInput:      raw,
		ScaledInput:   scaled,
		RawPrediction: result.Raw,
	}, nil
}
