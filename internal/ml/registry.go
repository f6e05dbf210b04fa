package ml

import (
	"prophet/internal/adapters/config"
	"prophet/pkg/errors"
)

// Model selector names as they appear in query parameters
const (
	ModelKMeans       = "kmeans"
	ModelDBSCAN       = "dbscan"
	ModelRandomForest = "random_forest"
	ModelXGBoost      = "xgboost"
)

var displayNames = map[string]string{
	ModelKMeans:       "KMeans",
	ModelDBSCAN:       "DBSCAN",
	ModelRandomForest: "Random Forest",
	ModelXGBoost:      "XGBoost",
}

// DisplayName returns the human-readable name for a model selector
func DisplayName(name string) string {
	if dn, ok := displayNames[name]; ok {
		return dn
	}
	return name
}

// Registry holds the loaded models. It is populated once at startup and
// read-only afterwards, so it is safe to share across requests without
// synchronization.
type Registry struct {
	classifiers map[string]Classifier
	regressors  map[string]Regressor
	closers     []func()
}

// NewRegistry builds a registry from already-constructed models.
// Used by tests to inject stubs.
func NewRegistry(classifiers map[string]Classifier, regressors map[string]Regressor) *Registry {
	return &Registry{
		classifiers: classifiers,
		regressors:  regressors,
	}
}

// LoadRegistry loads all four model artifacts from disk
func LoadRegistry(cfg config.ModelsConfig) (*Registry, error) {
	r := &Registry{
		classifiers: make(map[string]Classifier),
		regressors:  make(map[string]Regressor),
	}

	clusterFiles := map[string]string{
		ModelKMeans: cfg.KMeansFile,
		ModelDBSCAN: cfg.DBSCANFile,
	}
	for name, file := range clusterFiles {
		model, err := LoadONNXClassifier(cfg.Path(file))
		if err != nil {
			r.Close()
			return nil, errors.Wrapf(err, "load %s", name)
		}
		r.classifiers[name] = model
		r.closers = append(r.closers, model.Destroy)
	}

	regressionFiles := map[string]string{
		ModelRandomForest: cfg.RandomForestFile,
		ModelXGBoost:      cfg.XGBoostFile,
	}
	for name, file := range regressionFiles {
		model, err := LoadONNXRegressor(cfg.Path(file))
		if err != nil {
			r.Close()
			return nil, errors.Wrapf(err, "load %s", name)
		}
		r.regressors[name] = model
		r.closers = append(r.closers, model.Destroy)
	}

	return r, nil
}

// Classifier returns the clustering model registered under name
func (r *Registry) Classifier(name string) (Classifier, error) {
	model, ok := r.classifiers[name]
	if !ok {
		return nil, errors.Wrapf(errors.ErrUnknownModel, "%s", name)
	}
	return model, nil
}

// Regressor returns the regression model registered under name
func (r *Registry) Regressor(name string) (Regressor, error) {
	model, ok := r.regressors[name]
	if !ok {
		return nil, errors.Wrapf(errors.ErrUnknownModel, "%s", name)
	}
	return model, nil
}

// Size returns the number of loaded models
func (r *Registry) Size() int {
	return len(r.classifiers) + len(r.regressors)
}

// Close releases all model sessions
func (r *Registry) Close() {
	for _, c := range r.closers {
		c()
	}
	r.closers = nil
}
