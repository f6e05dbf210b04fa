package ml

import (
	"sync"

	onnxruntime "github.com/yalue/onnxruntime_go"

	"prophet/pkg/errors"
)

// Classifier produces a discrete group label from a feature vector
type Classifier interface {
	PredictGroup(features []float64) (int, error)
}

// Regressor produces a continuous value from a feature vector
type Regressor interface {
	PredictValue(features []float64) (float64, error)
}

var runtimeOnce sync.Once

func ensureRuntime() error {
	var err error
	runtimeOnce.Do(func() {
		err = onnxruntime.InitializeEnvironment()
	})
	if err != nil {
		return errors.Wrap(err, "failed to initialize ONNX runtime")
	}
	return nil
}

// Exported model artifacts use the sklearn-onnx conventions: a single
// "input" tensor, classifiers emit an int64 "label", regressors a
// float "variable".
const (
	inputName          = "input"
	classifierOutName  = "label"
	regressorOutName   = "variable"
)

// ONNXClassifier wraps an ONNX Runtime session for clustering models
type ONNXClassifier struct {
	session *onnxruntime.DynamicAdvancedSession
}

// LoadONNXClassifier loads a clustering model from file
func LoadONNXClassifier(modelPath string) (*ONNXClassifier, error) {
	session, err := loadSession(modelPath, classifierOutName)
	if err != nil {
		return nil, err
	}
	return &ONNXClassifier{session: session}, nil
}

// PredictGroup runs inference and returns the predicted cluster label
func (m *ONNXClassifier) PredictGroup(features []float64) (int, error) {
	if m.session == nil {
		return 0, errors.ErrModelNotLoaded
	}

	inputTensor, err := newInputTensor(features)
	if err != nil {
		return 0, err
	}
	defer inputTensor.Destroy()

	labelOutput := make([]int64, 1)
	labelTensor, err := onnxruntime.NewTensor(onnxruntime.NewShape(1), labelOutput)
	if err != nil {
		return 0, errors.Wrap(err, "failed to create label output tensor")
	}
	defer labelTensor.Destroy()

	err = m.session.Run(
		[]onnxruntime.Value{inputTensor},
		[]onnxruntime.Value{labelTensor},
	)
	if err != nil {
		return 0, errors.Wrap(err, "inference failed")
	}

	return int(labelOutput[0]), nil
}

// Destroy cleans up the ONNX session
func (m *ONNXClassifier) Destroy() {
	if m.session != nil {
		m.session.Destroy()
		m.session = nil
	}
}

// ONNXRegressor wraps an ONNX Runtime session for regression models
type ONNXRegressor struct {
	session *onnxruntime.DynamicAdvancedSession
}

// LoadONNXRegressor loads a regression model from file
func LoadONNXRegressor(modelPath string) (*ONNXRegressor, error) {
	session, err := loadSession(modelPath, regressorOutName)
	if err != nil {
		return nil, err
	}
	return &ONNXRegressor{session: session}, nil
}

// PredictValue runs inference and returns the predicted value
func (m *ONNXRegressor) PredictValue(features []float64) (float64, error) {
	if m.session == nil {
		return 0, errors.ErrModelNotLoaded
	}

	inputTensor, err := newInputTensor(features)
	if err != nil {
		return 0, err
	}
	defer inputTensor.Destroy()

	valueOutput := make([]float64, 1)
	valueTensor, err := onnxruntime.NewTensor(onnxruntime.NewShape(1, 1), valueOutput)
	if err != nil {
		return 0, errors.Wrap(err, "failed to create value output tensor")
	}
	defer valueTensor.Destroy()

	err = m.session.Run(
		[]onnxruntime.Value{inputTensor},
		[]onnxruntime.Value{valueTensor},
	)
	if err != nil {
		return 0, errors.Wrap(err, "inference failed")
	}

	return valueOutput[0], nil
}

// Destroy cleans up the ONNX session
func (m *ONNXRegressor) Destroy() {
	if m.session != nil {
		m.session.Destroy()
		m.session = nil
	}
}

func loadSession(modelPath, outputName string) (*onnxruntime.DynamicAdvancedSession, error) {
	if err := ensureRuntime(); err != nil {
		return nil, err
	}

	options, err := onnxruntime.NewSessionOptions()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create session options")
	}
	defer options.Destroy()

	session, err := onnxruntime.NewDynamicAdvancedSession(modelPath,
		[]string{inputName}, []string{outputName}, options)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load ONNX model %s", modelPath)
	}

	return session, nil
}

func newInputTensor(features []float64) (*onnxruntime.Tensor[float64], error) {
	// Shape [1, num_features]: a single sample per request
	inputShape := onnxruntime.NewShape(1, int64(len(features)))
	inputTensor, err := onnxruntime.NewTensor(inputShape, features)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create input tensor")
	}
	return inputTensor, nil
}
