package ml

import (
	onnxruntime "github.com/yalue/onnxruntime_go"

	"tripcast/pkg/errors"
)

// ONNXModel wraps an ONNX Runtime session for duration regression
type ONNXModel struct {
	session   *onnxruntime.DynamicAdvancedSession
	inputName string
}

// LoadONNXModel loads an ONNX regression model from file.
// Input: "input" (feature vector, shape [1, n]).
// Output: "output" (predicted duration in minutes, shape [1]).
func LoadONNXModel(modelPath string) (*ONNXModel, error) {
	// Initialize ONNX runtime environment (only once)
	err := onnxruntime.InitializeEnvironment()
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize ONNX runtime")
	}

	options, err := onnxruntime.NewSessionOptions()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create session options")
	}
	defer options.Destroy()

	session, err := onnxruntime.NewDynamicAdvancedSession(modelPath,
		[]string{"input"}, []string{"output"}, options)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load ONNX model")
	}

	return &ONNXModel{
		session:   session,
		inputName: "input",
	}, nil
}

// Infer runs inference and returns the predicted duration in minutes
func (m *ONNXModel) Infer(features []float64) (float64, error) {
	if m.session == nil {
		return 0, errors.New("model session is nil")
	}
	if len(features) == 0 {
		return 0, errors.Wrap(errors.ErrInference, "empty feature vector")
	}

	// Input tensor: shape [1, num_features]
	inputShape := onnxruntime.NewShape(1, int64(len(features)))
	inputTensor, err := onnxruntime.NewTensor(inputShape, features)
	if err != nil {
		return 0, errors.Wrap(err, "failed to create input tensor")
	}
	defer inputTensor.Destroy()

	// Output tensor: single regression value
	output := make([]float64, 1)
	outputShape := onnxruntime.NewShape(1)
	outputTensor, err := onnxruntime.NewTensor(outputShape, output)
	if err != nil {
		return 0, errors.Wrap(err, "failed to create output tensor")
	}
	defer outputTensor.Destroy()

	err = m.session.Run(
		[]onnxruntime.Value{inputTensor},
		[]onnxruntime.Value{outputTensor},
	)
	if err != nil {
		return 0, errors.Wrap(errors.ErrInference, err.Error())
	}

	return output[0], nil
}

// Close cleans up the ONNX session
func (m *ONNXModel) Close() {
	if m.session != nil {
		m.session.Destroy()
		m.session = nil
	}
}
