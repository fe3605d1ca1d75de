// Package models - model metadata and configuration presets.
package models

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/olibartfast/rfdetr-inference/inference"
	"github.com/olibartfast/rfdetr-inference/inference/providers"
	"github.com/olibartfast/rfdetr-inference/preprocess"
)

// Config describes one exported detection model: where it lives, its tensor
// names, and its training-time preprocessing recipe. The normalization
// constants and box-encoding convention are training choices baked into the
// export; they are declared here explicitly rather than guessed.
type Config struct {
	// Name identifies the model for debugging purposes.
	Name string `json:"name" yaml:"name"`
	// Path is the ONNX model file path.
	Path string `json:"path" yaml:"path"`
	// InputName is the graph's image input tensor name.
	InputName string `json:"input_name" yaml:"input_name"`
	// LogitsName is the graph's class-logit output tensor name.
	LogitsName string `json:"logits_name" yaml:"logits_name"`
	// BoxesName is the graph's box-parameter output tensor name.
	BoxesName string `json:"boxes_name" yaml:"boxes_name"`
	// Resolution is the square model input size in pixels.
	Resolution int `json:"resolution" yaml:"resolution"`
	// Mean is the per-channel normalization mean, RGB order.
	Mean [3]float32 `json:"mean" yaml:"mean"`
	// Std is the per-channel normalization standard deviation, RGB order.
	Std [3]float32 `json:"std" yaml:"std"`
	// KeepAspectRatio letterboxes instead of squashing during resize.
	KeepAspectRatio bool `json:"keep_aspect_ratio" yaml:"keep_aspect_ratio"`
	// ConfidenceThreshold is the default score cutoff for detections.
	ConfidenceThreshold float32 `json:"confidence_threshold" yaml:"confidence_threshold"`
	// Labels maps class indices to names.
	Labels []string `json:"labels" yaml:"labels"`
}

// RFDETRBase returns the configuration for the RF-DETR base export: a
// 560x560 squash resize with ImageNet normalization, the recipe the model
// was trained with.
//
// Returns:
//   - Config: The RF-DETR base preset.
func RFDETRBase() Config {
	return Config{
		Name:                "rfdetr-base",
		Path:                "rfdetr.onnx",
		InputName:           "input",
		LogitsName:          "labels",
		BoxesName:           "dets",
		Resolution:          560,
		Mean:                [3]float32{0.485, 0.456, 0.406},
		Std:                 [3]float32{0.229, 0.224, 0.225},
		KeepAspectRatio:     false,
		ConfidenceThreshold: 0.5,
		Labels:              COCOClasses,
	}
}

// LoadConfig reads a YAML model configuration file, applying the RF-DETR
// base preset for any field the file leaves unset.
//
// Arguments:
//   - path: Path to the YAML configuration file.
//
// Returns:
//   - Config: The merged configuration.
//   - error: An error if the file cannot be read or parsed.
func LoadConfig(path string) (Config, error) {
	cfg := RFDETRBase()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "reading config %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "parsing config %s", path)
	}

	if cfg.Resolution <= 0 {
		return Config{}, errors.Errorf("config %s: resolution must be positive, got %d",
			path, cfg.Resolution)
	}
	return cfg, nil
}

// PreprocessConfig maps the model configuration onto the codec's contract.
//
// Returns:
//   - preprocess.Config: The preprocessing configuration.
func (c Config) PreprocessConfig() preprocess.Config {
	return preprocess.Config{
		Name:            c.Name,
		InputWidth:      c.Resolution,
		InputHeight:     c.Resolution,
		Mean:            c.Mean,
		Std:             c.Std,
		KeepAspectRatio: c.KeepAspectRatio,
	}
}

// InferenceConfig maps the model configuration onto the session's contract.
//
// Arguments:
//   - provider: The execution provider selection.
//
// Returns:
//   - inference.Config: The session configuration.
func (c Config) InferenceConfig(provider providers.Config) inference.Config {
	return inference.Config{
		ModelPath:   c.Path,
		InputName:   c.InputName,
		LogitsName:  c.LogitsName,
		BoxesName:   c.BoxesName,
		InputWidth:  c.Resolution,
		InputHeight: c.Resolution,
		Provider:    provider,
	}
}
