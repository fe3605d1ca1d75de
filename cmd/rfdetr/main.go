// Command rfdetr runs RF-DETR object detection over one image or a directory
// of images and prints the resulting detections.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/8ff/prettyTimer"
	"github.com/pkg/errors"

	"github.com/olibartfast/rfdetr-inference/images"
	"github.com/olibartfast/rfdetr-inference/inference"
	"github.com/olibartfast/rfdetr-inference/inference/providers"
	"github.com/olibartfast/rfdetr-inference/models"
	"github.com/olibartfast/rfdetr-inference/pipeline"
	"github.com/olibartfast/rfdetr-inference/postprocess"
	"github.com/olibartfast/rfdetr-inference/preprocess"
	"github.com/olibartfast/rfdetr-inference/util"
)

// Exit codes, one per error kind.
const (
	exitOK           = 0
	exitUsage        = 1
	exitInvalidImage = 2
	exitModelLoad    = 3
	exitInference    = 4
	exitDecode       = 5
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		modelPath    string
		configPath   string
		imagePath    string
		dirPath      string
		confidence   float64
		nmsThreshold float64
		backendName  string
		sortByScore  bool
		runs         int
	)
	flag.StringVar(&modelPath, "model", "", "Path to RF-DETR ONNX model file (overrides config)")
	flag.StringVar(&configPath, "config", "", "Path to YAML model config file")
	flag.StringVar(&imagePath, "image", "", "Path to image file (.jpg, .jpeg, .png, .webp, .bmp)")
	flag.StringVar(&dirPath, "dir", "", "Path to a directory of image files")
	flag.Float64Var(&confidence, "confidence", 0, "Confidence threshold (0 = model config default)")
	flag.Float64Var(&nmsThreshold, "nms", 0, "IoU threshold for optional greedy NMS (0 disables)")
	flag.StringVar(&backendName, "backend", "cpu", "Execution provider: cpu, cuda, coreml, openvino")
	flag.BoolVar(&sortByScore, "sort", false, "Sort detections by descending confidence")
	flag.IntVar(&runs, "runs", 1, "Repeat inference per image and report timing stats")
	flag.Parse()

	if imagePath == "" && dirPath == "" {
		fmt.Fprintln(os.Stderr, "either -image or -dir is required")
		flag.Usage()
		return exitUsage
	}
	if imagePath != "" && dirPath != "" {
		fmt.Fprintln(os.Stderr, "-image and -dir are mutually exclusive")
		return exitUsage
	}
	if runs < 1 {
		fmt.Fprintln(os.Stderr, "-runs must be at least 1")
		return exitUsage
	}

	backend, err := providers.ParseBackend(backendName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsage
	}

	cfg := models.RFDETRBase()
	if configPath != "" {
		cfg, err = models.LoadConfig(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %s\n", err)
			return exitUsage
		}
	}
	if modelPath != "" {
		cfg.Path = modelPath
	}
	threshold := cfg.ConfidenceThreshold
	if confidence > 0 {
		threshold = float32(confidence)
	}

	var nms *postprocess.NMSConfig
	if nmsThreshold > 0 {
		nms = &postprocess.NMSConfig{IoUThreshold: float32(nmsThreshold)}
	}

	session, err := inference.NewSession(cfg.InferenceConfig(providers.Config{Backend: backend}))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading model: %s\n", err)
		return exitCodeFor(err)
	}

	p := pipeline.New(session, preprocess.NewPreprocessor(cfg.PreprocessConfig()), pipeline.Options{
		Labels:           cfg.Labels,
		SortByConfidence: sortByScore,
		NMS:              nms,
	})
	defer p.Close()

	var paths []string
	var bufs []*images.Image
	if dirPath != "" {
		paths, bufs, err = util.LoadDirectoryImages(dirPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading images from %s: %s\n", dirPath, err)
			return exitCodeFor(err)
		}
		if len(bufs) == 0 {
			fmt.Fprintf(os.Stderr, "No image files found in %s\n", dirPath)
			return exitUsage
		}
	} else {
		buf, loadErr := images.Load(imagePath)
		if loadErr != nil {
			fmt.Fprintf(os.Stderr, "Error loading input image: %s\n", loadErr)
			return exitCodeFor(loadErr)
		}
		paths = []string{imagePath}
		bufs = []*images.Image{buf}
	}

	timingStats := prettyTimer.NewTimingStats()
	for i, buf := range bufs {
		img, decodeErr := buf.Decode()
		if decodeErr != nil {
			fmt.Fprintf(os.Stderr, "Error decoding %s: %s\n", paths[i], decodeErr)
			return exitCodeFor(decodeErr)
		}

		var detections []postprocess.Detection
		for r := 0; r < runs; r++ {
			timingStats.Start()
			detections, err = p.Run(img, threshold)
			timingStats.Finish()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error running inference on %s: %s\n", paths[i], err)
				return exitCodeFor(err)
			}
		}

		fmt.Printf("%s: %d detections\n", paths[i], len(detections))
		for _, d := range detections {
			label := d.Label
			if label == "" {
				label = fmt.Sprintf("class %d", d.ClassID)
			}
			fmt.Printf("  %s (%.3f): (%.1f, %.1f) - (%.1f, %.1f)\n",
				label, d.Confidence, d.Box.X1, d.Box.Y1, d.Box.X2, d.Box.Y2)
		}
	}

	if runs > 1 {
		timingStats.PrintStats()
	}
	return exitOK
}

// exitCodeFor maps the pipeline's error taxonomy onto process exit codes.
func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, images.ErrInvalidImage):
		return exitInvalidImage
	case errors.Is(err, inference.ErrModelLoad):
		return exitModelLoad
	case errors.Is(err, inference.ErrInference):
		return exitInference
	case errors.Is(err, postprocess.ErrDecode):
		return exitDecode
	default:
		return exitUsage
	}
}
