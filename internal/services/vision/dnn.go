package vision

import (
	"fmt"
	"image"
	"os"

	"gocv.io/x/gocv"

	"trafficsignal/internal/models"
)

// SSD MobileNet input geometry and normalisation.
const (
	dnnInputSize = 300
	dnnScale     = 1.0 / 127.5
	dnnMean      = 127.5
)

// vehicleClasses maps COCO class ids to the vehicle labels we count.
var vehicleClasses = map[int]string{
	3: "car",
	4: "motorcycle",
	6: "bus",
	8: "truck",
}

// vehicleLabel returns the label for a COCO class id and whether it is a vehicle.
func vehicleLabel(classID int) (string, bool) {
	label, ok := vehicleClasses[classID]
	return label, ok
}

// DNNDetector finds vehicles with a pre-trained SSD MobileNet network. It
// ignores the foreground mask and classifies the raw frame.
type DNNDetector struct {
	net           gocv.Net
	minConfidence float32
}

// NewDNNDetector loads the network from a frozen TensorFlow graph and its text config.
func NewDNNDetector(modelPath, configPath string, minConfidence float64) (*DNNDetector, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model file not found: %s", modelPath)
	}
	if _, err := os.Stat(configPath); err != nil {
		return nil, fmt.Errorf("config file not found: %s", configPath)
	}

	net := gocv.ReadNet(modelPath, configPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load network from %s", modelPath)
	}
	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return nil, fmt.Errorf("failed to set preferable backend or target")
	}

	return &DNNDetector{net: net, minConfidence: float32(minConfidence)}, nil
}

func (d *DNNDetector) Name() string { return "dnn" }

func (d *DNNDetector) Detect(frame gocv.Mat, _ gocv.Mat) ([]models.DetectedObject, error) {
	if frame.Empty() {
		return nil, fmt.Errorf("empty frame")
	}

	blob := gocv.BlobFromImage(frame, dnnScale, image.Pt(dnnInputSize, dnnInputSize),
		gocv.NewScalar(dnnMean, dnnMean, dnnMean, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	defer output.Close()

	rows := output.Reshape(1, output.Total()/7)
	defer rows.Close()

	cols, height := float32(frame.Cols()), float32(frame.Rows())
	var objects []models.DetectedObject
	for i := 0; i < rows.Rows(); i++ {
		confidence := rows.GetFloatAt(i, 2)
		if confidence < d.minConfidence {
			continue
		}
		label, ok := vehicleLabel(int(rows.GetFloatAt(i, 1)))
		if !ok {
			continue
		}

		box := image.Rect(
			int(rows.GetFloatAt(i, 3)*cols),
			int(rows.GetFloatAt(i, 4)*height),
			int(rows.GetFloatAt(i, 5)*cols),
			int(rows.GetFloatAt(i, 6)*height),
		)
		if box.Empty() {
			continue
		}

		objects = append(objects, models.DetectedObject{
			Box:         box,
			Centroid:    image.Pt(box.Min.X+box.Dx()/2, box.Min.Y+box.Dy()/2),
			Area:        float64(box.Dx() * box.Dy()),
			AspectRatio: float64(box.Dx()) / float64(box.Dy()),
			Label:       label,
			Confidence:  float64(confidence),
		})
	}
	return objects, nil
}

func (d *DNNDetector) Close() error {
	return d.net.Close()
}
