package inference

import "time"

// Model describes one selectable classifier.
type Model struct {
	ID          string
	Name        string
	Description string
	Latency     time.Duration // Typical round trip on the reference backend.
}

// Catalog lists the models offered for live prediction, in display order.
func Catalog() []Model {
	return []Model{
		{ID: "cnn", Name: "CNN-STFT v2", Description: "Best balance of speed & accuracy", Latency: 1200 * time.Millisecond},
		{ID: "mobilenet", Name: "MobileNetV3Small", Description: "Ultra-low latency inference", Latency: 800 * time.Millisecond},
		{ID: "resnet", Name: "ResNet-50", Description: "Deep residual network", Latency: 3 * time.Second},
		{ID: "vgg", Name: "VGG-16", Description: "Legacy architecture", Latency: 4500 * time.Millisecond},
	}
}

// LookupModel returns the catalog entry for id.
func LookupModel(id string) (Model, bool) {
	for _, m := range Catalog() {
		if m.ID == id {
			return m, true
		}
	}
	return Model{}, false
}

// ModelName returns the display name for id, or id itself when unknown.
func ModelName(id string) string {
	if m, ok := LookupModel(id); ok {
		return m.Name
	}
	return id
}
