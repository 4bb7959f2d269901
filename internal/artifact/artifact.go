package artifact

import (
	"encoding/json"
	"os"
	"time"

	"github.com/fourzero/trainer/internal/config"
	"github.com/fourzero/trainer/internal/domain"
	"github.com/fourzero/trainer/internal/nn"
)

// Metadata is the provenance half of a model artifact. Epoch and ValLoss are
// only set on best-checkpoints; EpochsCompleted and FinalValLoss only on the
// final artifact.
type Metadata struct {
	ModelType       string              `json:"model_type"`
	RunID           string              `json:"run_id,omitempty"`
	Architecture    config.Architecture `json:"architecture"`
	TrainingConfig  config.Training     `json:"training_config"`
	SavedAt         string              `json:"saved_at"`
	Epoch           int                 `json:"epoch,omitempty"`
	ValLoss         float64             `json:"val_loss,omitempty"`
	EpochsCompleted int                 `json:"epochs_completed,omitempty"`
	FinalValLoss    float64             `json:"final_val_loss,omitempty"`
	TrainingHistory *domain.History     `json:"training_history,omitempty"`
}

// NetworkWeights is one head's parameters flattened in registration order.
// The transform is one-directional: topology only survives through the
// architecture descriptor in the metadata.
type NetworkWeights struct {
	Weights       []float64 `json:"weights"`
	NumParameters int       `json:"num_parameters"`
}

// Document is the persisted model artifact.
type Document struct {
	Metadata      Metadata       `json:"metadata"`
	ValueNetwork  NetworkWeights `json:"value_network"`
	PolicyNetwork NetworkWeights `json:"policy_network"`
}

// Save flattens both heads and writes the artifact document.
func Save(path string, value, policy *nn.Network, meta Metadata) error {
	if meta.SavedAt == "" {
		meta.SavedAt = time.Now().Format("2006-01-02 15:04:05")
	}
	var doc = Document{
		Metadata:      meta,
		ValueNetwork:  flatten(value),
		PolicyNetwork: flatten(policy),
	}
	var data, err = json.MarshalIndent(&doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func flatten(network *nn.Network) NetworkWeights {
	var weights = network.FlattenWeights()
	return NetworkWeights{
		Weights:       weights,
		NumParameters: len(weights),
	}
}

// Load reads an artifact document back from disk.
func Load(path string) (*Document, error) {
	var data, err = os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err = json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
