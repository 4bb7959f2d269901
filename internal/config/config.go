package config

import (
	"encoding/json"
	"os"

	"github.com/fourzero/trainer/internal/domain"
)

// Architecture is the unified network architecture document shared with the
// inference loader. Immutable once loaded.
type Architecture struct {
	InputSize        int   `json:"input_size"`
	HiddenSizes      []int `json:"hidden_sizes"`
	ValueOutputSize  int   `json:"value_output_size"`
	PolicyOutputSize int   `json:"policy_output_size"`
}

type unifiedDocument struct {
	NetworkArchitecture *Architecture `json:"network_architecture"`
}

func DefaultArchitecture() Architecture {
	return Architecture{
		InputSize:        150,
		HiddenSizes:      []int{256, 128, 64, 32},
		ValueOutputSize:  1,
		PolicyOutputSize: domain.PolicyActions,
	}
}

// LoadArchitecture reads the unified configuration file. An absent file
// falls back to the built-in default; a present but malformed one is a
// ConfigError.
func LoadArchitecture(path string) (Architecture, error) {
	var data, err = os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultArchitecture(), nil
		}
		return Architecture{}, &domain.ConfigError{Msg: "read " + path, Err: err}
	}
	var doc unifiedDocument
	if err = json.Unmarshal(data, &doc); err != nil {
		return Architecture{}, &domain.ConfigError{Msg: "parse " + path, Err: err}
	}
	if doc.NetworkArchitecture == nil {
		return Architecture{}, domain.Configf("%v: missing network_architecture", path)
	}
	var arch = *doc.NetworkArchitecture
	if err = arch.validate(); err != nil {
		return Architecture{}, err
	}
	return arch, nil
}

func (a *Architecture) validate() error {
	if a.InputSize <= 0 {
		return domain.Configf("input_size must be positive, got %v", a.InputSize)
	}
	if len(a.HiddenSizes) == 0 {
		return domain.Configf("hidden_sizes must not be empty")
	}
	for _, size := range a.HiddenSizes {
		if size <= 0 {
			return domain.Configf("hidden size must be positive, got %v", size)
		}
	}
	if a.ValueOutputSize != 1 {
		return domain.Configf("value_output_size must be 1, got %v", a.ValueOutputSize)
	}
	if a.PolicyOutputSize != domain.PolicyActions {
		return domain.Configf("policy_output_size must be %v, got %v", domain.PolicyActions, a.PolicyOutputSize)
	}
	return nil
}

// Training holds the run-level parameters, including the knobs forwarded to
// the self-play generator.
type Training struct {
	NumGames            int     `json:"num_games"`
	Epochs              int     `json:"epochs"`
	BatchSize           int     `json:"batch_size"`
	LearningRate        float64 `json:"learning_rate"`
	ValidationSplit     float64 `json:"validation_split"`
	MCTSSimulations     int     `json:"mcts_simulations"`
	ExplorationConstant float64 `json:"exploration_constant"`
	Temperature         float64 `json:"temperature"`
	DirichletAlpha      float64 `json:"dirichlet_alpha"`
	DirichletEpsilon    float64 `json:"dirichlet_epsilon"`
	Seed                int64   `json:"seed"`
	UseAttention        bool    `json:"use_attention"`
	UseResidual         bool    `json:"use_residual"`
}

func DefaultTraining() Training {
	return Training{
		NumGames:            1000,
		Epochs:              50,
		BatchSize:           32,
		LearningRate:        0.001,
		ValidationSplit:     0.2,
		MCTSSimulations:     800,
		ExplorationConstant: 1.0,
		Temperature:         1.0,
		DirichletAlpha:      0.3,
		DirichletEpsilon:    0.25,
		Seed:                42,
		UseAttention:        true,
		UseResidual:         true,
	}
}
