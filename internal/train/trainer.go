package train

import (
	"log"
	"math/rand"
	"path/filepath"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"

	"github.com/fourzero/trainer/internal/artifact"
	"github.com/fourzero/trainer/internal/config"
	"github.com/fourzero/trainer/internal/domain"
	"github.com/fourzero/trainer/internal/ml"
	"github.com/fourzero/trainer/internal/nn"
	"github.com/fourzero/trainer/internal/plot"
)

const (
	modelType         = "self_play_advanced"
	maxGradNorm       = 1.0
	earlyStopPatience = 10

	bestCheckpointName = "best_model.json"
	historyName        = "training_history.json"
)

// Trainer owns both heads, their optimizer state and schedulers, and drives
// the epoch loop. Nothing else mutates the parameters for the run's lifetime.
type Trainer struct {
	arch       config.Architecture
	cfg        config.Training
	weightsDir string
	outputFile string

	value  *nn.Network
	policy *nn.Network

	valueScheduler  *plateauScheduler
	policyScheduler *plateauScheduler

	history   domain.History
	rnd       *rand.Rand
	runID     string
	valueCost ml.MSECost

	valueGrad   []float64
	policyProbs []float64
	policyGrad  []float64
}

func New(arch config.Architecture, cfg config.Training, weightsDir, outputFile string) (*Trainer, error) {
	var rnd = rand.New(rand.NewSource(cfg.Seed))
	var opts = nn.Options{
		UseAttention: cfg.UseAttention,
		UseResidual:  cfg.UseResidual,
	}
	var value, err = nn.NewValueNetwork(arch, opts, rnd)
	if err != nil {
		return nil, err
	}
	policy, err := nn.NewPolicyNetwork(arch, opts, rnd)
	if err != nil {
		return nil, err
	}
	log.Printf("value network parameters: %v", value.NumParameters())
	log.Printf("policy network parameters: %v", policy.NumParameters())

	return &Trainer{
		arch:            arch,
		cfg:             cfg,
		weightsDir:      weightsDir,
		outputFile:      outputFile,
		value:           value,
		policy:          policy,
		valueScheduler:  newPlateauScheduler("value", cfg.LearningRate),
		policyScheduler: newPlateauScheduler("policy", cfg.LearningRate),
		rnd:             rnd,
		runID:           uuid.NewString(),
		valueGrad:       make([]float64, arch.ValueOutputSize),
		policyProbs:     make([]float64, arch.PolicyOutputSize),
		policyGrad:      make([]float64, arch.PolicyOutputSize),
	}, nil
}

type Result struct {
	FinalValLoss    float64
	EpochsCompleted int
	History         *domain.History
}

type epochLosses struct {
	value  float64
	policy float64
	total  float64
}

func (t *Trainer) Train(training, validation []domain.Sample) (*Result, error) {
	log.Println("train started")
	defer log.Println("train finished")
	log.Printf("train samples: %v validation samples: %v", len(training), len(validation))

	var stopper = earlyStopper{patience: earlyStopPatience}
	var finalValLoss float64

	for epoch := 1; epoch <= t.cfg.Epochs; epoch++ {
		t.shuffle(training)
		var trainLosses, err = t.runEpoch(training, true)
		if err != nil {
			return nil, err
		}
		valLosses, err := t.runEpoch(validation, false)
		if err != nil {
			return nil, err
		}

		t.valueScheduler.Step(valLosses.value)
		t.policyScheduler.Step(valLosses.policy)

		t.history.Append(domain.EpochLosses{
			ValueLoss:     trainLosses.value,
			PolicyLoss:    trainLosses.policy,
			TotalLoss:     trainLosses.total,
			ValValueLoss:  valLosses.value,
			ValPolicyLoss: valLosses.policy,
			ValTotalLoss:  valLosses.total,
		})

		log.Printf("epoch %v/%v train value=%.4f policy=%.4f total=%.4f",
			epoch, t.cfg.Epochs, trainLosses.value, trainLosses.policy, trainLosses.total)
		log.Printf("epoch %v/%v val   value=%.4f policy=%.4f total=%.4f",
			epoch, t.cfg.Epochs, valLosses.value, valLosses.policy, valLosses.total)

		finalValLoss = valLosses.total
		var improved, stop = stopper.Observe(valLosses.total)
		if improved {
			if err = t.saveCheckpoint(epoch, valLosses.total); err != nil {
				return nil, err
			}
		} else if stop {
			log.Printf("early stopping at epoch %v", epoch)
			break
		}
	}

	if err := t.saveFinal(finalValLoss); err != nil {
		return nil, err
	}

	// the artifact is already persisted; plotting is best-effort
	var historyPath = filepath.Join(t.weightsDir, historyName)
	if err := plot.WriteHistory(historyPath, &t.history); err != nil {
		log.Printf("warning: could not write history for plotting: %v", err)
	}

	return &Result{
		FinalValLoss:    finalValLoss,
		EpochsCompleted: t.history.Epochs(),
		History:         &t.history,
	}, nil
}

func (t *Trainer) shuffle(samples []domain.Sample) {
	t.rnd.Shuffle(len(samples), func(i, j int) {
		samples[i], samples[j] = samples[j], samples[i]
	})
}

func (t *Trainer) runEpoch(samples []domain.Sample, train bool) (epochLosses, error) {
	var sums epochLosses
	var batches int
	for start := 0; start < len(samples); start += t.cfg.BatchSize {
		var end = min(start+t.cfg.BatchSize, len(samples))
		var losses, err = t.runBatch(samples[start:end], train)
		if err != nil {
			return epochLosses{}, err
		}
		sums.value += losses.value
		sums.policy += losses.policy
		sums.total += losses.total
		batches++
	}
	if batches == 0 {
		return sums, nil
	}
	sums.value /= float64(batches)
	sums.policy /= float64(batches)
	sums.total /= float64(batches)
	return sums, nil
}

func (t *Trainer) runBatch(batch []domain.Sample, train bool) (epochLosses, error) {
	var losses epochLosses
	for i := range batch {
		var sample = &batch[i]
		var valueOut, err = t.value.Forward(sample.Features, train)
		if err != nil {
			return losses, err
		}
		policyOut, err := t.policy.Forward(sample.Features, train)
		if err != nil {
			return losses, err
		}

		losses.value += t.valueCost.Cost(valueOut[0], sample.ValueTarget)

		// cross-entropy against the argmax class of the target distribution
		ml.Softmax(t.policyProbs, policyOut)
		var class = floats.MaxIdx(sample.PolicyTarget)
		losses.policy += ml.CrossEntropy(t.policyProbs, class)

		if train {
			t.valueGrad[0] = t.valueCost.CostPrime(valueOut[0], sample.ValueTarget)
			t.value.Backward(t.valueGrad)
			ml.CrossEntropyPrime(t.policyGrad, t.policyProbs, class)
			t.policy.Backward(t.policyGrad)
		}
	}
	var n = float64(len(batch))
	losses.value /= n
	losses.policy /= n
	losses.total = losses.value + losses.policy
	if train {
		t.value.ApplyGradients(len(batch), maxGradNorm, t.valueScheduler.LR())
		t.policy.ApplyGradients(len(batch), maxGradNorm, t.policyScheduler.LR())
	}
	return losses, nil
}

func (t *Trainer) saveCheckpoint(epoch int, valLoss float64) error {
	var path = filepath.Join(t.weightsDir, bestCheckpointName)
	var err = artifact.Save(path, t.value, t.policy, artifact.Metadata{
		ModelType:       modelType,
		RunID:           t.runID,
		Architecture:    t.arch,
		TrainingConfig:  t.cfg,
		Epoch:           epoch,
		ValLoss:         valLoss,
		TrainingHistory: &t.history,
	})
	if err != nil {
		return err
	}
	log.Printf("stored best checkpoint %v (val loss %.4f)", path, valLoss)
	return nil
}

func (t *Trainer) saveFinal(finalValLoss float64) error {
	var err = artifact.Save(t.outputFile, t.value, t.policy, artifact.Metadata{
		ModelType:       modelType,
		RunID:           t.runID,
		Architecture:    t.arch,
		TrainingConfig:  t.cfg,
		EpochsCompleted: t.history.Epochs(),
		FinalValLoss:    finalValLoss,
		TrainingHistory: &t.history,
	})
	if err != nil {
		return err
	}
	log.Printf("stored final artifact %v", t.outputFile)
	return nil
}
