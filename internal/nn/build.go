package nn

import (
	"math/rand"

	"github.com/fourzero/trainer/internal/config"
	"github.com/fourzero/trainer/internal/domain"
	"github.com/fourzero/trainer/internal/ml"
)

const DefaultDropout = 0.1

// Options selects the optional sub-modules of a head.
type Options struct {
	UseAttention bool
	UseResidual  bool
	Heads        int
	Dropout      float64
}

// NewValueNetwork builds the value head: tanh output bounded to [-1,1].
func NewValueNetwork(arch config.Architecture, opts Options, rnd *rand.Rand) (*Network, error) {
	return build(arch.InputSize, arch.HiddenSizes, arch.ValueOutputSize, &ml.TanhActivation{}, opts, rnd)
}

// NewPolicyNetwork builds the policy head: raw scores, normalization
// happens in the loss.
func NewPolicyNetwork(arch config.Architecture, opts Options, rnd *rand.Rand) (*Network, error) {
	return build(arch.InputSize, arch.HiddenSizes, arch.PolicyOutputSize, &ml.IdentityActivation{}, opts, rnd)
}

func build(
	inputSize int,
	hiddenSizes []int,
	outputSize int,
	outputActivation ml.IActivationFn,
	opts Options,
	rnd *rand.Rand,
) (*Network, error) {
	if len(hiddenSizes) == 0 {
		return nil, domain.Shapef("at least one hidden layer is required")
	}
	var dropRate = opts.Dropout
	if dropRate == 0 {
		dropRate = DefaultDropout
	}
	var relu = &ml.ReLuActivation{}

	var blocks []Block
	blocks = append(blocks, NewDenseBlock(inputSize, hiddenSizes[0], relu, dropRate, rnd))
	var prev = hiddenSizes[0]
	for i := 1; i < len(hiddenSizes); i++ {
		// single insertion point, immediately after the first hidden
		// transition; never repeated later in the stack
		if opts.UseAttention && i == 1 {
			var attention, err = NewAttentionBlock(prev, opts.Heads, dropRate, rnd)
			if err != nil {
				return nil, err
			}
			blocks = append(blocks, attention)
		}
		if opts.UseResidual && hiddenSizes[i] == prev {
			blocks = append(blocks, NewResidualBlock(prev, dropRate, rnd))
		} else {
			blocks = append(blocks, NewDenseBlock(prev, hiddenSizes[i], relu, dropRate, rnd))
		}
		prev = hiddenSizes[i]
	}
	blocks = append(blocks, NewDenseBlock(prev, outputSize, outputActivation, 0, rnd))

	return &Network{
		inputSize: inputSize,
		blocks:    blocks,
	}, nil
}
