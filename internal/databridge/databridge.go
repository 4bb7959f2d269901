package databridge

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log"
	"math"
	"os"
	"os/exec"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/fourzero/trainer/internal/config"
	"github.com/fourzero/trainer/internal/domain"
)

// Request is the generation request document handed to the self-play worker.
type Request struct {
	NumGames            int     `json:"num_games"`
	MCTSSimulations     int     `json:"mcts_simulations"`
	ExplorationConstant float64 `json:"exploration_constant"`
	Temperature         float64 `json:"temperature"`
	DirichletAlpha      float64 `json:"dirichlet_alpha"`
	DirichletEpsilon    float64 `json:"dirichlet_epsilon"`
	OutputFile          string  `json:"output_file"`
}

type response struct {
	TrainingData []domain.Sample `json:"training_data"`
}

// Bridge owns the file interchange with the external generator: it writes
// the request document, runs the generator as a blocking subprocess and
// parses the response document.
type Bridge struct {
	Command     []string // generator argv; the request path is appended
	WorkDir     string
	RequestPath string
	DataPath    string
	InputSize   int
	PolicySize  int
}

// Generate runs one self-play generation round. The transient request file
// is removed in all cases, including generator failure.
func (b *Bridge) Generate(ctx context.Context, cfg config.Training) ([]domain.Sample, error) {
	var request = Request{
		NumGames:            cfg.NumGames,
		MCTSSimulations:     cfg.MCTSSimulations,
		ExplorationConstant: cfg.ExplorationConstant,
		Temperature:         cfg.Temperature,
		DirichletAlpha:      cfg.DirichletAlpha,
		DirichletEpsilon:    cfg.DirichletEpsilon,
		OutputFile:          b.DataPath,
	}
	var data, err = json.MarshalIndent(&request, "", "  ")
	if err != nil {
		return nil, err
	}
	if err = os.WriteFile(b.RequestPath, data, 0o644); err != nil {
		return nil, err
	}
	defer os.Remove(b.RequestPath)

	if err = b.runGenerator(ctx); err != nil {
		return nil, err
	}
	return b.readResponse()
}

func (b *Bridge) runGenerator(ctx context.Context) error {
	if len(b.Command) == 0 {
		return domain.Datagenf("no generator command configured")
	}
	var args = append(append([]string{}, b.Command[1:]...), b.RequestPath)
	var cmd = exec.CommandContext(ctx, b.Command[0], args...)
	cmd.Dir = b.WorkDir

	var pr, pw = io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	var g, _ = errgroup.WithContext(ctx)
	g.Go(func() error {
		var scanner = bufio.NewScanner(pr)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			log.Println("generator:", scanner.Text())
		}
		return scanner.Err()
	})

	var runErr = cmd.Run()
	pw.Close()
	if err := g.Wait(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		return &domain.DataGenerationError{Msg: "self-play generator failed", Err: runErr}
	}
	return nil
}

func (b *Bridge) readResponse() ([]domain.Sample, error) {
	var data, err = os.ReadFile(b.DataPath)
	if err != nil {
		return nil, &domain.DataGenerationError{Msg: "read response document", Err: err}
	}
	var doc response
	if err = json.Unmarshal(data, &doc); err != nil {
		return nil, &domain.DataGenerationError{Msg: "parse response document", Err: err}
	}
	if len(doc.TrainingData) == 0 {
		return nil, domain.Datagenf("response document has no training samples")
	}
	for i := range doc.TrainingData {
		if err = b.validateSample(&doc.TrainingData[i]); err != nil {
			return nil, err
		}
	}
	log.Printf("loaded %v training samples", len(doc.TrainingData))
	return doc.TrainingData, nil
}

func (b *Bridge) validateSample(s *domain.Sample) error {
	if len(s.Features) != b.InputSize {
		return domain.Shapef("sample has %v features, expected %v", len(s.Features), b.InputSize)
	}
	if len(s.PolicyTarget) != b.PolicySize {
		return domain.Shapef("policy target has %v entries, expected %v", len(s.PolicyTarget), b.PolicySize)
	}
	if s.ValueTarget < -1 || s.ValueTarget > 1 {
		return domain.Datagenf("value target %v outside [-1,1]", s.ValueTarget)
	}
	for _, p := range s.PolicyTarget {
		if p < 0 {
			return domain.Datagenf("policy target has negative probability %v", p)
		}
	}
	if sum := floats.Sum(s.PolicyTarget); math.Abs(sum-1) > 1e-3 {
		return domain.Datagenf("policy target sums to %v, expected 1", sum)
	}
	return nil
}

// Split partitions samples into train and validation sets in their original
// order. Shuffling happens per epoch during batch iteration, never here.
func Split(samples []domain.Sample, validationSplit float64) (training, validation []domain.Sample) {
	var splitIndex = int(float64(len(samples)) * (1 - validationSplit))
	return samples[:splitIndex], samples[splitIndex:]
}
