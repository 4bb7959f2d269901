package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/fourzero/trainer/internal/config"
	"github.com/fourzero/trainer/internal/databridge"
	"github.com/fourzero/trainer/internal/train"
)

var (
	archPath   string
	weightsDir string
	dataDir    string
	outputFile string
	genCommand string
	genDir     string
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	var cfg = config.DefaultTraining()
	flag.StringVar(&archPath, "arch", "ml/config/training.json", "Path to unified architecture config")
	flag.StringVar(&weightsDir, "weights", "ml/data/weights", "Weights output directory")
	flag.StringVar(&dataDir, "data", "training-data", "Directory for the request/response documents")
	flag.StringVar(&outputFile, "out", "ml_ai_weights_self_play.json", "Final artifact file")
	flag.StringVar(&genCommand, "gen", "cargo run --bin train --release --features training -- self_play", "Self-play generator command")
	flag.StringVar(&genDir, "gendir", "worker/rust_ai_core", "Generator working directory")
	flag.IntVar(&cfg.NumGames, "games", cfg.NumGames, "Number of self-play games")
	flag.IntVar(&cfg.Epochs, "epochs", cfg.Epochs, "Number of training epochs")
	flag.IntVar(&cfg.BatchSize, "bs", cfg.BatchSize, "Batch size")
	flag.Float64Var(&cfg.LearningRate, "lr", cfg.LearningRate, "Learning rate")
	flag.Float64Var(&cfg.ValidationSplit, "split", cfg.ValidationSplit, "Validation split fraction")
	flag.IntVar(&cfg.MCTSSimulations, "sims", cfg.MCTSSimulations, "MCTS simulations per move")
	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed")
	flag.BoolVar(&cfg.UseAttention, "attention", cfg.UseAttention, "Use the attention block")
	flag.BoolVar(&cfg.UseResidual, "residual", cfg.UseResidual, "Use residual blocks")
	flag.Parse()

	log.Printf("%+v", cfg)

	var err = run(cfg)
	if err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func run(cfg config.Training) error {
	var arch, err = config.LoadArchitecture(archPath)
	if err != nil {
		return err
	}
	if err = os.MkdirAll(weightsDir, os.ModePerm); err != nil {
		return err
	}
	if err = os.MkdirAll(dataDir, os.ModePerm); err != nil {
		return err
	}

	var bridge = &databridge.Bridge{
		Command:     strings.Fields(genCommand),
		WorkDir:     genDir,
		RequestPath: filepath.Join(dataDir, "temp_self_play_config.json"),
		DataPath:    filepath.Join(dataDir, "temp_self_play_data.json"),
		InputSize:   arch.InputSize,
		PolicySize:  arch.PolicyOutputSize,
	}
	samples, err := bridge.Generate(context.Background(), cfg)
	if err != nil {
		return err
	}
	training, validation := databridge.Split(samples, cfg.ValidationSplit)

	var out = outputFile
	if !filepath.IsAbs(out) {
		out = filepath.Join(weightsDir, out)
	}
	trainer, err := train.New(arch, cfg, weightsDir, out)
	if err != nil {
		return err
	}
	result, err := trainer.Train(training, validation)
	if err != nil {
		return err
	}
	log.Printf("final validation loss: %.4f", result.FinalValLoss)
	log.Printf("epochs completed: %v", result.EpochsCompleted)
	return nil
}
