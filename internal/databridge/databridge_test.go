package databridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/fourzero/trainer/internal/config"
	"github.com/fourzero/trainer/internal/domain"
)

func testBridge(t *testing.T, command []string) *Bridge {
	t.Helper()
	var dir = t.TempDir()
	return &Bridge{
		Command:     command,
		WorkDir:     dir,
		RequestPath: filepath.Join(dir, "request.json"),
		DataPath:    filepath.Join(dir, "data.json"),
		InputSize:   4,
		PolicySize:  domain.PolicyActions,
	}
}

func writeResponse(t *testing.T, path string, samples []domain.Sample) {
	t.Helper()
	var data, err = json.Marshal(map[string]any{"training_data": samples})
	if err != nil {
		t.Fatal(err)
	}
	if err = os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func validSample(i int) domain.Sample {
	return domain.Sample{
		Features:     []float64{float64(i), 0, 0, 1},
		ValueTarget:  0.5,
		PolicyTarget: []float64{1, 0, 0, 0, 0, 0, 0},
	}
}

func TestGenerateFailureCleansRequestFile(t *testing.T) {
	var bridge = testBridge(t, []string{"sh", "-c", "exit 1"})
	var _, err = bridge.Generate(context.Background(), config.DefaultTraining())

	var genErr *domain.DataGenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("got err %v, want DataGenerationError", err)
	}
	if _, statErr := os.Stat(bridge.RequestPath); !os.IsNotExist(statErr) {
		t.Errorf("request file still exists after generator failure")
	}
}

func TestGenerateSuccess(t *testing.T) {
	var bridge = testBridge(t, nil)
	var source = filepath.Join(t.TempDir(), "prepared.json")
	writeResponse(t, source, []domain.Sample{validSample(0), validSample(1)})
	bridge.Command = []string{"sh", "-c", fmt.Sprintf("echo generating; cp %v %v", source, bridge.DataPath)}

	var samples, err = bridge.Generate(context.Background(), config.DefaultTraining())
	if err != nil {
		t.Fatal(err)
	}
	if len(samples) != 2 {
		t.Fatalf("got %v samples, want 2", len(samples))
	}
	if samples[1].Features[0] != 1 {
		t.Errorf("sample order not preserved")
	}
	if _, statErr := os.Stat(bridge.RequestPath); !os.IsNotExist(statErr) {
		t.Errorf("request file still exists after success")
	}
}

func TestGenerateWritesRequestDocument(t *testing.T) {
	var bridge = testBridge(t, nil)
	var captured = filepath.Join(t.TempDir(), "captured.json")
	var source = filepath.Join(t.TempDir(), "prepared.json")
	writeResponse(t, source, []domain.Sample{validSample(0)})
	// the generator receives the request path as its final argument
	bridge.Command = []string{"sh", "-c",
		fmt.Sprintf(`cp "$0" %v; cp %v %v`, captured, source, bridge.DataPath)}

	var cfg = config.DefaultTraining()
	cfg.NumGames = 123
	if _, err := bridge.Generate(context.Background(), cfg); err != nil {
		t.Fatal(err)
	}

	var data, err = os.ReadFile(captured)
	if err != nil {
		t.Fatal(err)
	}
	var request Request
	if err = json.Unmarshal(data, &request); err != nil {
		t.Fatal(err)
	}
	if request.NumGames != 123 {
		t.Errorf("request num_games = %v, want 123", request.NumGames)
	}
	if request.OutputFile != bridge.DataPath {
		t.Errorf("request output_file = %v, want %v", request.OutputFile, bridge.DataPath)
	}
}

func TestResponseValidation(t *testing.T) {
	tests := []struct {
		name      string
		sample    domain.Sample
		wantShape bool
	}{
		{
			"bad feature length",
			domain.Sample{Features: []float64{1, 2}, ValueTarget: 0, PolicyTarget: []float64{1, 0, 0, 0, 0, 0, 0}},
			true,
		},
		{
			"bad policy length",
			domain.Sample{Features: []float64{1, 2, 3, 4}, ValueTarget: 0, PolicyTarget: []float64{1, 0, 0}},
			true,
		},
		{
			"value out of range",
			domain.Sample{Features: []float64{1, 2, 3, 4}, ValueTarget: 1.5, PolicyTarget: []float64{1, 0, 0, 0, 0, 0, 0}},
			false,
		},
		{
			"negative probability",
			domain.Sample{Features: []float64{1, 2, 3, 4}, ValueTarget: 0, PolicyTarget: []float64{1.5, -0.5, 0, 0, 0, 0, 0}},
			false,
		},
		{
			"distribution does not sum to 1",
			domain.Sample{Features: []float64{1, 2, 3, 4}, ValueTarget: 0, PolicyTarget: []float64{0.5, 0.1, 0, 0, 0, 0, 0}},
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var bridge = testBridge(t, nil)
			var source = filepath.Join(t.TempDir(), "prepared.json")
			writeResponse(t, source, []domain.Sample{tt.sample})
			bridge.Command = []string{"sh", "-c", fmt.Sprintf("cp %v %v", source, bridge.DataPath)}

			var _, err = bridge.Generate(context.Background(), config.DefaultTraining())
			if tt.wantShape {
				var shapeErr *domain.ShapeError
				if !errors.As(err, &shapeErr) {
					t.Fatalf("got err %v, want ShapeError", err)
				}
				return
			}
			var genErr *domain.DataGenerationError
			if !errors.As(err, &genErr) {
				t.Fatalf("got err %v, want DataGenerationError", err)
			}
		})
	}
}

func TestGenerateMalformedResponse(t *testing.T) {
	var bridge = testBridge(t, nil)
	bridge.Command = []string{"sh", "-c", fmt.Sprintf("echo '{broken' > %v", bridge.DataPath)}
	var _, err = bridge.Generate(context.Background(), config.DefaultTraining())
	var genErr *domain.DataGenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("got err %v, want DataGenerationError", err)
	}
}

func TestSplit(t *testing.T) {
	var samples = make([]domain.Sample, 1000)
	for i := range samples {
		samples[i] = validSample(i)
	}
	var training, validation = Split(samples, 0.2)
	if len(training) != 800 || len(validation) != 200 {
		t.Fatalf("split %v/%v, want 800/200", len(training), len(validation))
	}
	if training[0].Features[0] != 0 || training[799].Features[0] != 799 {
		t.Errorf("training partition not in original order")
	}
	if validation[0].Features[0] != 800 || validation[199].Features[0] != 999 {
		t.Errorf("validation partition not in original order")
	}
}
