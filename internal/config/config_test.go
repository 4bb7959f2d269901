package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fourzero/trainer/internal/domain"
)

func TestLoadArchitectureAbsent(t *testing.T) {
	var arch, err = LoadArchitecture(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatal(err)
	}
	var want = DefaultArchitecture()
	if arch.InputSize != want.InputSize ||
		len(arch.HiddenSizes) != len(want.HiddenSizes) ||
		arch.PolicyOutputSize != want.PolicyOutputSize {
		t.Errorf("absent file: got %+v, want default %+v", arch, want)
	}
}

func TestLoadArchitecture(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		want    Architecture
		wantErr bool
	}{
		{
			"valid",
			`{"network_architecture":{"input_size":150,"hidden_sizes":[256,128,64,32],"value_output_size":1,"policy_output_size":7}}`,
			Architecture{150, []int{256, 128, 64, 32}, 1, 7},
			false,
		},
		{"malformed json", `{"network_architecture":`, Architecture{}, true},
		{"missing section", `{}`, Architecture{}, true},
		{
			"zero input size",
			`{"network_architecture":{"input_size":0,"hidden_sizes":[64],"value_output_size":1,"policy_output_size":7}}`,
			Architecture{}, true,
		},
		{
			"empty hidden sizes",
			`{"network_architecture":{"input_size":150,"hidden_sizes":[],"value_output_size":1,"policy_output_size":7}}`,
			Architecture{}, true,
		},
		{
			"wrong policy size",
			`{"network_architecture":{"input_size":150,"hidden_sizes":[64],"value_output_size":1,"policy_output_size":9}}`,
			Architecture{}, true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var path = filepath.Join(t.TempDir(), "training.json")
			if err := os.WriteFile(path, []byte(tt.doc), 0o644); err != nil {
				t.Fatal(err)
			}
			var arch, err = LoadArchitecture(path)
			if tt.wantErr {
				var configErr *domain.ConfigError
				if !errors.As(err, &configErr) {
					t.Fatalf("got err %v, want ConfigError", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if arch.InputSize != tt.want.InputSize || len(arch.HiddenSizes) != len(tt.want.HiddenSizes) {
				t.Errorf("got %+v, want %+v", arch, tt.want)
			}
		})
	}
}
