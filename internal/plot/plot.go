// Package plot hands the loss history to the plotting collaborator by
// persisting it as a JSON document next to the weights.
package plot

import (
	"encoding/json"
	"os"

	"github.com/fourzero/trainer/internal/domain"
)

func WriteHistory(path string, history *domain.History) error {
	var data, err = json.MarshalIndent(history, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
