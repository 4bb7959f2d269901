package domain

// PolicyActions is the number of legal move slots in connect four (one per column).
const PolicyActions = 7

// Sample is one self-play position produced by the external generator.
type Sample struct {
	Features     []float64 `json:"features"`
	ValueTarget  float64   `json:"value_target"`
	PolicyTarget []float64 `json:"policy_target"`
}

// History accumulates the six per-epoch loss curves for the run.
type History struct {
	ValueLoss     []float64 `json:"value_loss"`
	PolicyLoss    []float64 `json:"policy_loss"`
	TotalLoss     []float64 `json:"total_loss"`
	ValValueLoss  []float64 `json:"val_value_loss"`
	ValPolicyLoss []float64 `json:"val_policy_loss"`
	ValTotalLoss  []float64 `json:"val_total_loss"`
}

type EpochLosses struct {
	ValueLoss     float64
	PolicyLoss    float64
	TotalLoss     float64
	ValValueLoss  float64
	ValPolicyLoss float64
	ValTotalLoss  float64
}

func (h *History) Append(e EpochLosses) {
	h.ValueLoss = append(h.ValueLoss, e.ValueLoss)
	h.PolicyLoss = append(h.PolicyLoss, e.PolicyLoss)
	h.TotalLoss = append(h.TotalLoss, e.TotalLoss)
	h.ValValueLoss = append(h.ValValueLoss, e.ValValueLoss)
	h.ValPolicyLoss = append(h.ValPolicyLoss, e.ValPolicyLoss)
	h.ValTotalLoss = append(h.ValTotalLoss, e.ValTotalLoss)
}

func (h *History) Epochs() int {
	return len(h.TotalLoss)
}
