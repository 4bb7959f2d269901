package train

import "log"

// plateauScheduler implements reduce-on-plateau: the learning rate is halved
// after patience consecutive epochs without validation-loss improvement.
// Each network owns its own scheduler.
type plateauScheduler struct {
	name     string
	lr       float64
	factor   float64
	patience int
	best     float64
	seen     bool
	bad      int
}

func newPlateauScheduler(name string, learningRate float64) *plateauScheduler {
	return &plateauScheduler{
		name:     name,
		lr:       learningRate,
		factor:   0.5,
		patience: 5,
	}
}

func (s *plateauScheduler) Step(loss float64) {
	if !s.seen || loss < s.best {
		s.seen = true
		s.best = loss
		s.bad = 0
		return
	}
	s.bad++
	if s.bad >= s.patience {
		s.lr *= s.factor
		s.bad = 0
		log.Printf("%v learning rate reduced to %v", s.name, s.lr)
	}
}

func (s *plateauScheduler) LR() float64 {
	return s.lr
}

// earlyStopper tracks the best validation total loss and signals a stop
// after patience consecutive epochs without improvement.
type earlyStopper struct {
	patience int
	best     float64
	seen     bool
	bad      int
}

func (e *earlyStopper) Observe(loss float64) (improved, stop bool) {
	if !e.seen || loss < e.best {
		e.seen = true
		e.best = loss
		e.bad = 0
		return true, false
	}
	e.bad++
	return false, e.bad >= e.patience
}
