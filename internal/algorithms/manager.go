package algorithms

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"cv2x/internal/algorithms/borderremove"
	"cv2x/internal/algorithms/borderrepair"
	"cv2x/internal/algorithms/elongation"
	"cv2x/internal/algorithms/holefill"
	"cv2x/internal/algorithms/sizefilter"
	"cv2x/internal/config"
	"cv2x/internal/opencv/safe"
)

// Algorithm is one whole-mask repair step.
type Algorithm interface {
	Process(input *safe.Mat, params map[string]interface{}) (*safe.Mat, error)
	ValidateParameters(params map[string]interface{}) error
	GetDefaultParameters() map[string]interface{}
	GetName() string
}

// ContextualAlgorithm extends Algorithm with context support for cancellation
type ContextualAlgorithm interface {
	Algorithm
	ProcessWithContext(ctx context.Context, input *safe.Mat, params map[string]interface{}) (*safe.Mat, error)
}

// ReportingAlgorithm also returns counts worth logging.
type ReportingAlgorithm interface {
	Algorithm
	ProcessWithReport(ctx context.Context, input *safe.Mat, params map[string]interface{}) (*safe.Mat, map[string]interface{}, error)
}

type Manager struct {
	algorithms map[string]Algorithm
	parameters map[string]map[string]interface{}
	mu         sync.RWMutex
}

func NewManager() *Manager {
	manager := &Manager{
		algorithms: make(map[string]Algorithm),
		parameters: make(map[string]map[string]interface{}),
	}

	manager.registerAlgorithms()
	manager.initializeDefaultParameters()

	return manager
}

// NewManagerFromConfig seeds step parameters from cfg.
func NewManagerFromConfig(cfg *config.Config) *Manager {
	m := NewManager()

	m.parameters[config.StepSizeFilter]["min_size"] = cfg.Filter.MinSize
	m.parameters[config.StepSizeFilter]["max_size"] = cfg.Filter.MaxSize
	m.parameters[config.StepBorderRepair]["workers"] = cfg.Border.Workers
	m.parameters[config.StepBorderRepair]["drop_ambiguous"] = cfg.Border.DropAmbiguous
	m.parameters[config.StepElongate]["length"] = cfg.Elongate.Length
	m.parameters[config.StepElongate]["fraction"] = cfg.Elongate.Fraction

	return m
}

func (m *Manager) registerAlgorithms() {
	for _, alg := range []Algorithm{
		holefill.NewProcessor(),
		sizefilter.NewProcessor(),
		borderremove.NewProcessor(),
		borderrepair.NewProcessor(),
		elongation.NewProcessor(),
	} {
		m.algorithms[alg.GetName()] = alg
	}
}

func (m *Manager) initializeDefaultParameters() {
	for name, algorithm := range m.algorithms {
		m.parameters[name] = algorithm.GetDefaultParameters()
	}
}

func (m *Manager) GetParameters(algorithm string) map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if params, exists := m.parameters[algorithm]; exists {
		result := make(map[string]interface{})
		for k, v := range params {
			result[k] = v
		}
		return result
	}

	return make(map[string]interface{})
}

func (m *Manager) SetParameter(algorithm, name string, value interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	params, exists := m.parameters[algorithm]
	if !exists {
		return fmt.Errorf("unknown algorithm: %s", algorithm)
	}

	candidate := make(map[string]interface{}, len(params)+1)
	for k, v := range params {
		candidate[k] = v
	}
	candidate[name] = value

	if err := m.algorithms[algorithm].ValidateParameters(candidate); err != nil {
		return fmt.Errorf("invalid parameter %s for %s: %w", name, algorithm, err)
	}

	params[name] = value
	return nil
}

func (m *Manager) GetAlgorithm(name string) (Algorithm, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if algorithm, exists := m.algorithms[name]; exists {
		return algorithm, nil
	}

	return nil, fmt.Errorf("unknown algorithm: %s", name)
}

// GetAvailableAlgorithms lists step names in sorted order.
func (m *Manager) GetAvailableAlgorithms() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	algorithms := make([]string, 0, len(m.algorithms))
	for name := range m.algorithms {
		algorithms = append(algorithms, name)
	}
	sort.Strings(algorithms)

	return algorithms
}

// Run applies the named step with its stored parameters. The report is nil
// for steps that do not produce one.
func (m *Manager) Run(ctx context.Context, name string, input *safe.Mat) (*safe.Mat, map[string]interface{}, error) {
	algorithm, err := m.GetAlgorithm(name)
	if err != nil {
		return nil, nil, err
	}
	params := m.GetParameters(name)

	switch alg := algorithm.(type) {
	case ReportingAlgorithm:
		return alg.ProcessWithReport(ctx, input, params)
	case ContextualAlgorithm:
		result, err := alg.ProcessWithContext(ctx, input, params)
		return result, nil, err
	default:
		result, err := algorithm.Process(input, params)
		return result, nil, err
	}
}
