package planstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/sprigga/WebPDTool-sub005/internal/config"
	"github.com/sprigga/WebPDTool-sub005/internal/domain/models"
	"github.com/sprigga/WebPDTool-sub005/internal/interfaces"
	"github.com/sprigga/WebPDTool-sub005/internal/middleware/logging"
)

// planFile - формат JSON-файла плана: plans/<station_id>.json.
type planFile struct {
	Options models.PlanOptions    `json:"options"`
	Steps   []models.TestPlanStep `json:"steps"`
}

type cachedPlan struct {
	plan    planFile
	modTime time.Time
}

// FileStore читает тест-планы из директории с JSON-файлами, по одному на
// station_id. Файл перечитывается, если его mtime изменился: правка плана
// не требует перезапуска сервиса, но уже запущенная сессия держит свой
// снимок шагов и изменений не видит.
type FileStore struct {
	mu       sync.RWMutex
	plansDir string
	cache    map[string]cachedPlan
	logger   *logging.Logger
}

func NewFileStore(cfg *config.AppConfig, logger *logging.Logger) interfaces.PlanStore {
	return &FileStore{
		plansDir: cfg.Station.PlansDir,
		cache:    make(map[string]cachedPlan),
		logger:   logger.WithPrefix("PLANSTORE"),
	}
}

func (s *FileStore) GetPlan(stationID string) ([]models.TestPlanStep, error) {
	plan, err := s.load(stationID)
	if err != nil {
		return nil, err
	}

	steps := make([]models.TestPlanStep, len(plan.Steps))
	copy(steps, plan.Steps)
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].Index < steps[j].Index })
	return steps, nil
}

func (s *FileStore) GetPlanOptions(stationID string) (models.PlanOptions, error) {
	plan, err := s.load(stationID)
	if err != nil {
		return models.PlanOptions{}, err
	}
	return plan.Options, nil
}

func (s *FileStore) load(stationID string) (*planFile, error) {
	path := filepath.Join(s.plansDir, filepath.Base(stationID)+".json")

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("no test plan for station '%s': %w", stationID, err)
	}

	s.mu.RLock()
	cached, ok := s.cache[stationID]
	s.mu.RUnlock()
	if ok && cached.modTime.Equal(info.ModTime()) {
		return &cached.plan, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read test plan '%s': %w", path, err)
	}

	var plan planFile
	if err := json.Unmarshal(raw, &plan); err != nil {
		return nil, fmt.Errorf("malformed test plan '%s': %w", path, err)
	}
	if err := validatePlan(&plan); err != nil {
		return nil, fmt.Errorf("invalid test plan '%s': %w", path, err)
	}

	s.mu.Lock()
	s.cache[stationID] = cachedPlan{plan: plan, modTime: info.ModTime()}
	s.mu.Unlock()

	s.logger.Info("Test plan loaded", "station_id", stationID, "steps", len(plan.Steps))
	return &plan, nil
}

// validatePlan проверяет структурные инварианты плана: уникальность step_id
// и то, что use_result ссылается только на предшествующие шаги.
func validatePlan(plan *planFile) error {
	seen := make(map[string]struct{}, len(plan.Steps))
	for i := range plan.Steps {
		step := &plan.Steps[i]
		if step.StepID == "" {
			return fmt.Errorf("step %d has empty step_id", i)
		}
		if _, dup := seen[step.StepID]; dup {
			return fmt.Errorf("duplicate step_id '%s'", step.StepID)
		}
		if step.UseResult != "" {
			if _, ok := seen[step.UseResult]; !ok {
				return fmt.Errorf("step '%s': use_result refers to unknown or later step '%s'", step.StepID, step.UseResult)
			}
		}
		seen[step.StepID] = struct{}{}
	}
	return nil
}

// instrumentsFile - формат JSON-реестра инструментов станции.
type instrumentsFile struct {
	Instruments    map[string]models.TransportDescriptor `json:"instruments"`
	LegacyCommands map[string]models.LegacyCommand       `json:"legacy_commands"`
}

// InstrumentRegistry - реестр инструментов, загружаемый один раз при старте.
// Состав инструментов станции меняется только с перезапуском сервиса.
type InstrumentRegistry struct {
	registry instrumentsFile
}

func NewInstrumentRegistry(cfg *config.AppConfig, logger *logging.Logger) (interfaces.InstrumentConfigStore, error) {
	raw, err := os.ReadFile(cfg.Station.InstrumentsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read instruments registry: %w", err)
	}

	var registry instrumentsFile
	if err := json.Unmarshal(raw, &registry); err != nil {
		return nil, fmt.Errorf("malformed instruments registry '%s': %w", cfg.Station.InstrumentsFile, err)
	}

	logger.WithPrefix("PLANSTORE").Info("Instruments registry loaded",
		"instruments", len(registry.Instruments), "legacy_commands", len(registry.LegacyCommands))
	return &InstrumentRegistry{registry: registry}, nil
}

func (r *InstrumentRegistry) GetDescriptor(instrumentID string) (*models.TransportDescriptor, error) {
	desc, ok := r.registry.Instruments[instrumentID]
	if !ok {
		return nil, fmt.Errorf("instrument '%s' is not registered", instrumentID)
	}
	return &desc, nil
}

func (r *InstrumentRegistry) GetLegacyCommand(kind models.MeasurementKind) (*models.LegacyCommand, error) {
	cmd, ok := r.registry.LegacyCommands[string(kind)]
	if !ok {
		return nil, fmt.Errorf("no legacy command registered for measurement kind '%s'", kind)
	}
	return &cmd, nil
}

func (r *InstrumentRegistry) ListInstruments() []string {
	ids := make([]string, 0, len(r.registry.Instruments))
	for id := range r.registry.Instruments {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
