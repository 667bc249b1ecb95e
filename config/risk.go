package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

// RiskFile implementa ports.RiskSource sobre un YAML que se relee en cada llamada.
// Las claves ausentes conservan el valor por defecto.
type RiskFile struct {
	path string
	mu   sync.Mutex
}

// NewRiskFile crea la fuente de riesgo para la ruta dada.
func NewRiskFile(path string) *RiskFile {
	return &RiskFile{path: path}
}

// LoadRisk lee el archivo. Si no existe devuelve los defaults.
func (r *RiskFile) LoadRisk() (domain.RiskParams, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	params := domain.DefaultRiskParams()
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return params, nil
	}
	if err != nil {
		return params, fmt.Errorf("config.LoadRisk: read %q: %w", r.path, err)
	}
	if err := yaml.Unmarshal(data, &params); err != nil {
		return domain.DefaultRiskParams(), fmt.Errorf("config.LoadRisk: parse YAML: %w", err)
	}
	return params, nil
}

// SaveRisk reescribe el archivo de forma atómica (tmp + rename).
func (r *RiskFile) SaveRisk(params domain.RiskParams) error {
	if params.MinProfitMarginUSD < 0 || params.MinLiquidityPerLegUSD < 0 || params.RefSizeUSD <= 0 {
		return fmt.Errorf("config.SaveRisk: invalid params %+v", params)
	}

	data, err := yaml.Marshal(params)
	if err != nil {
		return fmt.Errorf("config.SaveRisk: marshal: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if dir := filepath.Dir(r.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config.SaveRisk: mkdir: %w", err)
		}
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("config.SaveRisk: write: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("config.SaveRisk: rename: %w", err)
	}
	return nil
}
