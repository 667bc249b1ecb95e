package domain

import (
	"fmt"
	"strings"
)

// ExecutionMode selecciona envío simulado o real.
type ExecutionMode string

const (
	ExecutionPaper ExecutionMode = "paper"
	ExecutionLive  ExecutionMode = "live"
)

// TriggerMode decide si las oportunidades validadas esperan aprobación humana.
type TriggerMode string

const (
	TriggerManual TriggerMode = "manual"
	TriggerAuto   TriggerMode = "auto"
)

// TriggerSource es quién disparó una ejecución.
type TriggerSource string

const (
	SourceManual   TriggerSource = "manual"
	SourceAuto     TriggerSource = "auto"
	SourcePipeline TriggerSource = "pipeline"
)

// ModeState es el estado de ejecución del proceso. Se lee fresco en cada decisión.
type ModeState struct {
	ExecutionMode ExecutionMode `json:"EXECUTION_MODE"`
	DryRun        bool          `json:"DRY_RUN"`
	TriggerMode   TriggerMode   `json:"TRIGGER_MODE"`
}

// DefaultModeState: paper, dry run, manual.
func DefaultModeState() ModeState {
	return ModeState{
		ExecutionMode: ExecutionPaper,
		DryRun:        true,
		TriggerMode:   TriggerManual,
	}
}

// Simulated indica si el envío debe simularse (paper o dry run).
func (s ModeState) Simulated() bool {
	return s.ExecutionMode != ExecutionLive || s.DryRun
}

// ModeUpdate es un cambio parcial; los campos nil no se tocan.
type ModeUpdate struct {
	ExecutionMode *ExecutionMode
	DryRun        *bool
	TriggerMode   *TriggerMode
}

// Apply devuelve el estado resultante de aplicar u.
// Cambiar el modo de ejecución resetea DryRun a (modo == paper) salvo que
// DryRun venga también en el update.
func (s ModeState) Apply(u ModeUpdate) ModeState {
	if u.ExecutionMode != nil {
		s.ExecutionMode = *u.ExecutionMode
		s.DryRun = s.ExecutionMode == ExecutionPaper
	}
	if u.DryRun != nil {
		s.DryRun = *u.DryRun
	}
	if u.TriggerMode != nil {
		s.TriggerMode = *u.TriggerMode
	}
	return s
}

// ParseExecutionMode acepta paper|live sin importar mayúsculas.
func ParseExecutionMode(s string) (ExecutionMode, error) {
	switch m := ExecutionMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ExecutionPaper, ExecutionLive:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// ParseTriggerMode devuelve auto solo para "auto"; cualquier otro valor es manual.
func ParseTriggerMode(s string) TriggerMode {
	if strings.ToLower(strings.TrimSpace(s)) == string(TriggerAuto) {
		return TriggerAuto
	}
	return TriggerManual
}
