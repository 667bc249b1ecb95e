package domain

import "time"

// AuditAction identifica el tipo de registro de auditoría.
type AuditAction string

const (
	AuditPipelineQueueAdd       AuditAction = "pipeline_queue_add"
	AuditPipelineLLMError       AuditAction = "pipeline_llm_error"
	AuditQueueApprove           AuditAction = "queue_approve"
	AuditQueueReject            AuditAction = "queue_reject"
	AuditQueueReopen            AuditAction = "queue_reopen"
	AuditQueueApproveExec       AuditAction = "queue_approve_exec"
	AuditAutoTriggerExec        AuditAction = "auto_trigger_exec"
	AuditQueueApproveLayer3Fail AuditAction = "queue_approve_layer3_fail"
	AuditAutoTriggerLayer3Fail  AuditAction = "auto_trigger_layer3_fail"
	AuditExecutionModeChange    AuditAction = "execution_mode_change"
)

// ExecAction devuelve la acción de auditoría de una ejecución según su origen.
func ExecAction(source TriggerSource) AuditAction {
	if source == SourceAuto {
		return AuditAutoTriggerExec
	}
	return AuditQueueApproveExec
}

// Layer3FailAction devuelve la acción de auditoría de un rechazo Layer 3 según su origen.
func Layer3FailAction(source TriggerSource) AuditAction {
	if source == SourceAuto {
		return AuditAutoTriggerLayer3Fail
	}
	return AuditQueueApproveLayer3Fail
}

// AuditRecord es una línea del log de auditoría.
type AuditRecord struct {
	ID      string         `json:"id"`
	At      time.Time      `json:"ts"`
	Action  AuditAction    `json:"action"`
	Details map[string]any `json:"details"`
}
