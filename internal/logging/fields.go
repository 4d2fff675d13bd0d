package logging

// Standardized structured logging keys.
const (
	FieldComponent    = "component"
	FieldRunID        = "run_id"
	FieldFile         = "file"
	FieldStage        = "stage"
	FieldEventType    = "event_type"
	FieldErrorHint    = "error_hint"
	FieldImpact       = "impact"
	FieldDecisionType = "decision_type"
)
