package model

// TriggerInstance requests a new workflow instance
type TriggerInstance struct {
	WorkflowID       string `json:"workflowId,omitempty"`
	SourceWorkflowID string `json:"sourceWorkflowId,omitempty"`
	// WorkflowInstanceID presets the new instance id
	WorkflowInstanceID string                 `json:"workflowInstanceId,omitempty"`
	StartActivityIDs   []string               `json:"startActivityIds,omitempty"`
	BusinessKey        string                 `json:"businessKey,omitempty"`
	Data               map[string]interface{} `json:"data,omitempty"`
	VariableValues     map[string]interface{} `json:"variableValues,omitempty"`

	// Caller references the call activity that started this instance
	CallerWorkflowInstanceID string `json:"callerWorkflowInstanceId,omitempty"`
	CallerActivityInstanceID string `json:"callerActivityInstanceId,omitempty"`
}

// NewTriggerInstance creates a trigger for workflow id
func NewTriggerInstance(workflowID string) *TriggerInstance {
	return &TriggerInstance{WorkflowID: workflowID}
}

// WithData sets trigger data entry
func (t *TriggerInstance) WithData(key string, value interface{}) *TriggerInstance {
	if t.Data == nil {
		t.Data = make(map[string]interface{})
	}
	t.Data[key] = value
	return t
}

// WithVariable sets a raw variable value
func (t *TriggerInstance) WithVariable(id string, value interface{}) *TriggerInstance {
	if t.VariableValues == nil {
		t.VariableValues = make(map[string]interface{})
	}
	t.VariableValues[id] = value
	return t
}

// Message delivers data to a waiting activity instance
type Message struct {
	WorkflowInstanceID string                 `json:"workflowInstanceId"`
	ActivityInstanceID string                 `json:"activityInstanceId"`
	VariableValues     map[string]interface{} `json:"variableValues,omitempty"`
}

// NewMessage creates a message for the supplied activity instance
func NewMessage(workflowInstanceID, activityInstanceID string) *Message {
	return &Message{WorkflowInstanceID: workflowInstanceID, ActivityInstanceID: activityInstanceID}
}

// WithVariable sets a message variable value
func (m *Message) WithVariable(id string, value interface{}) *Message {
	if m.VariableValues == nil {
		m.VariableValues = make(map[string]interface{})
	}
	m.VariableValues[id] = value
	return m
}
