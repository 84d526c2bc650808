package models

// AlertContext identifies the resource that fired the alert. Every field is
// required; a missing one is a validation failure, never defaulted.
type AlertContext struct {
	SubscriptionID    string `json:"subscriptionId" validate:"required,notblank"`
	ResourceGroupName string `json:"resourceGroupName" validate:"required,notblank"`
	ResourceRegion    string `json:"resourceRegion" validate:"required,notblank"`
	ResourceName      string `json:"resourceName" validate:"required,notblank"`
	ResourceID        string `json:"resourceId" validate:"required,notblank"`

	// Informational fields carried by classic metric alerts.
	ID            string          `json:"id,omitempty"`
	Name          string          `json:"name,omitempty"`
	Description   string          `json:"description,omitempty"`
	ConditionType string          `json:"conditionType,omitempty"`
	ResourceType  string          `json:"resourceType,omitempty"`
	PortalLink    string          `json:"portalLink,omitempty"`
	Timestamp     string          `json:"timestamp,omitempty"`
	Condition     *AlertCondition `json:"condition,omitempty"`
}

// AlertCondition is the metric condition of a classic metric alert.
type AlertCondition struct {
	MetricName      string `json:"metricName,omitempty"`
	MetricUnit      string `json:"metricUnit,omitempty"`
	MetricValue     string `json:"metricValue,omitempty"`
	Threshold       string `json:"threshold,omitempty"`
	WindowSize      string `json:"windowSize,omitempty"`
	TimeAggregation string `json:"timeAggregation,omitempty"`
	OperatorName    string `json:"operatorName,omitempty"`
}

// LogFields returns the context as key/value pairs for the structured logger.
func (a *AlertContext) LogFields() []interface{} {
	return []interface{}{
		"subscription_id", a.SubscriptionID,
		"resource_group", a.ResourceGroupName,
		"resource_region", a.ResourceRegion,
		"resource_name", a.ResourceName,
		"resource_id", a.ResourceID,
	}
}
