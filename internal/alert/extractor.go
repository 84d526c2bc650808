// Package alert turns monitoring webhook payloads into a typed AlertContext.
package alert

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/tidwall/gjson"

	"github.com/platformbuilds/mirador-pcap/internal/models"
)

// KnownContextPaths are the wrapper layouts seen from alert sources, tried in
// order before falling back to a document search.
var KnownContextPaths = []string{
	"context",
	"data.context",
	"RequestBody.context",
	"requestBody.context",
	"body.context",
}

// maxSearchDepth bounds the fallback search for a "context" node.
const maxSearchDepth = 8

var contextValidate *validator.Validate

func init() {
	contextValidate = validator.New()
	contextValidate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = contextValidate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

// FieldError represents a single validation problem for a field
type FieldError struct {
	Field   string
	Message string
}

// ValidationError aggregates the problems found in an alert payload.
type ValidationError struct {
	Problems []FieldError
}

func (v *ValidationError) Error() string {
	if v == nil || len(v.Problems) == 0 {
		return ""
	}
	parts := make([]string, 0, len(v.Problems))
	for _, p := range v.Problems {
		parts = append(parts, fmt.Sprintf("%s: %s", p.Field, p.Message))
	}
	return "insufficient context sent by webhook: " + strings.Join(parts, "; ")
}

// Fields lists the offending field names in declaration order.
func (v *ValidationError) Fields() []string {
	if v == nil {
		return nil
	}
	out := make([]string, 0, len(v.Problems))
	for _, p := range v.Problems {
		out = append(out, p.Field)
	}
	return out
}

func (v *ValidationError) add(field, msg string) {
	v.Problems = append(v.Problems, FieldError{Field: field, Message: msg})
}

// Extract locates the alert "context" object in raw and returns it as a
// validated AlertContext. Errors are always *ValidationError.
func Extract(raw []byte) (*models.AlertContext, error) {
	var ve ValidationError
	if len(raw) == 0 {
		ve.add("body", "request body is empty")
		return nil, &ve
	}
	if !gjson.ValidBytes(raw) {
		ve.add("body", "request body is not valid JSON")
		return nil, &ve
	}

	node, ok := findContext(gjson.ParseBytes(raw))
	if !ok {
		ve.add("context", "no context object found in payload")
		return nil, &ve
	}

	ac := fromNode(node)
	if err := contextValidate.Struct(ac); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			ve.add("context", err.Error())
			return nil, &ve
		}
		for _, fe := range verrs {
			ve.add(fe.Field(), "is required")
		}
		return nil, &ve
	}
	return ac, nil
}

// findContext tries the known wrapper paths, then searches the document
// breadth-first for the shallowest "context" key holding an object.
func findContext(doc gjson.Result) (gjson.Result, bool) {
	for _, path := range KnownContextPaths {
		if r := doc.Get(path); r.IsObject() {
			return r, true
		}
	}

	type item struct {
		node  gjson.Result
		depth int
	}
	queue := []item{{node: doc}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= maxSearchDepth {
			continue
		}

		var found gjson.Result
		hit := false
		cur.node.ForEach(func(key, value gjson.Result) bool {
			if cur.node.IsObject() && key.String() == "context" && value.IsObject() {
				found, hit = value, true
				return false
			}
			if value.IsObject() || value.IsArray() {
				queue = append(queue, item{node: value, depth: cur.depth + 1})
			}
			return true
		})
		if hit {
			return found, true
		}
	}
	return gjson.Result{}, false
}

func fromNode(node gjson.Result) *models.AlertContext {
	ac := &models.AlertContext{
		SubscriptionID:    text(node.Get("subscriptionId")),
		ResourceGroupName: text(node.Get("resourceGroupName")),
		ResourceRegion:    text(node.Get("resourceRegion")),
		ResourceName:      text(node.Get("resourceName")),
		ResourceID:        text(node.Get("resourceId")),
		ID:                text(node.Get("id")),
		Name:              text(node.Get("name")),
		Description:       text(node.Get("description")),
		ConditionType:     text(node.Get("conditionType")),
		ResourceType:      text(node.Get("resourceType")),
		PortalLink:        text(node.Get("portalLink")),
		Timestamp:         text(node.Get("timestamp")),
	}
	if cond := node.Get("condition"); cond.IsObject() {
		ac.Condition = &models.AlertCondition{
			MetricName:      text(cond.Get("metricName")),
			MetricUnit:      text(cond.Get("metricUnit")),
			MetricValue:     text(cond.Get("metricValue")),
			Threshold:       text(cond.Get("threshold")),
			WindowSize:      text(cond.Get("windowSize")),
			TimeAggregation: text(cond.Get("timeAggregation")),
			OperatorName:    text(cond.Get("operator")),
		}
		if ac.Condition.OperatorName == "" {
			ac.Condition.OperatorName = text(cond.Get("operatorName"))
		}
	}
	return ac
}

// text returns strings and numbers as text; any other JSON type is absent.
func text(r gjson.Result) string {
	switch r.Type {
	case gjson.String:
		return r.Str
	case gjson.Number:
		return r.Raw
	default:
		return ""
	}
}
