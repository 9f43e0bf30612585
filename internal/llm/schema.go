package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/nordbok/invoice-ingest/constants"
)

// BuildInvoiceJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. It is sent to the model as the output constraint and used
// locally to validate whatever comes back.
func BuildInvoiceJSONSchema() map[string]any {
	headerProps := map[string]any{
		"supplier_name": map[string]any{"type": "string"},
		"tax_id":        map[string]any{"type": "string"},
		"invoice_no":    map[string]any{"type": "string"},
		"order_no":      map[string]any{"type": "string"},
		"po_no":         map[string]any{"type": "string"},
		"je_number":     map[string]any{"type": "string"},
		"date":          map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
		"currency":      map[string]any{"type": "string", "minLength": 3, "maxLength": 4},
		"subtotal":      decimalProp(),
		"tax":           decimalProp(),
		"total":         decimalProp(),
	}

	lineProps := map[string]any{
		"sku":         map[string]any{"type": "string"},
		"description": map[string]any{"type": "string", "minLength": 1},
		"qty":         decimalProp(),
		"uom":         map[string]any{"type": "string"},
		"unit_price":  decimalProp(),
		"line_total":  decimalProp(),
		"tax_rate":    decimalProp(),
		"category":    map[string]any{"type": "string", "enum": constants.AsStringSlice()},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"header": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties":           headerProps,
				"required":             []string{"currency", "total"},
			},
			"lines": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"properties":           lineProps,
					"required":             []string{"description", "qty", "uom", "unit_price", "line_total"},
				},
			},
		},
		"required": []string{"header", "lines"},
	}
}

func decimalProp() map[string]any {
	return map[string]any{
		"type":    "string",
		"pattern": `^-?\d+(\.\d{1,4})?$`,
	}
}

// ValidateJSONAgainstSchema checks a model completion against the invoice
// output schema before anything downstream trusts its fields.
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	raw, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal invoice schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("invoice.schema.json", bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("register invoice schema: %w", err)
	}
	compiled, err := compiler.Compile("invoice.schema.json")
	if err != nil {
		return fmt.Errorf("compile invoice schema: %w", err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("completion is not valid JSON: %w", err)
	}
	if err := compiled.Validate(doc); err != nil {
		return fmt.Errorf("completion violates invoice schema: %w", err)
	}
	return nil
}
