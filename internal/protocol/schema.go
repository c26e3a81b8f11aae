package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Transaction batches arrive from clients and are schema-checked before any
// code looks inside them. The schema rejects the shapes the validator should
// never have to reason about: missing ids, non-integer multipliers, unknown
// trade types.
const submitSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["type", "actor_id", "trader_id", "transactions"],
  "properties": {
    "type": {"const": "submit_transactions"},
    "actor_id": {"type": "string", "minLength": 1},
    "trader_id": {"type": "string", "minLength": 1},
    "transactions": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["id", "type", "product_id", "multiplier", "price", "trader_id"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "type": {"enum": ["buy", "sell"]},
          "product_id": {"type": "string", "minLength": 1},
          "multiplier": {"type": "integer", "minimum": 1},
          "price": {"type": "integer", "minimum": 0},
          "trader_id": {"type": "string", "minLength": 1},
          "item_ref": {"type": "string"},
          "preset": {
            "type": "object",
            "required": ["id", "product", "attachments"],
            "properties": {
              "id": {"type": "string", "minLength": 1},
              "product": {"type": "string", "minLength": 1},
              "attachments": {"type": "array", "items": {"type": "string", "minLength": 1}}
            }
          }
        }
      }
    }
  }
}`

var submitSchema = jsonschema.MustCompileString("submit_transactions.schema.json", submitSchemaJSON)

// ParseSubmit validates a raw submit_transactions message against the schema
// and decodes it. Unknown fields are rejected by the strict decoder.
func ParseSubmit(raw []byte) (*TransactionRequest, error) {
	var loose any
	if err := json.Unmarshal(raw, &loose); err != nil {
		return nil, fmt.Errorf("malformed message: %w", err)
	}
	if err := submitSchema.Validate(loose); err != nil {
		return nil, fmt.Errorf("invalid submit message: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var req TransactionRequest
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("invalid submit message: %w", err)
	}
	return &req, nil
}
