package http

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const schemaLogin = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["username", "password"],
  "properties": {
    "username": { "type": "string" },
    "password": { "type": "string" }
  }
}`

const schemaPlaceOrder = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "customerName": { "type": "string" },
    "phone": { "type": "string" },
    "address": { "type": "string" },
    "totalAmount": { "type": ["number", "string"] },
    "products": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["productId", "quantity"],
        "properties": {
          "productId": { "type": "string" },
          "quantity": { "type": "integer", "maximum": 10000 }
        }
      }
    }
  }
}`

const schemaUpdateOrder = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "customerName": { "type": "string" },
    "phone": { "type": "string" },
    "address": { "type": "string" },
    "status": { "type": "string" }
  },
  "additionalProperties": false
}`

var (
	loginSchema       = mustSchema(schemaLogin)
	placeOrderSchema  = mustSchema(schemaPlaceOrder)
	updateOrderSchema = mustSchema(schemaUpdateOrder)
)

func mustSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("invalid JSON schema: %v", err))
	}
	return schema
}

// validateJSONSchema checks body against schema and reports every violation
// in one error.
func validateJSONSchema(schema *gojsonschema.Schema, body []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("request does not match schema: %s", strings.Join(msgs, "; "))
	}
	return nil
}
