// internal/api/schema.go
package api

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	apperrors "ticket-autopilot/internal/common/errors"
)

const ticketSchema = `{
	"type": "object",
	"properties": {
		"ticket_id": {"type": "string"},
		"user_email": {"type": "string", "format": "email", "minLength": 3},
		"subject": {"type": "string", "minLength": 1},
		"message": {"type": "string", "minLength": 1}
	},
	"required": ["user_email", "subject", "message"],
	"additionalProperties": false
}`

var ticketSchemaLoader = gojsonschema.NewStringLoader(ticketSchema)

// validateTicketPayload checks a raw request body against the ticket schema
// before it is unmarshaled.
func validateTicketPayload(body []byte) error {
	result, err := gojsonschema.Validate(ticketSchemaLoader, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return apperrors.NewValidationFailedError(err.Error())
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		problems = append(problems, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
	}
	return apperrors.NewValidationFailedError(strings.Join(problems, "; "))
}
