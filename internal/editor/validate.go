package editor

import (
	"github.com/go-playground/validator/v10"

	"github.com/billfold/billfold/internal/invoice"
)

// saveCheck is the precondition for persisting a draft: both party names and
// at least one line item.
type saveCheck struct {
	BusinessName string             `validate:"required"`
	ClientName   string             `validate:"required"`
	Items        []invoice.LineItem `validate:"min=1"`
}

// ValidationErrors maps field names to user-facing messages.
type ValidationErrors map[string]string

// Error implements error.
func (v ValidationErrors) Error() string {
	for field, msg := range v {
		return field + ": " + msg
	}
	return "invalid invoice"
}

var validate = validator.New()

var saveMessages = map[string]string{
	"BusinessName": "business name is required",
	"ClientName":   "client name is required",
	"Items":        "at least one line item is required",
}

// ValidateForSave checks the draft against the save preconditions. A failure
// blocks the save entirely; no partial invoice is ever persisted.
func (e *Editor) ValidateForSave() error {
	check := saveCheck{
		BusinessName: e.inv.Business.Name,
		ClientName:   e.inv.Client.Name,
		Items:        e.inv.Items,
	}
	err := validate.Struct(check)
	if err == nil {
		return nil
	}
	fields := ValidationErrors{}
	for _, fieldErr := range err.(validator.ValidationErrors) {
		msg, ok := saveMessages[fieldErr.Field()]
		if !ok {
			msg = fieldErr.Error()
		}
		fields[fieldErr.Field()] = msg
	}
	return fields
}
