package cli

import (
	"errors"

	"github.com/rbolet/every-player/internal/model"
	"github.com/rbolet/every-player/internal/seed"
)

// Error codes reported in CLIError.Code.
const (
	CodeValidation  = "E_VALIDATION"
	CodeConflict    = "E_CONFLICT"
	CodeReferential = "E_REFERENTIAL"
	CodeDataset     = "E_DATASET"
	CodeTestFailed  = "E_TEST_FAILED"
	CodeCommand     = "E_COMMAND"
)

// describeError maps err onto a CLI error code, message and details. The
// engine's error taxonomy is checked first so that a wrapped rejection keeps
// its conflict code or missing entity in the details.
func describeError(err error) (code, message string, details any) {
	message = err.Error()

	var ce *model.ConflictError
	if errors.As(err, &ce) {
		d := map[string]any{"code": string(ce.Code)}
		if ce.PeriodID != "" {
			d["periodId"] = ce.PeriodID
		}
		if len(ce.IDs) > 0 {
			d["ids"] = ce.IDs
		}
		return CodeConflict, message, d
	}

	var ve *model.ValidationError
	if errors.As(err, &ve) {
		d := map[string]any{"code": ve.Code}
		if ve.Field != "" {
			d["field"] = ve.Field
		}
		if len(ve.Fields) > 0 {
			d["fields"] = ve.Fields
		}
		return CodeValidation, message, d
	}

	var re *model.ReferentialIntegrityError
	if errors.As(err, &re) {
		d := map[string]any{"entity": re.Entity}
		if re.ID != "" {
			d["id"] = re.ID
		}
		return CodeReferential, message, d
	}

	var le *seed.LoadError
	if errors.As(err, &le) {
		return CodeDataset, message, map[string]any{"code": le.Code}
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Code == ExitFailure {
		return CodeTestFailed, message, nil
	}
	return CodeCommand, message, nil
}
