package validate

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/baharkarakas/insider-transfers/internal/models"
)

type ErrField struct {
	Field string `json:"field"`
	Msg   string `json:"msg"`
}

type Errs []ErrField

func (e Errs) Error() string {
	var b strings.Builder
	for i, ef := range e {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(ef.Field + ": " + ef.Msg)
	}
	return b.String()
}

// Collect drops nil checks and returns nil when every check passed.
func Collect(checks ...*ErrField) Errs {
	var out Errs
	for _, c := range checks {
		if c != nil {
			out = append(out, *c)
		}
	}
	return out
}

func Required(field, value string) *ErrField {
	if strings.TrimSpace(value) == "" {
		return &ErrField{Field: field, Msg: "required"}
	}
	return nil
}

func MinInt(field string, v, min int64) *ErrField {
	if v < min {
		return &ErrField{Field: field, Msg: "must be >= " + strconv.FormatInt(min, 10)}
	}
	return nil
}

func Email(field, value string) *ErrField {
	if e := Required(field, value); e != nil {
		return e
	}
	at := strings.Index(value, "@")
	if at <= 0 || at == len(value)-1 {
		return &ErrField{Field: field, Msg: "must be a valid email"}
	}
	return nil
}

// Amount checks a transfer amount: present, positive, at most two decimals.
func Amount(field string, v *decimal.Decimal) *ErrField {
	if v == nil {
		return &ErrField{Field: field, Msg: "required"}
	}
	if err := models.ValidateAmount(*v); err != nil {
		return &ErrField{Field: field, Msg: err.Error()}
	}
	return nil
}
