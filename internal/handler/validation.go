package handler

import (
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
)

// fieldError 是 422 响应中的一条字段错误。
type fieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// validationDetail 把绑定错误转换为字段级的错误列表。
func validationDetail(err error) []fieldError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make([]fieldError, 0, len(verrs))
		for _, fe := range verrs {
			out = append(out, fieldError{
				Loc:  []string{"body", strings.ToLower(fe.Field())},
				Msg:  "field required",
				Type: "value_error.missing",
			})
		}
		return out
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return []fieldError{{Loc: []string{"body", typeErr.Field}, Msg: "str type expected", Type: "type_error.str"}}
	}
	if errors.Is(err, io.EOF) {
		return []fieldError{{Loc: []string{"body"}, Msg: "field required", Type: "value_error.missing"}}
	}
	return []fieldError{{Loc: []string{"body"}, Msg: err.Error(), Type: "value_error.jsondecode"}}
}
