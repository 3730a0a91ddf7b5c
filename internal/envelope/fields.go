package envelope

import (
	"fmt"
	"net/url"
)

const (
	CommandKey  = "CMD_COMMAND"
	ParserKey   = "parser"
	ParserValue = "json"
)

// Fields is the flat parameter set of one command. Nil values are omitted
// from the encoded request.
type Fields map[string]any

// Form merges the fields into the standard request shape.
func (f Fields) Form(command string) url.Values {
	values := url.Values{}
	for key, value := range f {
		if value == nil {
			continue
		}
		values.Set(key, formValue(value))
	}
	values.Set(CommandKey, command)
	values.Set(ParserKey, ParserValue)
	return values
}

func formValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
