// Package envelope decodes the fixed response wrapper the backend returns for
// every command: a RAIZ root holding an optional MESSAGES block and, for
// queries, a command-specific payload key.
package envelope

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

const (
	RootKey         = "RAIZ"
	MessagesKey     = "MESSAGES"
	InformationsKey = "INFORMATIONS"
	ErrorsKey       = "ERRORS"
)

type Kind int

const (
	KindMalformed Kind = iota
	KindDeclaredError
	KindDeclaredSuccess
	KindPayload
)

func (k Kind) String() string {
	switch k {
	case KindMalformed:
		return "malformed"
	case KindDeclaredError:
		return "declared-error"
	case KindDeclaredSuccess:
		return "declared-success"
	case KindPayload:
		return "payload"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Response is a decoded response body. A nil Response is valid and malformed.
type Response map[string]any

type Messages struct {
	Informations []string
	Errors       []string
}

func Decode(r io.Reader) (Response, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var body any
	if err := dec.Decode(&body); err != nil {
		return nil, err
	}

	// Anything other than an object is kept as an empty response so that it
	// classifies as malformed instead of failing the call.
	obj, ok := body.(map[string]any)
	if !ok {
		return Response{}, nil
	}
	return Response(obj), nil
}

// MustDecode decodes a literal body and panics on invalid JSON. It exists for
// test fixtures.
func MustDecode(raw string) Response {
	resp, err := Decode(bytes.NewBufferString(raw))
	if err != nil {
		panic(err)
	}
	return resp
}

func (r Response) Root() (map[string]any, bool) {
	if r == nil {
		return nil, false
	}
	return Object(r[RootKey])
}

// Messages reads the MESSAGES block. It reports false when the block is
// absent or does not have the expected shape.
func (r Response) Messages() (Messages, bool) {
	root, ok := r.Root()
	if !ok {
		return Messages{}, false
	}
	raw, present := root[MessagesKey]
	if !present {
		return Messages{}, false
	}
	block, ok := Object(raw)
	if !ok {
		return Messages{}, false
	}

	infos, ok := Strings(block[InformationsKey])
	if !ok {
		return Messages{}, false
	}
	errs, ok := Strings(block[ErrorsKey])
	if !ok {
		return Messages{}, false
	}

	return Messages{Informations: infos, Errors: errs}, true
}

// Classify reports how the pipeline should treat the response. A missing root
// or MESSAGES block is malformed even when a domain key is present.
func (r Response) Classify() Kind {
	root, ok := r.Root()
	if !ok {
		return KindMalformed
	}

	messages, ok := r.Messages()
	if !ok {
		return KindMalformed
	}
	if len(messages.Errors) > 0 {
		return KindDeclaredError
	}
	if hasDomainKey(root) {
		return KindPayload
	}
	return KindDeclaredSuccess
}

// Field returns a value stored directly under the root.
func (r Response) Field(key string) (any, bool) {
	root, ok := r.Root()
	if !ok {
		return nil, false
	}
	value, ok := root[key]
	if !ok || value == nil {
		return nil, false
	}
	return value, true
}

// Records unwraps RAIZ.<collection>.<item>. A single object under item is
// returned as a one-element list.
func (r Response) Records(collection, item string) ([]map[string]any, bool) {
	raw, ok := r.Field(collection)
	if !ok {
		return nil, false
	}
	group, ok := Object(raw)
	if !ok {
		return nil, false
	}
	return ObjectList(group[item])
}

func hasDomainKey(root map[string]any) bool {
	for key, value := range root {
		if key == MessagesKey || value == nil {
			continue
		}
		return true
	}
	return false
}
