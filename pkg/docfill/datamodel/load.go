package datamodel

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// Format names a serialization of a data model.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCBOR Format = "cbor"
)

// FormatFromPath guesses the format from a file extension. JSON is the
// default.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".cbor":
		return FormatCBOR
	default:
		return FormatJSON
	}
}

// Decode reads a model in the given format.
func Decode(r io.Reader, format Format) (*Node, error) {
	switch format {
	case FormatYAML:
		return DecodeYAML(r)
	case FormatCBOR:
		return DecodeCBOR(r)
	case FormatJSON, "":
		return DecodeJSON(r)
	default:
		return nil, fmt.Errorf("unknown model format %q", format)
	}
}

// LoadFile reads a model file, choosing the decoder by extension.
func LoadFile(path string) (*Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model: %w", err)
	}
	defer f.Close()

	n, err := Decode(f, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to decode model %s: %w", path, err)
	}
	return n, nil
}

// DecodeJSON reads JSON keeping object key order. Whole numbers become
// int64 leaves, other numbers float64.
func DecodeJSON(r io.Reader) (*Node, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	n, err := decodeJSONValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after top-level value")
	}
	return n, nil
}

func decodeJSONValue(dec *json.Decoder) (*Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			m := NewMap()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key is %T, not a string", keyTok)
				}
				val, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				m.Set(key, val)
			}
			_, err := dec.Token()
			return m, err
		case '[':
			l := NewList()
			for dec.More() {
				val, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				l.Append(val)
			}
			_, err := dec.Token()
			return l, err
		}
		return nil, fmt.Errorf("unexpected delimiter %v", t)
	case json.Number:
		return numberLeaf(t), nil
	default:
		return NewLeaf(t), nil
	}
}

func numberLeaf(n json.Number) *Node {
	if i, err := n.Int64(); err == nil {
		return NewLeaf(i)
	}
	f, _ := n.Float64()
	return NewLeaf(f)
}

// DecodeYAML reads a YAML document keeping mapping order.
func DecodeYAML(r io.Reader) (*Node, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return NewMap(), nil
		}
		return nil, err
	}
	return fromYAML(&doc)
}

func fromYAML(y *yaml.Node) (*Node, error) {
	switch y.Kind {
	case yaml.DocumentNode:
		if len(y.Content) == 0 {
			return NewMap(), nil
		}
		return fromYAML(y.Content[0])
	case yaml.AliasNode:
		return fromYAML(y.Alias)
	case yaml.MappingNode:
		m := NewMap()
		for i := 0; i+1 < len(y.Content); i += 2 {
			val, err := fromYAML(y.Content[i+1])
			if err != nil {
				return nil, err
			}
			m.Set(y.Content[i].Value, val)
		}
		return m, nil
	case yaml.SequenceNode:
		l := NewList()
		for _, c := range y.Content {
			val, err := fromYAML(c)
			if err != nil {
				return nil, err
			}
			l.Append(val)
		}
		return l, nil
	default:
		var v any
		if err := y.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", y.Line, err)
		}
		return NewLeaf(v), nil
	}
}

// DecodeCBOR reads a CBOR encoded model. CBOR maps have no defined order,
// so keys are sorted.
func DecodeCBOR(r io.Reader) (*Node, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var v any
	if err := cbor.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return FromValue(v), nil
}

// EncodeCBOR writes n with the canonical CBOR encoding, so equal models
// always produce identical bytes.
func EncodeCBOR(n *Node) ([]byte, error) {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("failed to create CBOR encoder: %w", err)
	}
	return em.Marshal(n.ToValue())
}

// EncodeJSON writes n as JSON. Map keys come out sorted.
func EncodeJSON(n *Node) ([]byte, error) {
	return json.Marshal(n.ToValue())
}

// ValidateSchema checks n against a JSON Schema (draft 2020-12).
func ValidateSchema(schema []byte, n *Node) error {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	const url = "schema://model.json"
	if err := compiler.AddResource(url, bytes.NewReader(schema)); err != nil {
		return fmt.Errorf("failed to load schema: %w", err)
	}
	compiled, err := compiler.Compile(url)
	if err != nil {
		return fmt.Errorf("failed to compile schema: %w", err)
	}

	data, err := EncodeJSON(n)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return err
	}
	return compiled.Validate(doc)
}
