package filter

import (
	"encoding/json"
	"fmt"
	"strings"

	"sumulas-rag/types"
)

// ValueType stored representation of an attribute
type ValueType string

const (
	TypeString  ValueType = "string"
	TypeInteger ValueType = "integer"
)

var (
	equalityOps = []Comparator{OpEq, OpNe}
	orderingOps = []Comparator{OpEq, OpNe, OpLt, OpLte, OpGt, OpGte}
)

// Attribute a filterable metadata field
type Attribute struct {
	Name        string
	Description string
	Type        ValueType
	Operators   []Comparator
	// Normalize canonicalises string values before they reach the index. Optional.
	Normalize func(string) string
}

// Allows reports whether op may be applied to the attribute.
func (a Attribute) Allows(op Comparator) bool {
	for _, o := range a.Operators {
		if o == op {
			return true
		}
	}
	return false
}

// Schema the closed set of attributes an inferred filter may reference.
// Built once at process start and never mutated.
type Schema struct {
	content string
	year    string
	attrs   []Attribute
	byName  map[string]int
}

// NewSchema validates and indexes attrs. yearAttr names the integer attribute
// that temporal phrasing ("antes de 2010") is mapped onto; it may be empty.
func NewSchema(content string, yearAttr string, attrs ...Attribute) (*Schema, error) {
	s := &Schema{
		content: strings.TrimSpace(content),
		year:    yearAttr,
		attrs:   make([]Attribute, 0, len(attrs)),
		byName:  make(map[string]int, len(attrs)),
	}
	for _, a := range attrs {
		if a.Name == "" {
			return nil, fmt.Errorf("attribute without name")
		}
		if _, dup := s.byName[a.Name]; dup {
			return nil, fmt.Errorf("duplicate attribute %q", a.Name)
		}
		if a.Type != TypeString && a.Type != TypeInteger {
			return nil, fmt.Errorf("attribute %q: unsupported type %q", a.Name, a.Type)
		}
		if len(a.Operators) == 0 {
			return nil, fmt.Errorf("attribute %q: no operators", a.Name)
		}
		s.byName[a.Name] = len(s.attrs)
		s.attrs = append(s.attrs, a)
	}
	if yearAttr != "" {
		a, ok := s.Lookup(yearAttr)
		if !ok || a.Type != TypeInteger {
			return nil, fmt.Errorf("year attribute %q must be a declared integer attribute", yearAttr)
		}
	}
	return s, nil
}

// Lookup returns the attribute named name.
func (s *Schema) Lookup(name string) (Attribute, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Attribute{}, false
	}
	return s.attrs[i], true
}

// Attributes returns the declared attributes in declaration order.
func (s *Schema) Attributes() []Attribute {
	out := make([]Attribute, len(s.attrs))
	copy(out, s.attrs)
	return out
}

// YearAttribute designated integer year attribute, "" when none.
func (s *Schema) YearAttribute() string { return s.year }

// ContentDescription describes what the indexed documents contain.
func (s *Schema) ContentDescription() string { return s.content }

type attributeDoc struct {
	Name        string       `json:"name"`
	Type        ValueType    `json:"type"`
	Operators   []Comparator `json:"operators"`
	Description string       `json:"description"`
}

// Describe renders the attributes as a JSON list for the self-query prompt.
func (s *Schema) Describe() string {
	docs := make([]attributeDoc, 0, len(s.attrs))
	for _, a := range s.attrs {
		docs = append(docs, attributeDoc{Name: a.Name, Type: a.Type, Operators: a.Operators, Description: a.Description})
	}
	b, _ := json.MarshalIndent(docs, "", "  ")
	return string(b)
}

// SumulaSchema súmula 元数据过滤字段
func SumulaSchema() *Schema {
	s, err := NewSchema(
		`Coleção de trechos (chunks) de súmulas do Tribunal de Contas de Minas Gerais, cada um com metadados
como número (summary_number), status (status), data textual (status_date, formato 'DD/MM/AA'),
ano (status_year), nome do arquivo (source_name) e tipo de trecho (chunk_type).`,
		types.FieldStatusYear,
		Attribute{
			Name: types.FieldSummaryNumber,
			Description: "Número da súmula (ex.: '70'). Texto simples, sem prefixo. " +
				"Sempre filtre pelo número da súmula quando o usuário citar o número.",
			Type:      TypeString,
			Operators: equalityOps,
			Normalize: trimSummaryNumber,
		},
		Attribute{
			Name:        types.FieldStatus,
			Description: "Status atual da súmula (ex.: 'VIGENTE', 'REVOGADA', 'ALTERADA').",
			Type:        TypeString,
			Operators:   equalityOps,
			Normalize:   strings.ToUpper,
		},
		Attribute{
			Name:        types.FieldStatusDate,
			Description: "Data textual no formato 'DD/MM/AA' (string). Ex.: '07/04/14'. Apenas igualdade.",
			Type:        TypeString,
			Operators:   equalityOps,
		},
		Attribute{
			Name: types.FieldStatusYear,
			Description: "Ano do status no formato AAAA (integer). Ex.: 2014. Aceita eq, ne, lt, lte, gt, gte. " +
				"'antes de AAAA' => lt AAAA; 'depois de AAAA' => gt AAAA.",
			Type:      TypeInteger,
			Operators: orderingOps,
		},
		Attribute{
			Name:        types.FieldSourceName,
			Description: "Nome do arquivo PDF de origem (ex.: 'Sumula_70.pdf').",
			Type:        TypeString,
			Operators:   equalityOps,
		},
		Attribute{
			Name:        types.FieldChunkType,
			Description: "Tipo do trecho: 'principal_content', 'normative_references' ou 'precedents'.",
			Type:        TypeString,
			Operators:   equalityOps,
			Normalize:   strings.ToLower,
		},
		Attribute{
			Name:        types.FieldChunkIndex,
			Description: "Índice do trecho no documento.",
			Type:        TypeInteger,
			Operators:   orderingOps,
		},
	)
	if err != nil {
		panic(err)
	}
	return s
}

// "Súmula 070" -> "70"; values without trailing digits are kept as is
func trimSummaryNumber(v string) string {
	v = strings.TrimSpace(v)
	start := len(v)
	for start > 0 && v[start-1] >= '0' && v[start-1] <= '9' {
		start--
	}
	if start == len(v) {
		return v
	}
	digits := strings.TrimLeft(v[start:], "0")
	if digits == "" {
		return "0"
	}
	return digits
}
