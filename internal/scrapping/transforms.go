package scrapping

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnmappedValue signals a lookup-table miss; callers log a warning and keep
// the rule default instead of failing the conversion.
var ErrUnmappedValue = errors.New("unmapped value")

// ApplyRule evaluates one transform rule against a raw numeric value.
func ApplyRule(rule TransformRule, value float64) (int, error) {
	switch rule.Kind {
	case TransformPassThrough:
		return int(value), nil
	case TransformFormula:
		out, err := EvalFormula(rule.Expr, value)
		if err != nil {
			return rule.Default, err
		}
		return int(out), nil
	case TransformLookupTable:
		key := strconv.FormatFloat(value, 'f', -1, 64)
		if mapped, ok := rule.Table[key]; ok {
			return mapped, nil
		}
		return rule.Default, fmt.Errorf("%w: %s", ErrUnmappedValue, key)
	}
	return rule.Default, fmt.Errorf("unknown transform kind %q", rule.Kind)
}

// EvalFormula evaluates a small arithmetic expression over the single variable
// `value`: numbers, value, + - * /, parentheses. Kept deliberately closed, no
// general expression engine.
func EvalFormula(expr string, value float64) (float64, error) {
	p := &formulaParser{input: expr, value: value}
	out, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	p.skipSpaces()
	if p.pos != len(p.input) {
		return 0, fmt.Errorf("formula: unexpected %q at offset %d", p.input[p.pos:], p.pos)
	}
	return out, nil
}

type formulaParser struct {
	input string
	pos   int
	value float64
}

func (p *formulaParser) skipSpaces() {
	for p.pos < len(p.input) && p.input[p.pos] == ' ' {
		p.pos++
	}
}

func (p *formulaParser) peek() byte {
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *formulaParser) parseExpr() (float64, error) {
	left, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpaces()
		op := p.peek()
		if op != '+' && op != '-' {
			return left, nil
		}
		p.pos++
		right, err := p.parseTerm()
		if err != nil {
			return 0, err
		}
		if op == '+' {
			left += right
		} else {
			left -= right
		}
	}
}

func (p *formulaParser) parseTerm() (float64, error) {
	left, err := p.parseFactor()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpaces()
		op := p.peek()
		if op != '*' && op != '/' {
			return left, nil
		}
		p.pos++
		right, err := p.parseFactor()
		if err != nil {
			return 0, err
		}
		if op == '*' {
			left *= right
		} else {
			if right == 0 {
				return 0, errors.New("formula: division by zero")
			}
			left /= right
		}
	}
}

func (p *formulaParser) parseFactor() (float64, error) {
	p.skipSpaces()
	switch {
	case p.peek() == '(':
		p.pos++
		inner, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		p.skipSpaces()
		if p.peek() != ')' {
			return 0, errors.New("formula: missing closing parenthesis")
		}
		p.pos++
		return inner, nil
	case p.peek() == '-':
		p.pos++
		inner, err := p.parseFactor()
		if err != nil {
			return 0, err
		}
		return -inner, nil
	case strings.HasPrefix(p.input[p.pos:], "value"):
		p.pos += len("value")
		return p.value, nil
	default:
		start := p.pos
		for p.pos < len(p.input) {
			c := p.input[p.pos]
			if (c >= '0' && c <= '9') || c == '.' {
				p.pos++
				continue
			}
			break
		}
		if start == p.pos {
			return 0, fmt.Errorf("formula: unexpected character at offset %d", p.pos)
		}
		n, err := strconv.ParseFloat(p.input[start:p.pos], 64)
		if err != nil {
			return 0, fmt.Errorf("formula: bad number %q", p.input[start:p.pos])
		}
		return n, nil
	}
}
