package plugin

import (
	"context"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"

	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/chaterr"
)

// calcCharset admits digits, the four operators, parentheses, dots and space.
var calcCharset = regexp.MustCompile(`^[0-9+\-*/().\s]+$`)

// numberLiteral finds the numeric literals of a validated expression.
var numberLiteral = regexp.MustCompile(`[0-9]*\.?[0-9]+\.?`)

const calcPrefix = "Unable to calculate. "

// Calculator evaluates arithmetic with expr after a character-set check.
type Calculator struct {
	info
}

func NewCalculator() *Calculator {
	return &Calculator{info: newInfo(NameCalc, "Calculate mathematical expressions", NameCalc)}
}

func (c *Calculator) Execute(_ context.Context, args string) (Result, error) {
	expression := strings.TrimSpace(args)
	if !calcCharset.MatchString(expression) {
		return nil, chaterr.Validation(calcPrefix + "Invalid expression. Only numbers and basic operators (+, -, *, /, parentheses) are allowed.")
	}

	value, err := Evaluate(expression)
	if err != nil {
		return nil, err
	}

	return CalculatorResult{Expression: expression, Result: value}, nil
}

// Evaluate runs an already validated expression in float64 arithmetic and
// requires a finite number.
func Evaluate(expression string) (float64, error) {
	program, err := expr.Compile(floatLiterals(expression))
	if err != nil {
		return 0, chaterr.WrapExecution(calcPrefix+firstLine(err.Error()), err)
	}

	out, err := expr.Run(program, nil)
	if err != nil {
		return 0, chaterr.WrapExecution(calcPrefix+firstLine(err.Error()), err)
	}

	var value float64
	switch v := out.(type) {
	case int:
		value = float64(v)
	case int64:
		value = float64(v)
	case float64:
		value = v
	default:
		return 0, chaterr.Execution(calcPrefix + "The expression did not evaluate to a valid number.")
	}
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return 0, chaterr.Execution(calcPrefix + "The expression did not evaluate to a valid number.")
	}

	return value, nil
}

// floatLiterals rewrites integer literals as floats so expr never evaluates
// in int and wraps around.
func floatLiterals(expression string) string {
	return numberLiteral.ReplaceAllStringFunc(expression, func(literal string) string {
		if strings.HasPrefix(literal, ".") {
			literal = "0" + literal
		}
		switch {
		case strings.HasSuffix(literal, "."):
			return literal + "0"
		case strings.Contains(literal, "."):
			return literal
		default:
			return literal + ".0"
		}
	})
}

func (c *Calculator) Render(result Result) Card {
	data, ok := result.(CalculatorResult)
	if !ok {
		return Card{}
	}

	return Card{
		Title: "Calculator",
		Rows: []Row{
			{Label: "Expression", Value: data.Expression},
			{Label: "Result", Value: FormatNumber(data.Result)},
		},
	}
}

// FormatNumber prints integers without a fractional part.
func FormatNumber(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func firstLine(text string) string {
	line, _, _ := strings.Cut(text, "\n")
	return strings.TrimSpace(line)
}
