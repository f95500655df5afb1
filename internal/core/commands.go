package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Inventory mutations arrive through chat as structured commands instead of
// free-form requests scraped for keywords. A command is a verb followed by
// key=value fields; anything that starts with a verb but does not match the
// grammar is rejected with the reason, never guessed at.
type CommandVerb string

const (
	CmdAdd    CommandVerb = "add"
	CmdRemove CommandVerb = "remove"
	CmdSet    CommandVerb = "set"
)

// CommandGrammar is shown to the user whenever a command fails to parse.
const CommandGrammar = `add|remove|set name=<product> [qty=<number>] [price=<amount>] [category=<text>] [desc=<text>] (quote values containing spaces, e.g. name="Blue Pen")`

// InventoryCommand is one parsed mutation. Optional fields are pointers so
// "set" can tell an omitted field from an explicit zero.
type InventoryCommand struct {
	Verb     CommandVerb
	Name     string
	Qty      *int
	Price    *float64
	Category *string
	Desc     *string
}

// IsCommand reports whether the input's first word is a mutation verb. Only
// such inputs go through ParseCommand; everything else is an informational
// question for the model.
func IsCommand(input string) bool {
	fields := strings.Fields(strings.ToLower(input))
	if len(fields) == 0 {
		return false
	}
	switch CommandVerb(fields[0]) {
	case CmdAdd, CmdRemove, CmdSet:
		return true
	}
	return false
}

// ParseCommand parses `verb key=value ...` into an InventoryCommand. The
// name field is required; set additionally requires at least one field to
// change. Failures return a *CommandParseError carrying the reason.
func ParseCommand(input string) (*InventoryCommand, error) {
	tokens, err := splitCommandTokens(input)
	if err != nil {
		return nil, &CommandParseError{Input: input, Reason: err.Error()}
	}
	if len(tokens) == 0 {
		return nil, &CommandParseError{Input: input, Reason: "empty command"}
	}

	verb := CommandVerb(strings.ToLower(tokens[0]))
	switch verb {
	case CmdAdd, CmdRemove, CmdSet:
	default:
		return nil, &CommandParseError{Input: input, Reason: fmt.Sprintf("unknown verb %q", tokens[0])}
	}

	cmd := &InventoryCommand{Verb: verb}
	seen := map[string]bool{}

	for _, token := range tokens[1:] {
		key, value, found := strings.Cut(token, "=")
		if !found {
			return nil, &CommandParseError{Input: input, Reason: fmt.Sprintf("expected key=value, got %q", token)}
		}
		key = strings.ToLower(key)
		if seen[key] {
			return nil, &CommandParseError{Input: input, Reason: fmt.Sprintf("duplicate field %q", key)}
		}
		seen[key] = true

		switch key {
		case "name":
			if strings.TrimSpace(value) == "" {
				return nil, &CommandParseError{Input: input, Reason: "name must not be empty"}
			}
			cmd.Name = strings.TrimSpace(value)
		case "qty":
			qty, err := strconv.Atoi(value)
			if err != nil || qty < 0 {
				return nil, &CommandParseError{Input: input, Reason: fmt.Sprintf("qty must be a non-negative whole number, got %q", value)}
			}
			cmd.Qty = &qty
		case "price":
			price, err := strconv.ParseFloat(value, 64)
			if err != nil || price < 0 {
				return nil, &CommandParseError{Input: input, Reason: fmt.Sprintf("price must be a non-negative number, got %q", value)}
			}
			cmd.Price = &price
		case "category":
			category := value
			cmd.Category = &category
		case "desc":
			desc := value
			cmd.Desc = &desc
		default:
			return nil, &CommandParseError{Input: input, Reason: fmt.Sprintf("unknown field %q", key)}
		}
	}

	if cmd.Name == "" {
		return nil, &CommandParseError{Input: input, Reason: "name is required"}
	}
	if verb == CmdSet && cmd.Qty == nil && cmd.Price == nil && cmd.Category == nil && cmd.Desc == nil {
		return nil, &CommandParseError{Input: input, Reason: "set requires at least one field to change"}
	}

	return cmd, nil
}

// splitCommandTokens splits on whitespace while keeping double-quoted runs
// together. Quotes are stripped; an unterminated quote is an error.
func splitCommandTokens(input string) ([]string, error) {
	var tokens []string
	var current strings.Builder
	inQuotes := false
	hasContent := false

	for _, r := range input {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			hasContent = true
		case !inQuotes && (r == ' ' || r == '\t' || r == '\n' || r == '\r'):
			if hasContent {
				tokens = append(tokens, current.String())
				current.Reset()
				hasContent = false
			}
		default:
			current.WriteRune(r)
			hasContent = true
		}
	}
	if inQuotes {
		return nil, fmt.Errorf("unterminated quote")
	}
	if hasContent {
		tokens = append(tokens, current.String())
	}
	return tokens, nil
}
