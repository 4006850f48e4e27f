package pipeline

import (
	"regexp"
	"strings"
)

// varPattern matches {varName} placeholders in prompt templates.
var varPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Context is the mutable variable map of one pipeline execution, seeded
// with {input} and grown as each step records its output. Lifetime is one
// Execute call.
type Context struct {
	Variables map[string]string
}

// NewContext seeds a context with the pipeline input.
func NewContext(input string) *Context {
	return &Context{Variables: map[string]string{"input": input}}
}

// Set records a variable value.
func (c *Context) Set(name, value string) {
	c.Variables[name] = value
}

// Get returns a variable value; missing variables behave as empty.
func (c *Context) Get(name string) string {
	return c.Variables[name]
}

// Substitute replaces {var} placeholders with bound context values.
// Unmatched placeholders are left verbatim; a validation pass elsewhere
// is expected to catch those.
func (c *Context) Substitute(template string) string {
	return varPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := match[1 : len(match)-1]
		if value, ok := c.Variables[name]; ok {
			return value
		}
		return match
	})
}

// EvaluateCondition evaluates a step condition against the context.
// "varName" is true when the variable is non-empty after trimming;
// "!varName" negates. An empty condition is always true.
func (c *Context) EvaluateCondition(condition string) bool {
	condition = strings.TrimSpace(condition)
	if condition == "" {
		return true
	}
	negated := strings.HasPrefix(condition, "!")
	name := strings.TrimPrefix(condition, "!")
	set := strings.TrimSpace(c.Variables[name]) != ""
	if negated {
		return !set
	}
	return set
}
