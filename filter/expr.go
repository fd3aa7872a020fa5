package filter

import (
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/veldhuizen/magister-cli/magister"
)

// exprFilter implements CompiledFilter using the expr language
type exprFilter struct {
	expression string
	program    *vm.Program
}

// ExprCompilerOption configures an expr compiler
type ExprCompilerOption func(*exprCompiler)

// WithCache enables filter caching with the specified size
func WithCache(size int) ExprCompilerOption {
	return func(c *exprCompiler) {
		if size > 0 {
			c.cache = newLRUCache(size)
		}
	}
}

// NewExprCompiler creates a new expr-based filter compiler
func NewExprCompiler(opts ...ExprCompilerOption) CachingCompiler {
	c := &exprCompiler{
		helperFuncs: helperFunctions(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// exprCompiler implements Compiler for expr-based filters
type exprCompiler struct {
	helperFuncs map[string]any
	cache       *lruCache
}

// Compile compiles an expression into an executable filter
func (c *exprCompiler) Compile(expression string) (CompiledFilter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "empty expression",
		}
	}

	if c.cache != nil {
		if cached, ok := c.cache.Get(expression); ok {
			return cached.(CompiledFilter), nil
		}
	}

	program, err := expr.Compile(expression,
		expr.Env(c.helperFuncs),
		expr.AllowUndefinedVariables(), // Allow appointment properties
		expr.AsBool(),                  // Ensure boolean result
	)
	if err != nil {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "failed to compile expression",
			Err:        err,
		}
	}

	f := &exprFilter{
		expression: expression,
		program:    program,
	}

	if c.cache != nil {
		c.cache.Put(expression, f)
	}

	return f, nil
}

// Clear removes all cached filters
func (c *exprCompiler) Clear() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

// Size returns the number of cached filters
func (c *exprCompiler) Size() int {
	if c.cache != nil {
		return c.cache.Size()
	}
	return 0
}

// Evaluate evaluates the filter against an appointment
func (f *exprFilter) Evaluate(appointment magister.Appointment) bool {
	env := runtimeEnvironment(appointment)

	result, err := expr.Run(f.program, env)
	if err != nil {
		// Appointments that cause evaluation errors are skipped.
		return false
	}

	// Result is guaranteed to be bool due to AsBool() during compilation
	return result.(bool)
}

// Expression returns the original expression
func (f *exprFilter) Expression() string {
	return f.expression
}

// helperFunctions creates the static helper functions used during compilation
func helperFunctions() map[string]any {
	env := make(map[string]any, 16)

	// Date helpers
	env["daysSince"] = func(t time.Time) int {
		return int(time.Since(t).Hours() / 24)
	}
	env["daysAgo"] = func(days int) time.Time {
		return time.Now().AddDate(0, 0, -days)
	}
	env["daysFromNow"] = func(days int) time.Time {
		return time.Now().AddDate(0, 0, days)
	}
	env["parseDate"] = func(dateStr string) time.Time {
		t, _ := time.Parse("2006-01-02", dateStr)
		return t
	}

	// String helpers
	env["contains"] = func(str, substr string) bool {
		return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
	}
	env["startsWith"] = func(str, prefix string) bool {
		return strings.HasPrefix(strings.ToLower(str), strings.ToLower(prefix))
	}
	env["endsWith"] = func(str, suffix string) bool {
		return strings.HasSuffix(strings.ToLower(str), strings.ToLower(suffix))
	}

	return env
}

// runtimeEnvironment builds the evaluation environment for an appointment
func runtimeEnvironment(appointment magister.Appointment) map[string]any {
	env := helperFunctions()

	env["Description"] = appointment.Description
	env["Location"] = appointment.Location
	env["Content"] = appointment.Content
	env["Start"] = appointment.Start
	env["End"] = appointment.End
	env["FullDay"] = appointment.FullDay
	env["Status"] = appointment.Status
	env["Type"] = appointment.Type
	env["Subjects"] = appointment.Subjects
	env["HasAbsence"] = appointment.Absence != nil

	var teachers []string
	for _, teacher := range appointment.Teachers {
		teachers = append(teachers, teacher.FullName)
	}
	env["Teachers"] = teachers

	env["hasSubject"] = func(name string) bool {
		for _, subject := range appointment.Subjects {
			if strings.EqualFold(subject, name) {
				return true
			}
		}
		return false
	}
	env["hasTeacher"] = func(name string) bool {
		for _, teacher := range appointment.Teachers {
			if strings.EqualFold(teacher.FullName, name) || strings.EqualFold(teacher.Code, name) {
				return true
			}
		}
		return false
	}

	return env
}
