package tidy

import (
	"strconv"

	"unitd/internal/config"
	"unitd/internal/diag"
	"unitd/internal/source"
)

// Options is the check configuration of one build.
type Options struct {
	// Checks selects checks by glob, e.g. "readability-*,-readability-foo".
	Checks string
	// WarningsAsErrors escalates findings of matching checks to errors.
	WarningsAsErrors string
	// CheckOptions is keyed "check-name.option"; a bare "option" key
	// applies to every check.
	CheckOptions map[string]string
}

// Context is shared by all checks of one build.
type Context struct {
	opts     Options
	lang     config.LangOptions
	enabled  GlobList
	asErrors GlobList
	reporter diag.Reporter
}

func NewContext(opts Options, lang config.LangOptions) *Context {
	return &Context{
		opts:     opts,
		lang:     lang,
		enabled:  ParseGlobList(opts.Checks),
		asErrors: ParseGlobList(opts.WarningsAsErrors),
	}
}

// SetDiagnosticsEngine routes findings into the compiler's diagnostics.
func (c *Context) SetDiagnosticsEngine(r diag.Reporter) { c.reporter = r }

func (c *Context) Lang() config.LangOptions { return c.lang }

func (c *Context) Options() Options { return c.opts }

func (c *Context) IsCheckEnabled(name string) bool { return c.enabled.Contains(name) }

// TreatAsError reports whether findings of check escalate to errors.
func (c *Context) TreatAsError(check string) bool { return c.asErrors.Contains(check) }

// GetOption looks up "check.key", then "key".
func (c *Context) GetOption(check, key, def string) string {
	if v, ok := c.opts.CheckOptions[check+"."+key]; ok {
		return v
	}
	if v, ok := c.opts.CheckOptions[key]; ok {
		return v
	}
	return def
}

// GetIntOption is GetOption for integers; malformed values yield def.
func (c *Context) GetIntOption(check, key string, def int) int {
	v := c.GetOption(check, key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Diag starts a warning owned by check.
func (c *Context) Diag(check string, sp source.Span, msg string) *diag.ReportBuilder {
	return diag.NewReportBuilder(c.reporter, diag.SevWarning, diag.TidyFinding, sp, msg).WithCheck(check)
}
