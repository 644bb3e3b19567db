package worker

// A Script describes one unit of work to run: inline source text and/or a
// file name, plus an optional identifier used in diagnostics.
//
// Scripts are immutable, created during resolution and read once during
// startup. At least one of script text and file name is always non-empty,
// the resolver returns no Script at all rather than an empty one.
type Script struct {
	id       string
	script   string
	fileName string
}

// ScriptFor returns a Script holding inline source text only.
func ScriptFor(id, script string) Script {
	return Script{id: id, script: script}
}

// ScriptForFile returns a Script referencing a file or resource path only.
func ScriptForFile(id, fileName string) Script {
	return Script{id: id, fileName: fileName}
}

// ScriptForBoth returns a Script holding source text read from fileName.
func ScriptForBoth(id, script, fileName string) Script {
	return Script{id: id, script: script, fileName: fileName}
}

// ID returns the worker identifier this script was resolved for, may be
// empty when the script came from the shared inline/path configuration.
func (s Script) ID() string { return s.id }

// Source returns the inline script text, empty for file-only scripts.
func (s Script) Source() string { return s.script }

// FileName returns the script's file or resource path, if any.
func (s Script) FileName() string { return s.fileName }

// String is used in log lines, it prefers the identifier.
func (s Script) String() string {
	if s.id != "" {
		return s.id
	}
	if s.fileName != "" {
		return s.fileName
	}
	return "<inline script>"
}
