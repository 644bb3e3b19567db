package worker

import (
	"bytes"
	"io"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/ianaindex"
)

// codingPattern extracts a character encoding from a script's first-line
// coding pragma, e.g. "# coding: iso-8859-1".
var codingPattern = regexp.MustCompile(`coding:\s*(\S+)`)

// WorkerScripts resolves the configured worker scripts, in configuration
// order. An empty result means the manager is simply unconfigured.
//
// Each identifier from the WorkerKey list resolves independently, an
// identifier that fails registry lookup falls back to the shared ScriptKey
// and ScriptPathKey parameters. The fallback configuration is shared by
// the whole list, not resolved per identifier. With no identifier list
// configured a single fallback pass is made.
func (m *Manager) WorkerScripts() []Script {
	config := m.params.Get(WorkerKey)

	ids := []string{""}
	if config != "" {
		ids = strings.Split(config, ",")
	}

	var scripts []Script
	for _, id := range ids {
		if script, ok := m.workerScript(id); ok {
			scripts = append(scripts, script)
		}
	}
	return scripts
}

// workerScript resolves a single worker identifier, applying the fixed
// precedence: registry match, shared inline script, shared script path.
func (m *Manager) workerScript(id string) (Script, bool) {
	if id != "" {
		if path, ok := builtinWorkers[canonicalID(id)]; ok {
			return ScriptForFile(id, path), true
		}
		m.monitor.Warnf("unsupported worker name: '%s'", id)
	}

	if script := m.params.Get(ScriptKey); script != "" {
		return ScriptFor(id, script), true
	}

	scriptPath := m.params.Get(ScriptPathKey)
	if scriptPath == "" {
		return Script{}, false
	}
	script, err := readScript(scriptPath)
	if err != nil {
		m.monitor.ReportError(err, "error reading script: '", scriptPath, "'")
		return Script{}, false
	}
	return ScriptForBoth(id, script, scriptPath), true
}

// readScript opens the given path, URL first then local filesystem, and
// decodes its content honoring a first-line coding pragma.
func readScript(path string) (string, error) {
	stream, err := openPath(path)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	data, err := io.ReadAll(stream)
	if err != nil {
		return "", errors.Wrap(err, "failed to read script")
	}
	return decodeScript(data)
}

// openPath opens an URL or a local file path for reading.
func openPath(path string) (io.ReadCloser, error) {
	if u, err := url.Parse(path); err == nil {
		switch u.Scheme {
		case "http", "https":
			res, err := http.Get(path)
			if err != nil {
				return nil, errors.Wrap(err, "failed to fetch script")
			}
			if res.StatusCode != http.StatusOK {
				res.Body.Close()
				return nil, errors.Errorf("failed to fetch script: %s", res.Status)
			}
			return res.Body, nil
		case "file":
			return os.Open(u.Path)
		}
	}
	return os.Open(path)
}

// decodeScript decodes script bytes into text. If the first line starts
// with '#' it is scanned for a coding pragma, the default encoding is
// UTF-8.
func decodeScript(data []byte) (string, error) {
	coding := "UTF-8"
	if len(data) > 0 && data[0] == '#' {
		line := data
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			line = data[:i]
		}
		if match := codingPattern.FindSubmatch(line); match != nil {
			coding = string(match[1])
		}
	}

	if strings.EqualFold(coding, "UTF-8") {
		return string(data), nil
	}
	enc, err := ianaindex.IANA.Encoding(coding)
	if err != nil {
		return "", errors.Wrapf(err, "unsupported script encoding: %s", coding)
	}
	if enc == nil {
		// Known to the IANA registry but with no decoder available.
		return "", errors.Errorf("unsupported script encoding: %s", coding)
	}
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", errors.Wrapf(err, "failed to decode script as %s", coding)
	}
	return string(decoded), nil
}
