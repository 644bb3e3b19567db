package goscript

import schematypes "github.com/taskcluster/go-schematypes"

type configType struct {
	GoPath       string `json:"goPath"`
	NoStdlib     bool   `json:"noStdlib"`
	Unrestricted bool   `json:"unrestricted"`
}

var configSchema = schematypes.Object{
	Title:       "Go Script Interpreter Configuration",
	Description: "Configuration for the yaegi backed Go script interpreter.",
	Properties: schematypes.Properties{
		"goPath": schematypes.String{
			Title:       "GOPATH",
			Description: "Optional GOPATH exposed to interpreted scripts for imports.",
		},
		"noStdlib": schematypes.Boolean{
			Title:       "Disable Standard Library",
			Description: "If true, scripts cannot import standard library packages.",
		},
		"unrestricted": schematypes.Boolean{
			Title:       "Unrestricted Mode",
			Description: "If true, scripts may use restricted symbols such as os.Exit.",
		},
	},
}
