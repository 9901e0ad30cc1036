package utils

import (
	"strings"

	ua "github.com/mssola/user_agent"
)

// ClientDevice summarises the User-Agent of an API caller for request logs
type ClientDevice struct {
	Kind     string `json:"kind"`     // browser, cli, bot, unknown
	OS       string `json:"os"`       // Linux, Windows 10, Android 14, ...
	Browser  string `json:"browser"`  // Chrome, Firefox, curl, ...
	Version  string `json:"version"`  // Browser or tool version
	IsMobile bool   `json:"is_mobile"`
}

// cliAgents are HTTP clients that identify as "<name>/<version>"
var cliAgents = []string{"curl", "wget", "httpie", "go-http-client", "python-requests", "postmanruntime"}

// ParseUserAgent parses a User-Agent header into a ClientDevice
func ParseUserAgent(userAgent string) ClientDevice {
	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" || userAgent == "Unknown" {
		return ClientDevice{Kind: "unknown", OS: "Unknown", Browser: "Unknown"}
	}

	if name, version, ok := parseCLIAgent(userAgent); ok {
		return ClientDevice{Kind: "cli", OS: "Unknown", Browser: name, Version: version}
	}

	parser := ua.New(userAgent)
	device := ClientDevice{
		Kind:     "browser",
		OS:       osName(parser),
		IsMobile: parser.Mobile(),
	}
	device.Browser, device.Version = parser.Browser()
	if device.Browser == "" {
		device.Browser = "Unknown"
	}
	if parser.Bot() {
		device.Kind = "bot"
	}

	return device
}

func parseCLIAgent(userAgent string) (name, version string, ok bool) {
	product := strings.Fields(userAgent)[0]
	name, version, _ = strings.Cut(product, "/")
	lower := strings.ToLower(name)
	for _, agent := range cliAgents {
		if lower == agent {
			return name, version, true
		}
	}
	return "", "", false
}

// osName extracts operating system name and version
func osName(parser *ua.UserAgent) string {
	info := parser.OSInfo()
	if info.Name == "" {
		return "Unknown"
	}
	if info.Version != "" {
		return info.Name + " " + info.Version
	}
	return info.Name
}
