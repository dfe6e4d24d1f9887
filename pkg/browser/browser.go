// Package browser opens post links and map locations in the system browser.
package browser

import (
	"net/url"
	"os/exec"
	"runtime"
	"strconv"

	"github.com/rotisserie/eris"
)

// MapURL returns a web map link centred on lat, lng.
func MapURL(lat, lng float64) string {
	q := url.Values{}
	q.Set("mlat", strconv.FormatFloat(lat, 'f', 6, 64))
	q.Set("mlon", strconv.FormatFloat(lng, 'f', 6, 64))
	return "https://www.openstreetmap.org/?" + q.Encode() + "#map=18/" +
		strconv.FormatFloat(lat, 'f', 6, 64) + "/" + strconv.FormatFloat(lng, 'f', 6, 64)
}

// Open opens the specified URL in the default browser.
// Only http and https links are passed to the system opener.
func Open(urlString string) error {
	return open(urlString, runtime.GOOS, start)
}

func start(cmd *exec.Cmd) error {
	return cmd.Start()
}

func open(urlString, goos string, run func(*exec.Cmd) error) error {
	if err := Validate(urlString); err != nil {
		return err
	}

	var cmd *exec.Cmd

	switch goos {
	case "linux", "freebsd", "openbsd":
		cmd = exec.Command("xdg-open", urlString) // #nosec G204 -- URL validated above
	case "darwin":
		cmd = exec.Command("open", urlString) // #nosec G204 -- URL validated above
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", urlString) // #nosec G204 -- URL validated above
	default:
		return eris.Errorf("browser: unsupported platform: %s", goos)
	}

	if err := run(cmd); err != nil {
		return eris.Wrap(err, "browser: start")
	}
	return nil
}

// Validate rejects links that are not absolute http or https URLs. Post
// links default to "#", which is never opened.
func Validate(urlString string) error {
	parsedURL, err := url.Parse(urlString)
	if err != nil {
		return eris.Wrap(err, "browser: invalid URL")
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return eris.Errorf("browser: unsupported URL scheme: %q (only http and https allowed)", parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return eris.New("browser: invalid URL: missing host")
	}
	return nil
}
