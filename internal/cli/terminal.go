package cli

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// stderrNotifier is the terminal analog of an error toast.
type stderrNotifier struct{}

func (stderrNotifier) Notify(message string) {
	fmt.Fprintf(os.Stderr, "! %s\n", message)
}

// terminalNavigator maps the web client's full-page navigations onto a
// terminal session: the browser for external URLs, hints for views.
type terminalNavigator struct{}

func (terminalNavigator) OpenURL(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		// Headless hosts still get the URL to paste by hand.
		fmt.Fprintf(os.Stderr, "Open this URL to sign in:\n  %s\n", url)
		return nil
	}
	return nil
}

func (terminalNavigator) ToLogin() {
	fmt.Fprintln(os.Stderr, "Session expired. Run `ragline login` to sign in again.")
}

func (terminalNavigator) ToHome() {
	fmt.Fprintln(os.Stderr, "Signed out.")
}
