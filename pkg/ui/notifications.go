package ui

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"

	"hockeyscraper/pkg/scraper"
)

// NotificationSender delivers a desktop notification
type NotificationSender interface {
	Send(title, message string) error
}

// LinuxNotificationSender sends notifications on Linux using notify-send
type LinuxNotificationSender struct{}

func (l *LinuxNotificationSender) Send(title, message string) error {
	return exec.Command("notify-send", title, message).Run()
}

// MacOSNotificationSender sends notifications on macOS using osascript
type MacOSNotificationSender struct{}

func (m *MacOSNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`display notification %q with title %q`, message, title)
	return exec.Command("osascript", "-e", script).Run()
}

// WindowsNotificationSender sends notifications on Windows using PowerShell
type WindowsNotificationSender struct{}

func (w *WindowsNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`
		[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
		$template = [Windows.UI.Notifications.ToastTemplateType]::ToastText02
		$xml = [Windows.UI.Notifications.ToastNotificationManager]::GetTemplateContent($template)
		$text = $xml.GetElementsByTagName("text")
		$text.Item(0).AppendChild($xml.CreateTextNode('%s')) | Out-Null
		$text.Item(1).AppendChild($xml.CreateTextNode('%s')) | Out-Null
		$toast = [Windows.UI.Notifications.ToastNotification]::new($xml)
		[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier("hockeyscraper").Show($toast)
	`, title, message)

	return exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", script).Run()
}

// Notifier prints a run outcome and mirrors it to the desktop when supported
type Notifier struct {
	sender NotificationSender
	out    io.Writer
}

// NewNotifier picks the sender for the current platform
func NewNotifier() *Notifier {
	var sender NotificationSender

	switch runtime.GOOS {
	case "linux":
		sender = &LinuxNotificationSender{}
	case "darwin":
		sender = &MacOSNotificationSender{}
	case "windows":
		sender = &WindowsNotificationSender{}
	}

	return &Notifier{sender: sender, out: os.Stdout}
}

// NewNotifierWith uses an explicit sender and console writer
func NewNotifierWith(sender NotificationSender, out io.Writer) *Notifier {
	return &Notifier{sender: sender, out: out}
}

// NotifyRun reports how a crawl ended
func (n *Notifier) NotifyRun(res scraper.RunResult) {
	msg := fmt.Sprintf("%d players saved, next page %d", res.Saved, res.NextPage)
	if res.Completed() {
		n.send("Crawl complete", msg, Green)
		return
	}
	n.send("Crawl stopped ("+res.Reason.String()+")", msg, Yellow)
}

// NotifyError reports a fatal failure
func (n *Notifier) NotifyError(err error) {
	n.send("Crawl failed", err.Error(), Red)
}

func (n *Notifier) send(title, message string, color func(string) string) {
	fmt.Fprintf(n.out, "\n%s: %s\n", color(title), message)

	// Desktop delivery is best effort
	if n.sender != nil {
		_ = n.sender.Send(title, message)
	}
}
