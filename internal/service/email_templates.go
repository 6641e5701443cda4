package service

import "fmt"

func welcomeEmailTemplate(name, dashboardURL, appName string) (string, string) {
	subject := fmt.Sprintf("Welcome to %s!", appName)
	body := fmt.Sprintf(`Hi %s,

Your account is ready. Set your first goal, record a thought, and watch your progress add up.

Get started: %s

Best,
The %s Team`, name, dashboardURL, appName)

	return subject, body
}

func exportEmailTemplate(name, title, appName string) (string, string) {
	subject := fmt.Sprintf("Your export: %s", title)
	body := fmt.Sprintf(`Hi %s,

Your export "%s" is attached as a PDF.

Best,
The %s Team`, name, title, appName)

	return subject, body
}
