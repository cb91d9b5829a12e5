package mailer

import "fmt"

// WelcomeEmail composes the signup greeting.
func WelcomeEmail(to, name string) Message {
	return Message{
		To:      to,
		Subject: "Welcome to the Travease family!",
		Text: fmt.Sprintf("Hi %s,\n\n"+
			"Welcome to Travease, we're glad to have you!\n"+
			"We're all a big family here, so make sure to upload your user photo "+
			"so we get to know you a bit better.\n", name),
	}
}

// PasswordResetEmail composes the reset instructions around a one-time
// reset URL.
func PasswordResetEmail(to, name, resetURL string) Message {
	return Message{
		To:      to,
		Subject: "Your password reset token (valid for only 10 minutes)",
		Text: fmt.Sprintf("Hi %s,\n\n"+
			"Forgot your password? Submit a PATCH request with your new password "+
			"and passwordConfirm to: %s.\n"+
			"If you didn't forget your password, please ignore this email!\n", name, resetURL),
	}
}
